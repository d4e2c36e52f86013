package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	repositoryModule = "moderation/moderate-jokes-service"
	claimLease       = 5 * time.Minute
)

// Repository stores moderator credentials and delivery intents.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the tables and the partial unique index that keeps one
// pending intent per joke.
func (r *Repository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&moderatorModel{}, &deliveryIntentModel{}); err != nil {
		return r.logError("moderation_repo_migrate_failed", err)
	}
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS delivery_intents_pending_joke_uq ON delivery_intents (joke_id) WHERE status = ?",
		string(entities.DeliveryIntentPending),
	).Error; err != nil {
		return r.logError("moderation_repo_migrate_index_failed", err)
	}
	return nil
}

func (r *Repository) LookupCredential(ctx context.Context, email string) (entities.ModeratorCredential, bool, error) {
	var row moderatorModel
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ModeratorCredential{}, false, nil
		}
		return entities.ModeratorCredential{}, false, r.logError("moderation_repo_lookup_credential_failed", err)
	}
	return row.toEntity(), true, nil
}

// UpsertCredential seeds or rotates a moderator credential.
func (r *Repository) UpsertCredential(ctx context.Context, credential entities.ModeratorCredential) error {
	row := moderatorModel{
		Email:        strings.TrimSpace(credential.Email),
		PasswordHash: credential.PasswordHash,
		UpdatedAt:    time.Now().UTC(),
	}
	if row.Email == "" || row.PasswordHash == "" {
		return domainerrors.ErrInvalidRequest
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("moderation_repo_upsert_credential_failed", err,
			"email", row.Email,
		)
	}
	return nil
}

// SavePendingDelivery inserts a pending intent or, when one already exists for
// the joke, bumps its attempt count and refreshes the payload.
func (r *Repository) SavePendingDelivery(ctx context.Context, intent entities.DeliveryIntent) (entities.DeliveryIntent, error) {
	row, err := deliveryIntentModelFromEntity(intent)
	if err != nil {
		return entities.DeliveryIntent{}, r.logError("moderation_repo_intent_encode_failed", err,
			"joke_id", intent.JokeID,
		)
	}
	if row.IntentID == "" {
		row.IntentID = uuid.NewString()
	}

	createErr := r.db.WithContext(ctx).Create(&row).Error
	if createErr == nil {
		return row.toEntity()
	}
	if !isUniqueViolation(createErr) {
		return entities.DeliveryIntent{}, r.logError("moderation_repo_intent_insert_failed", createErr,
			"intent_id", row.IntentID,
			"joke_id", row.JokeID,
		)
	}

	var existing deliveryIntentModel
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("joke_id = ?", row.JokeID).
			Where("status = ?", string(entities.DeliveryIntentPending)).
			First(&existing).Error; err != nil {
			return err
		}
		existing.Payload = row.Payload
		existing.Attempts++
		existing.LastError = row.LastError
		existing.NextAttemptAt = row.NextAttemptAt
		existing.UpdatedAt = row.UpdatedAt
		return tx.Save(&existing).Error
	})
	if err != nil {
		return entities.DeliveryIntent{}, r.logError("moderation_repo_intent_refresh_failed", err,
			"joke_id", row.JokeID,
		)
	}
	r.logWarn("moderation_repo_intent_refreshed",
		"intent_id", existing.IntentID,
		"joke_id", existing.JokeID,
		"attempts", existing.Attempts,
	)
	return existing.toEntity()
}

func (r *Repository) UpdateDeliveryIntent(ctx context.Context, intent entities.DeliveryIntent) error {
	result := r.db.WithContext(ctx).
		Model(&deliveryIntentModel{}).
		Where("intent_id = ?", strings.TrimSpace(intent.IntentID)).
		Updates(map[string]any{
			"status":          string(intent.Status),
			"attempts":        intent.Attempts,
			"last_error":      intent.LastError,
			"next_attempt_at": intent.NextAttemptAt.UTC(),
			"updated_at":      intent.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("moderation_repo_intent_update_failed", result.Error,
			"intent_id", intent.IntentID,
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("moderation_repo_intent_update_not_found",
			"intent_id", intent.IntentID,
		)
		return domainerrors.ErrIntentNotFound
	}
	return nil
}

// ListDueDeliveryIntents claims due rows with FOR UPDATE SKIP LOCKED and
// moves their next attempt past the lease so concurrent workers skip them.
func (r *Repository) ListDueDeliveryIntents(ctx context.Context, now time.Time, limit int) ([]entities.DeliveryIntent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []deliveryIntentModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", string(entities.DeliveryIntentPending)).
			Where("next_attempt_at <= ?", now.UTC()).
			Order("next_attempt_at ASC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.IntentID)
		}
		return tx.Model(&deliveryIntentModel{}).
			Where("intent_id IN ?", ids).
			Update("next_attempt_at", now.UTC().Add(claimLease)).Error
	})
	if err != nil {
		return nil, r.logError("moderation_repo_list_due_intents_failed", err,
			"limit", limit,
		)
	}
	return toEntities(rows)
}

func (r *Repository) ListDeliveryIntents(ctx context.Context, status entities.DeliveryIntentStatus, limit int) ([]entities.DeliveryIntent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Model(&deliveryIntentModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	var rows []deliveryIntentModel
	if err := query.Order("created_at ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("moderation_repo_list_intents_failed", err,
			"status", string(status),
		)
	}
	return toEntities(rows)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", repositoryModule,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("moderation repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"module", repositoryModule,
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("moderation repository warning", fields...)
}

type moderatorModel struct {
	Email        string    `gorm:"column:email;primaryKey"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (moderatorModel) TableName() string {
	return "moderators"
}

func (m moderatorModel) toEntity() entities.ModeratorCredential {
	return entities.ModeratorCredential{
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
	}
}

type deliveryIntentModel struct {
	IntentID      string    `gorm:"column:intent_id;primaryKey"`
	JokeID        string    `gorm:"column:joke_id;index;not null"`
	Payload       []byte    `gorm:"column:payload;type:jsonb"`
	Status        string    `gorm:"column:status;index;not null"`
	Attempts      int       `gorm:"column:attempts"`
	LastError     string    `gorm:"column:last_error"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (deliveryIntentModel) TableName() string {
	return "delivery_intents"
}

type payloadRecord struct {
	JokeID    string `json:"joke_id,omitempty"`
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
	Type      string `json:"type"`
	Author    string `json:"author,omitempty"`
}

func deliveryIntentModelFromEntity(intent entities.DeliveryIntent) (deliveryIntentModel, error) {
	payload, err := json.Marshal(payloadRecord{
		JokeID:    intent.Payload.JokeID,
		Setup:     intent.Payload.Setup,
		Punchline: intent.Payload.Punchline,
		Type:      intent.Payload.Type,
		Author:    intent.Payload.Author,
	})
	if err != nil {
		return deliveryIntentModel{}, fmt.Errorf("encode intent payload: %w", err)
	}
	return deliveryIntentModel{
		IntentID:      strings.TrimSpace(intent.IntentID),
		JokeID:        strings.TrimSpace(intent.JokeID),
		Payload:       payload,
		Status:        string(intent.Status),
		Attempts:      intent.Attempts,
		LastError:     intent.LastError,
		NextAttemptAt: intent.NextAttemptAt.UTC(),
		CreatedAt:     intent.CreatedAt.UTC(),
		UpdatedAt:     intent.UpdatedAt.UTC(),
	}, nil
}

func (m deliveryIntentModel) toEntity() (entities.DeliveryIntent, error) {
	var payload payloadRecord
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return entities.DeliveryIntent{}, fmt.Errorf("decode intent %s payload: %w", m.IntentID, err)
		}
	}
	return entities.DeliveryIntent{
		IntentID: m.IntentID,
		JokeID:   m.JokeID,
		Payload: entities.DeliveredJoke{
			JokeID:    payload.JokeID,
			Setup:     payload.Setup,
			Punchline: payload.Punchline,
			Type:      payload.Type,
			Author:    payload.Author,
		},
		Status:        entities.DeliveryIntentStatus(m.Status),
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		NextAttemptAt: m.NextAttemptAt.UTC(),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}, nil
}

func toEntities(rows []deliveryIntentModel) ([]entities.DeliveryIntent, error) {
	items := make([]entities.DeliveryIntent, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.CredentialStore = (*Repository)(nil)
var _ ports.DeliveryIntentRepository = (*Repository)(nil)
