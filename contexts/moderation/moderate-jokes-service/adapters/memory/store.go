package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
)

// claimLease hides a claimed intent from other reconcile passes until the
// claimer has written its result back.
const claimLease = 5 * time.Minute

// Store stands in for the submission store, the delivery store and the
// moderation database in local runs and tests.
type Store struct {
	mu sync.RWMutex

	jokes       map[string]entities.PendingJoke
	delivered   []entities.DeliveredJoke
	credentials map[string]entities.ModeratorCredential
	intents     map[string]entities.DeliveryIntent
	sequence    uint64
	logger      *slog.Logger
}

func NewStore(seed []entities.PendingJoke, credentials []entities.ModeratorCredential, logger *slog.Logger) *Store {
	store := &Store{
		jokes:       make(map[string]entities.PendingJoke, len(seed)),
		delivered:   []entities.DeliveredJoke{},
		credentials: make(map[string]entities.ModeratorCredential, len(credentials)),
		intents:     map[string]entities.DeliveryIntent{},
		sequence:    0,
		logger:      logger,
	}
	now := time.Now().UTC()
	for _, joke := range seed {
		if joke.JokeID == "" {
			joke.JokeID = store.nextID("joke")
		}
		if joke.Status == "" {
			joke.Status = entities.JokeStatusPending
		}
		if joke.CreatedAt.IsZero() {
			joke.CreatedAt = now
		}
		if joke.UpdatedAt.IsZero() {
			joke.UpdatedAt = joke.CreatedAt
		}
		store.jokes[joke.JokeID] = joke
	}
	for _, credential := range credentials {
		store.credentials[credential.Email] = credential
	}
	return store
}

// DefaultSeed is the local-run fixture set.
func DefaultSeed() []entities.PendingJoke {
	now := time.Now().UTC()
	return []entities.PendingJoke{
		{
			JokeID:    "joke-1",
			Setup:     "Why did the developer go broke?",
			Punchline: "Because he used up all his cache.",
			Category:  entities.Category{ID: "type-programming", Name: "programming"},
			Author:    "anonymous",
			Status:    entities.JokeStatusPending,
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			JokeID:    "joke-2",
			Setup:     "What do you call a fake noodle?",
			Punchline: "An impasta.",
			Category:  entities.Category{ID: "type-pun", Name: "pun"},
			Author:    "anonymous",
			Status:    entities.JokeStatusPending,
			CreatedAt: now.Add(-1 * time.Hour),
		},
	}
}

func (s *Store) ListPending(ctx context.Context) ([]entities.PendingJoke, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PendingJoke, 0, len(s.jokes))
	for _, joke := range s.jokes {
		if joke.IsPending() {
			items = append(items, joke)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].JokeID < items[j].JokeID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetJoke(ctx context.Context, jokeID string) (entities.PendingJoke, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	joke, ok := s.jokes[jokeID]
	if !ok {
		return entities.PendingJoke{}, domainerrors.ErrJokeNotFound
	}
	return joke, nil
}

func (s *Store) UpdateJoke(ctx context.Context, jokeID string, patch entities.JokePatch) (entities.PendingJoke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	joke, ok := s.jokes[jokeID]
	if !ok {
		return entities.PendingJoke{}, domainerrors.ErrJokeNotFound
	}
	if patch.IsEmpty() {
		return joke, nil
	}
	joke = patch.Apply(joke)
	joke.UpdatedAt = time.Now().UTC()
	s.jokes[jokeID] = joke
	return joke, nil
}

// MarkApproved refuses jokes that already left the pending state.
func (s *Store) MarkApproved(ctx context.Context, jokeID string) (entities.PendingJoke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	joke, ok := s.jokes[jokeID]
	if !ok {
		return entities.PendingJoke{}, domainerrors.ErrJokeNotFound
	}
	if !joke.IsPending() {
		return entities.PendingJoke{}, domainerrors.ErrJokeNotPending
	}
	joke.Status = entities.JokeStatusApproved
	joke.UpdatedAt = time.Now().UTC()
	s.jokes[jokeID] = joke
	return joke, nil
}

func (s *Store) MarkRejected(ctx context.Context, jokeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jokes[jokeID]; !ok {
		return domainerrors.ErrJokeNotFound
	}
	delete(s.jokes, jokeID)
	return nil
}

func (s *Store) Publish(ctx context.Context, joke entities.DeliveredJoke) (entities.DeliveredJoke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	joke.JokeID = s.nextID("delivered")
	joke.CreatedAt = time.Now().UTC()
	s.delivered = append(s.delivered, joke)
	return joke, nil
}

// Delivered returns a snapshot of everything published downstream.
func (s *Store) Delivered() []entities.DeliveredJoke {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.DeliveredJoke(nil), s.delivered...)
}

func (s *Store) LookupCredential(ctx context.Context, email string) (entities.ModeratorCredential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.credentials[email]
	return credential, ok, nil
}

// SavePendingDelivery keeps at most one pending intent per joke. A repeat
// failure refreshes the existing marker.
func (s *Store) SavePendingDelivery(ctx context.Context, intent entities.DeliveryIntent) (entities.DeliveryIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.intents {
		if existing.JokeID != intent.JokeID || existing.Status != entities.DeliveryIntentPending {
			continue
		}
		existing.Payload = intent.Payload
		existing.Attempts++
		existing.LastError = intent.LastError
		existing.NextAttemptAt = intent.NextAttemptAt
		existing.UpdatedAt = intent.UpdatedAt
		s.intents[id] = existing
		return existing, nil
	}
	if strings.TrimSpace(intent.IntentID) == "" {
		intent.IntentID = s.nextID("intent")
	}
	s.intents[intent.IntentID] = intent
	resolveLogger(s.logger).Debug("delivery intent stored",
		"event", "moderation_memory_intent_stored",
		"module", "moderation/moderate-jokes-service",
		"layer", "adapter",
		"intent_id", intent.IntentID,
		"joke_id", intent.JokeID,
	)
	return intent, nil
}

func (s *Store) UpdateDeliveryIntent(ctx context.Context, intent entities.DeliveryIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intents[intent.IntentID]; !ok {
		return domainerrors.ErrIntentNotFound
	}
	s.intents[intent.IntentID] = intent
	return nil
}

// ListDueDeliveryIntents claims due intents by pushing their next attempt
// past the lease window.
func (s *Store) ListDueDeliveryIntents(ctx context.Context, now time.Time, limit int) ([]entities.DeliveryIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := make([]entities.DeliveryIntent, 0)
	for _, intent := range s.intents {
		if intent.IsDue(now) {
			due = append(due, intent)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, intent := range due {
		claimed := intent
		claimed.NextAttemptAt = now.Add(claimLease)
		s.intents[intent.IntentID] = claimed
	}
	return due, nil
}

func (s *Store) ListDeliveryIntents(ctx context.Context, status entities.DeliveryIntentStatus, limit int) ([]entities.DeliveryIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.DeliveryIntent, 0)
	for _, intent := range s.intents {
		if status != "" && intent.Status != status {
			continue
		}
		items = append(items, intent)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return s.nextID("id"), nil
}

func (s *Store) nextID(prefix string) string {
	n := atomic.AddUint64(&s.sequence, 1)
	if strings.TrimSpace(prefix) == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, n)
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

var _ ports.SubmissionStore = (*Store)(nil)
var _ ports.DeliveryStore = (*Store)(nil)
var _ ports.CredentialStore = (*Store)(nil)
var _ ports.DeliveryIntentRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
