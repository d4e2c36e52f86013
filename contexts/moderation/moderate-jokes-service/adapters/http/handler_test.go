package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/memory"
	"jokemoderation/contexts/moderation/moderate-jokes-service/application"
	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	httptransport "jokemoderation/contexts/moderation/moderate-jokes-service/transport/http"
)

func newTestHandler(buf *bytes.Buffer) Handler {
	store := memory.NewStore([]entities.PendingJoke{{
		JokeID:    "j1",
		Setup:     "s",
		Punchline: "p",
		Category:  entities.Category{Name: "pun"},
		Status:    entities.JokeStatusPending,
	}}, nil, nil)
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return Handler{
		Service: application.Service{Submissions: store, Logger: slog.New(slog.DiscardHandler)},
		Logger:  logger,
	}
}

func outcomeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry["event"] == "moderation_http_outcome" {
			entries = append(entries, entry)
		}
	}
	return entries
}

func TestHandlerLogsFailedOutcomeAtWarn(t *testing.T) {
	var buf bytes.Buffer
	handler := newTestHandler(&buf)

	punchline := "new"
	envelope := handler.UpdateJokeHandler(context.Background(), "missing", httptransport.UpdateJokeRequest{Punchline: &punchline})
	if envelope.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", envelope.Code)
	}

	entries := outcomeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected one outcome entry, got %d: %s", len(entries), buf.String())
	}
	entry := entries[0]
	if entry["level"] != "WARN" || entry["operation"] != "edit" || entry["layer"] != "adapter" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if code, _ := entry["code"].(float64); int(code) != http.StatusNotFound {
		t.Fatalf("expected code 404 in entry, got %v", entry["code"])
	}
}

func TestHandlerLogsSuccessAtDebug(t *testing.T) {
	var buf bytes.Buffer
	handler := newTestHandler(&buf)

	envelope := handler.ListPendingHandler(context.Background())
	if envelope.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", envelope.Code)
	}
	items, ok := envelope.Data.([]httptransport.JokeResponse)
	if !ok || len(items) != 1 || items[0].ID != "j1" {
		t.Fatalf("unexpected data: %#v", envelope.Data)
	}

	entries := outcomeEntries(t, &buf)
	if len(entries) != 1 || entries[0]["level"] != "DEBUG" || entries[0]["operation"] != "list_pending" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}
