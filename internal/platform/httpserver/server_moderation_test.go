package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type jokeBody struct {
	ID        string `json:"id"`
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
	Type      struct {
		Name string `json:"name"`
	} `json:"type"`
	Status string `json:"status"`
}

type deliveredBody struct {
	ID        string `json:"id"`
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
	Type      string `json:"type"`
	Author    string `json:"author"`
}

func decodeData(t *testing.T, raw json.RawMessage, target any) {
	t.Helper()
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decode data: %v raw=%s", err, raw)
	}
}

func TestModerationLoginApproveFlow(t *testing.T) {
	env := newTestServer(t)

	rr, login := env.do(t, http.MethodPost, "/api/moderate-jokes/auth/login", "", `{"email":"admin@admin.com","password":"admin123"}`)
	if rr.Code != http.StatusOK || login.Message != "Login successful" {
		t.Fatalf("login failed: %d %+v", rr.Code, login)
	}
	var loginData struct {
		Token string `json:"token"`
	}
	decodeData(t, login.Data, &loginData)
	if loginData.Token == "" {
		t.Fatalf("expected token in login data")
	}

	rr, pending := env.do(t, http.MethodGet, "/api/moderate-jokes/pending", loginData.Token, "")
	var jokes []jokeBody
	decodeData(t, pending.Data, &jokes)
	if rr.Code != http.StatusOK || len(jokes) != 2 || jokes[0].ID != "joke-1" || jokes[0].Type.Name != "programming" {
		t.Fatalf("unexpected pending list: %d %+v", rr.Code, jokes)
	}

	rr, approved := env.do(t, http.MethodPost, "/api/moderate-jokes/approve/joke-1", loginData.Token, "")
	if rr.Code != http.StatusCreated || approved.Message != "Joke approved and delivered successfully" {
		t.Fatalf("approve failed: %d %+v", rr.Code, approved)
	}
	var delivered deliveredBody
	decodeData(t, approved.Data, &delivered)
	if delivered.Setup != "Why do programmers prefer dark mode?" || delivered.Type != "programming" || delivered.Author != "ada" || delivered.ID == "" {
		t.Fatalf("unexpected delivered joke: %+v", delivered)
	}

	_, pending = env.do(t, http.MethodGet, "/api/moderate-jokes/pending", loginData.Token, "")
	jokes = nil
	decodeData(t, pending.Data, &jokes)
	if len(jokes) != 1 || jokes[0].ID != "joke-2" {
		t.Fatalf("approved joke still pending: %+v", jokes)
	}
	if got := env.module.Store.Delivered(); len(got) != 1 || got[0].Punchline != "Because light attracts bugs." {
		t.Fatalf("unexpected delivery store contents: %+v", got)
	}

	rr, again := env.do(t, http.MethodPost, "/api/moderate-jokes/approve/joke-1", loginData.Token, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected second approve to conflict, got %d %+v", rr.Code, again)
	}
}

func TestModerationRejectRemovesJoke(t *testing.T) {
	env := newTestServer(t)
	token := env.login(t)

	rr, rejected := env.do(t, http.MethodDelete, "/api/moderate-jokes/reject/joke-2", token, "")
	if rr.Code != http.StatusOK || rejected.Message != "Joke rejected successfully" || string(rejected.Data) != "null" {
		t.Fatalf("reject failed: %d %+v", rr.Code, rejected)
	}

	_, pending := env.do(t, http.MethodGet, "/api/moderate-jokes/pending", token, "")
	var jokes []jokeBody
	decodeData(t, pending.Data, &jokes)
	if len(jokes) != 1 || jokes[0].ID != "joke-1" {
		t.Fatalf("rejected joke still pending: %+v", jokes)
	}

	rr, missing := env.do(t, http.MethodDelete, "/api/moderate-jokes/reject/joke-2", token, "")
	if rr.Code != http.StatusInternalServerError || missing.Message != "Error rejecting joke" {
		t.Fatalf("expected 500 for a missing joke, got %d %+v", rr.Code, missing)
	}
}

func TestModerationUpdateIsSparse(t *testing.T) {
	env := newTestServer(t)
	token := env.login(t)

	rr, updated := env.do(t, http.MethodPut, "/api/moderate-jokes/joke-2", token, `{"punchline":"An impasta!","type":"food"}`)
	if rr.Code != http.StatusOK || updated.Message != "Joke updated successfully" {
		t.Fatalf("update failed: %d %+v", rr.Code, updated)
	}
	var joke jokeBody
	decodeData(t, updated.Data, &joke)
	if joke.Punchline != "An impasta!" || joke.Type.Name != "food" || joke.Setup != "What do you call a fake noodle?" {
		t.Fatalf("unexpected updated joke: %+v", joke)
	}

	rr, unchanged := env.do(t, http.MethodPut, "/api/moderate-jokes/joke-2", token, `{}`)
	joke = jokeBody{}
	decodeData(t, unchanged.Data, &joke)
	if rr.Code != http.StatusOK || joke.Punchline != "An impasta!" {
		t.Fatalf("empty patch changed the joke: %d %+v", rr.Code, joke)
	}
}

func TestModerationUpdateMissingJokeIs404(t *testing.T) {
	env := newTestServer(t)
	rr, envelope := env.do(t, http.MethodPut, "/api/moderate-jokes/missing", env.login(t), `{"setup":"x"}`)
	if rr.Code != http.StatusNotFound || envelope.Message != "Joke not found" {
		t.Fatalf("expected 404, got %d %+v", rr.Code, envelope)
	}
}

func TestModerationUpdateInvalidBody(t *testing.T) {
	env := newTestServer(t)
	rr, envelope := env.do(t, http.MethodPut, "/api/moderate-jokes/joke-1", env.login(t), `[1,2`)
	if rr.Code != http.StatusBadRequest || envelope.Message != "Error updating joke" {
		t.Fatalf("expected 400, got %d %+v", rr.Code, envelope)
	}
}

func TestModerationDeliveriesListing(t *testing.T) {
	env := newTestServer(t)
	token := env.login(t)

	rr, listed := env.do(t, http.MethodGet, "/api/moderate-jokes/deliveries?status=pending_delivery&limit=5", token, "")
	if rr.Code != http.StatusOK || string(listed.Data) != "[]" {
		t.Fatalf("expected empty intent list, got %d %+v", rr.Code, listed)
	}

	rr, invalid := env.do(t, http.MethodGet, "/api/moderate-jokes/deliveries?status=stuck", token, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d %+v", rr.Code, invalid)
	}
}

func TestHandlerWrapsMuxWithRequestLogging(t *testing.T) {
	env := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/moderate-jokes/pending", nil)
	req.Header.Set("Authorization", "Bearer "+env.login(t))

	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response through middleware: %d %v", rr.Code, rr.Header())
	}

	rr = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/moderate-jokes/unknown/route/x", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rr.Code)
	}
}
