package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	moderatejokes "jokemoderation/contexts/moderation/moderate-jokes-service"
	"jokemoderation/internal/platform/tracing"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "jokemoderation/internal/platform/httpserver/docs"
)

const (
	readHeaderTimeout = 10 * time.Second
	maxRequestBytes   = 1 << 20
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	moderation moderatejokes.Module
	httpServer *http.Server
}

func New(moderation moderatejokes.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":9092"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		moderation: moderation,
	}
	s.registerRoutes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler is the mux wrapped in request tracing and logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.mux)
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/api-docs/", httpSwagger.Handler(
		httpSwagger.URL("/api-docs/doc.json"),
	))

	s.mux.HandleFunc("POST /api/moderate-jokes/auth/login", s.handleModerationLogin)
	s.mux.HandleFunc("GET /api/moderate-jokes/pending", s.handleModerationPending)
	s.mux.HandleFunc("GET /api/moderate-jokes/deliveries", s.handleModerationDeliveries)
	s.mux.HandleFunc("PUT /api/moderate-jokes/{id}", s.handleModerationUpdate)
	s.mux.HandleFunc("POST /api/moderate-jokes/approve/{id}", s.handleModerationApprove)
	s.mux.HandleFunc("DELETE /api/moderate-jokes/reject/{id}", s.handleModerationReject)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+r.URL.Path, "SERVER")
		defer span.OnDone()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(ctx))
		span.SetStatusFromHTTPCode(recorder.status)

		s.logger.Info("http request handled",
			"event", "http_request_handled",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

// decodeJSON reports false after writing the error response itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any, onError func(http.ResponseWriter, int, string)) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(target); err != nil {
		onError(w, http.StatusBadRequest, "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
