// Package server exposes the expense service over HTTP.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/expenses"
	"github.com/yuchialin/expense-claim/internal/export"
	"github.com/yuchialin/expense-claim/internal/identity"
	"github.com/yuchialin/expense-claim/internal/repository"
)

type Server struct {
	router     *chi.Mux
	svc        *expenses.Service
	exporter   *export.Service
	verifier   identity.Verifier
	users      repository.ProviderUserRepository
	webhookCfg common.WebhookConfig
	db         *sql.DB
	logger     *slog.Logger
}

func New(
	svc *expenses.Service,
	exporter *export.Service,
	verifier identity.Verifier,
	users repository.ProviderUserRepository,
	webhookCfg common.WebhookConfig,
	db *sql.DB,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:        svc,
		exporter:   exporter,
		verifier:   verifier,
		users:      users,
		webhookCfg: webhookCfg,
		db:         db,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	// webhook deliveries authenticate by signature, not by caller identity
	r.Post("/api/webhooks", s.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Route("/api/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/export", s.handleExportExpenses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetExpense)
				r.Put("/", s.handleUpdateExpense)
				r.Delete("/", s.handleDeleteExpense)
			})
		})
	})

	s.router = r
	return s
}

// Router returns the HTTP handler for mounting in an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

// authMiddleware resolves the bearer token to an identity and stores it on
// the request context. Every expense operation requires it.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, r, common.ErrUnauthenticated)
			return
		}
		id, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.logger.Warn("identity verification failed", "error", err)
			s.writeError(w, r, common.WrapError(common.ErrUnauthenticated, "verify token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps error kinds to status codes. Unclassified failures are
// reported generically; the cause stays in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}
