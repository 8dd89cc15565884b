// Package api exposes the HTTP interface for company lookups.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/config"
	"github.com/JakeFAU/company-registry-scraper/internal/id/uuid"
	"github.com/JakeFAU/company-registry-scraper/internal/metrics"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

const (
	serviceName           = "company-registry-scraper"
	minQueryLength        = 2
	defaultRequestTimeout = 60 * time.Second
)

// CompanyService is the lookup surface the handlers depend on.
type CompanyService interface {
	Company(ctx context.Context, id registry.Identifier, force bool) (registry.CompanyRecord, error)
	Search(ctx context.Context, query string) ([]registry.SearchResult, error)
	Stats(ctx context.Context) (registry.Stats, error)
}

// Server wires HTTP handlers to the lookup service.
type Server struct {
	router  chi.Router
	service CompanyService
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. A nil ids falls
// back to UUID v7 request identifiers.
func NewServer(service CompanyService, ids registry.IDGenerator, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ids == nil {
		ids = uuid.New()
	}
	s := &Server{
		service: service,
		logger:  logger.Named("api"),
	}
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(ids))
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(timeout))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/", s.root)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/company", func(r chi.Router) {
		r.Get("/id/{taxId}", s.companyByTaxID)
		r.Get("/inn/{taxId}", s.companyByTaxID)
		r.Get("/reg/{number}", s.companyByRegistrationNumber)
		r.Get("/ogrn/{number}", s.companyByRegistrationNumber)
	})
	r.Get("/search", s.search)
	r.Get("/stats", s.stats)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": serviceName, "status": "ok"})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) companyByTaxID(w http.ResponseWriter, r *http.Request) {
	id, err := registry.ValidateTaxID(chi.URLParam(r, "taxId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.company(w, r, id)
}

func (s *Server) companyByRegistrationNumber(w http.ResponseWriter, r *http.Request) {
	id, err := registry.ValidateRegistrationNumber(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.company(w, r, id)
}

func (s *Server) company(w http.ResponseWriter, r *http.Request, id registry.Identifier) {
	force, err := parseForce(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.service.Company(r.Context(), id, force)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(query) < minQueryLength {
		writeError(w, http.StatusBadRequest, "query must be at least 2 characters")
		return
	}
	results, err := s.service.Search(r.Context(), query)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(results) == 0 {
		writeError(w, http.StatusNotFound, "no companies matched the query")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeServiceError maps the registry error taxonomy onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	switch status {
	case http.StatusNotFound:
		writeError(w, status, registry.ErrNotFound.Error())
	case http.StatusInternalServerError:
		writeError(w, status, "internal server error")
	default:
		writeError(w, status, err.Error())
	}
}

func statusFor(err error) int {
	switch {
	case registry.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case registry.IsUpstream(err):
		return http.StatusBadGateway
	case errors.Is(err, registry.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseForce(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("force")
	if raw == "" {
		return false, nil
	}
	force, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &registry.ValidationError{Field: "force", Value: raw, Reason: "must be a boolean"}
	}
	return force, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
