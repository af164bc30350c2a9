// Package api exposes the deduplication engine over HTTP. The surface
// is deliberately thin: authentication and role checks happen in the
// upstream gateway, which forwards the caller's tenant in X-Tenant-ID.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/crm-dedupe/internal/dedupe"
	"github.com/sells-group/crm-dedupe/internal/model"
	"github.com/sells-group/crm-dedupe/internal/store"
)

const tenantHeader = "X-Tenant-ID"

// Detector runs a detection scan. Implemented by dedupe.Generator.
type Detector interface {
	Generate(ctx context.Context, tenantID string, entityType model.EntityType) (int, error)
}

// Merger executes a merge. Implemented by dedupe.Merger.
type Merger interface {
	Merge(ctx context.Context, tenantID, suggestionID, primaryID string) error
}

// SuggestionReader lists and dismisses suggestions. Implemented by the
// store.
type SuggestionReader interface {
	ListSuggestions(ctx context.Context, filter store.SuggestionFilter) ([]model.DuplicateSuggestion, error)
	DismissSuggestion(ctx context.Context, tenantID, id string) error
}

// Server hosts the duplicate-review HTTP API.
type Server struct {
	detector    Detector
	merger      Merger
	suggestions SuggestionReader

	detectRate float64
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
}

// NewServer creates a Server. detectRatePerMin throttles detection
// scans per tenant; zero or negative disables the limit.
func NewServer(d Detector, m Merger, s SuggestionReader, detectRatePerMin float64) *Server {
	return &Server{
		detector:    d,
		merger:      m,
		suggestions: s,
		detectRate:  detectRatePerMin,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", tenantHeader},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/duplicates", func(r chi.Router) {
		r.Post("/detect/organizations", s.handleDetect(model.EntityOrganization))
		r.Post("/detect/contacts", s.handleDetect(model.EntityContact))
		r.Get("/", s.handleList)
		r.Post("/merge", s.handleMerge)
		r.Post("/dismiss", s.handleDismiss)
	})

	return r
}

func (s *Server) handleDetect(entityType model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := tenantFrom(w, r)
		if !ok {
			return
		}
		if !s.allowDetect(tenantID) {
			writeError(w, http.StatusTooManyRequests, "detection rate limit exceeded")
			return
		}

		count, err := s.detector.Generate(r.Context(), tenantID, entityType)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"entity_type":         entityType,
			"suggestions_created": count,
		})
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	filter := store.SuggestionFilter{
		TenantID:   tenantID,
		EntityType: model.EntityType(r.URL.Query().Get("entity_type")),
		Status:     model.SuggestionStatus(r.URL.Query().Get("status")),
		LiveOnly:   true,
	}
	if filter.Status == "" {
		filter.Status = model.StatusPending
	}

	out, err := s.suggestions.ListSuggestions(r.Context(), filter)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if out == nil {
		out = []model.DuplicateSuggestion{}
	}
	// Snapshots are generation-time data and may lag the live records;
	// the review UI is expected to surface that.
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		SuggestionID string `json:"suggestion_id"`
		PrimaryID    string `json:"primary_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SuggestionID == "" || req.PrimaryID == "" {
		writeError(w, http.StatusBadRequest, "suggestion_id and primary_id are required")
		return
	}

	if err := s.merger.Merge(r.Context(), tenantID, req.SuggestionID, req.PrimaryID); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "merged"})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		SuggestionID string `json:"suggestion_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SuggestionID == "" {
		writeError(w, http.StatusBadRequest, "suggestion_id is required")
		return
	}

	if err := s.suggestions.DismissSuggestion(r.Context(), tenantID, req.SuggestionID); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

// allowDetect applies the per-tenant detection rate limit.
func (s *Server) allowDetect(tenantID string) bool {
	if s.detectRate <= 0 {
		return true
	}
	s.mu.Lock()
	lim, ok := s.limiters[tenantID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(s.detectRate/60), 1)
		s.limiters[tenantID] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}

// writeFailure maps the dedupe error taxonomy onto HTTP status codes.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dedupe.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dedupe.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dedupe.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dedupe.ErrGenerationInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func tenantFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, tenantHeader+" header is required")
		return "", false
	}
	return tenantID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
