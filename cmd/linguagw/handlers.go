package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	linguagw "github.com/lingua-labs/lingua-gateway"
	"github.com/lingua-labs/lingua-gateway/internal/glossary"
	"github.com/lingua-labs/lingua-gateway/internal/logging"
	"github.com/lingua-labs/lingua-gateway/internal/metrics"
	"github.com/lingua-labs/lingua-gateway/internal/ratelimit"
	"github.com/lingua-labs/lingua-gateway/internal/version"
	"github.com/lingua-labs/lingua-gateway/providers"
)

// server bundles the HTTP handler dependencies.
type server struct {
	svc      *linguagw.Service
	cfg      linguagw.Config
	registry *providers.Registry
	limiter  *ratelimit.Store
	log      *slog.Logger
}

// routes builds the HTTP router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(corsMiddleware(s.cfg.Server.CORSOrigins...))

	r.Get("/", s.handleWelcome)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/models", s.handleModels)

	// Read-only store endpoints: no auth, no rate limit.
	r.Get("/glossary", s.handleListGlossaries)
	r.Get("/glossary/{id}", s.handleGetGlossary)
	r.Get("/translation_memory/stats", s.handleMemoryStats)

	// Endpoints that mutate state or spend collaborator tokens.
	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.rateLimitMiddleware)
		}
		r.Use(s.authMiddleware)

		r.Post("/translate_free", s.handleTranslate(linguagw.TierFree))
		r.Post("/translate_pro", s.handleTranslate(linguagw.TierPro))
		r.Post("/translate_batch_free", s.handleBatch(linguagw.TierFree))
		r.Post("/translate_batch_pro", s.handleBatch(linguagw.TierPro))
		r.Post("/glossary", s.handleCreateGlossary)
		r.Post("/detect_language", s.handleDetect)
		r.Delete("/translation_memory/clear", s.handleMemoryClear)
	})

	return r
}

func (s *server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "LinguaGateway translation service",
		"version": version.Short(),
		"endpoints": []string{
			"/translate_free", "/translate_pro",
			"/translate_batch_free", "/translate_batch_pro",
			"/glossary", "/detect_language",
			"/translation_memory/stats", "/health",
		},
	})
}

// handleHealth always answers 200; degradation lives in the payload.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Health(r.Context()))
}

func (s *server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": s.registry.AllModels(),
	})
}

func (s *server) handleTranslate(tier linguagw.Tier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linguagw.TranslateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		res, err := s.svc.Translate(r.Context(), tier, req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *server) handleBatch(tier linguagw.Tier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linguagw.BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		res, err := s.svc.TranslateBatch(r.Context(), tier, req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type createGlossaryRequest struct {
	Name    string           `json:"name"`
	Entries []glossary.Entry `json:"entries"`
}

func (s *server) handleCreateGlossary(w http.ResponseWriter, r *http.Request) {
	var req createGlossaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	id, err := s.svc.CreateGlossary(req.Name, req.Entries)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"glossary_id": id})
}

func (s *server) handleListGlossaries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"glossaries": s.svc.ListGlossaries()})
}

func (s *server) handleGetGlossary(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.GetGlossary(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type detectRequest struct {
	Text string `json:"text"`
}

func (s *server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	code, err := s.svc.DetectLanguage(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"text":              req.Text,
		"detected_language": code,
	})
}

func (s *server) handleMemoryStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.MemoryStats())
}

func (s *server) handleMemoryClear(w http.ResponseWriter, _ *http.Request) {
	s.svc.ClearMemory()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// rateLimitMiddleware applies the per-IP token bucket.
func (s *server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(ratelimit.ClientKey(r)) {
			metrics.RateLimitRejections.Inc()
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError maps service errors to HTTP statuses.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case linguagw.IsValidation(err):
		status = http.StatusBadRequest
	case linguagw.IsNotFound(err):
		status = http.StatusNotFound
	case linguagw.IsUpstream(err):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		logging.FromContext(r.Context()).Error("request failed", "status", status, "error", err)
	}
	writeErrorMessage(w, status, err.Error())
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
