package server

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tanishka82/nexa-app/internal/observability"
)

type ownerKey struct{}

// Routes builds the HTTP handler with all routes and middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(s.Observability.HTTPMiddleware())
	r.Use(observability.RequestAttributes)

	r.Get("/health", s.healthHandler)
	r.Get("/stats", s.statsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Use(s.authMiddleware)
		r.Use(s.requestSizeLimitMiddleware)

		// Shared, owner-independent results
		r.Get("/insights/{industry}", s.getInsightHandler)
		r.Delete("/insights/{industry}", s.invalidateInsightHandler)
		r.Post("/extract", s.extractHandler)
		r.Post("/resume/analyze", s.analyzeResumeHandler)

		r.Group(func(r chi.Router) {
			r.Use(ownerMiddleware)

			r.Put("/profile", s.onboardHandler)
			r.Get("/profile", s.getProfileHandler)

			r.Post("/quiz", s.generateQuizHandler)
			r.Post("/quiz/results", s.saveQuizHandler)

			r.Post("/interview", s.generateInterviewHandler)
			r.Post("/interview/evaluate", s.evaluateAnswerHandler)
			r.Post("/interview/results", s.saveInterviewHandler)

			r.Get("/assessments", s.listAssessmentsHandler)
			r.Get("/assessments/stats", s.assessmentStatsHandler)

			r.Put("/resume", s.saveResumeHandler)
			r.Get("/resume", s.getResumeHandler)
			r.Post("/resume/improve", s.improveTextHandler)

			r.Post("/cover-letters", s.generateCoverLetterHandler)
			r.Get("/cover-letters", s.listCoverLettersHandler)
			r.Get("/cover-letters/{id}", s.getCoverLetterHandler)
			r.Delete("/cover-letters/{id}", s.deleteCoverLetterHandler)
		})
	})

	return r
}

// APIKeySet is the set of accepted API keys. It is replaced wholesale when
// keys rotate in Vault.
type APIKeySet struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func NewAPIKeySet(keys []string) *APIKeySet {
	set := &APIKeySet{}
	set.Replace(keys)
	return set
}

// Replace swaps in a new key list. Empty entries are ignored.
func (a *APIKeySet) Replace(keys []string) {
	m := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			m[key] = true
		}
	}
	a.mu.Lock()
	a.keys = m
	a.mu.Unlock()
}

func (a *APIKeySet) Contains(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.keys[key]
}

func (a *APIKeySet) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys)
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if s.APIKeys.Len() == 0 {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys.Contains(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next.ServeHTTP(w, r)
	})
}

// requestAPIKey reads X-API-Key, falling back to a Bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// ownerMiddleware requires the X-Owner-ID header set by the upstream
// identity provider and stores it on the request context.
func ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(observability.OwnerHeader))
		if owner == "" {
			writeErrorResponse(w, "Missing owner", observability.OwnerHeader+" header is required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey{}).(string)
	return owner
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
