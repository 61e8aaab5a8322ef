package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/storage"
)

func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		return s.AppConfig.Observability.HealthCheck.Timeout
	}
	return 15 * time.Second
}

// healthHandler reports database reachability, model availability and
// circuit breaker state. Any failing dependency makes the service degraded.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "nexa",
		"version": s.Version,
	}
	overallHealthy := true

	if s.DB != nil {
		dbStatus := map[string]any{"available": true}
		if err := storage.Ping(ctx, s.DB); err != nil {
			dbStatus["available"] = false
			dbStatus["error"] = err.Error()
			overallHealthy = false
		}
		response["database"] = dbStatus
	}

	if s.AI != nil {
		models := s.AI.GetModelInfo(ctx)
		for _, info := range models {
			if info != nil && !info.Available {
				overallHealthy = false
			}
		}
		response["ai_models"] = models

		breakers := s.AI.CircuitBreakerStats()
		for _, stats := range breakers {
			if m, ok := stats.(map[string]any); ok {
				if healthy, ok := m["overall_healthy"].(bool); ok && !healthy {
					overallHealthy = false
				}
			}
		}
		response["circuit_breakers"] = breakers
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "nexa",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.APIKeys.Len(),
		},
	}

	if s.Coach != nil {
		response["cache"] = map[string]any{
			"ttl": s.Coach.Cache().TTL().String(),
		}
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body into v, rejecting unknown fields
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest, "content-type must be application/json", err)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return apperrors.NewIOError(apperrors.ErrCodeFileNotReadable, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message})
}

// writeAppError maps an error to its HTTP status and writes it. Server-side
// failures are logged; client mistakes are not.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: http.StatusText(status), Message: err.Error()}

	if appErr, ok := apperrors.As(err); ok {
		resp.Code = appErr.Code
		resp.Message = appErr.Message
		if status < http.StatusInternalServerError {
			resp.Details = appErr.Context
		}
	}
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "method", r.Method, "path", r.URL.Path, "status", status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// statusFor picks the HTTP status for an error. An open circuit or a model
// timeout anywhere in the chain wins over the outer error type.
func statusFor(err error) int {
	if root := apperrors.RootCause(err); root != nil {
		switch root.Code {
		case apperrors.ErrCodeAICircuitOpen:
			return http.StatusServiceUnavailable
		case apperrors.ErrCodeAITimeout:
			return http.StatusGatewayTimeout
		}
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		if appErr.Code == apperrors.ErrCodeEmptySession {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeGeneration, apperrors.ErrorTypeExtraction, apperrors.ErrorTypeCache:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
