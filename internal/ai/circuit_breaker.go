package ai

import (
	"fmt"

	"github.com/sony/gobreaker/v2"

	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// CircuitBreaker wraps calls of one result type. A nil breaker executes
// calls directly.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewCircuitBreaker returns nil when the breaker is disabled. Only failures
// that are worth retrying count against the breaker; a rejected prompt or a
// bad key says nothing about upstream health.
func NewCircuitBreaker[T any](name string, cfg config.CircuitBreakerConfig, logger *apperrors.Logger) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}
	return newBreaker[T](name, cfg, func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
	}, logger)
}

// NewModelCircuitBreaker guards model metadata lookups, which are less
// critical and trip later.
func NewModelCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *apperrors.Logger) *CircuitBreaker[*ModelInfo] {
	if !cfg.Enabled {
		return nil
	}
	return newBreaker[*ModelInfo](name+"-model", cfg, func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 5 && failureRatio >= 0.8
	}, logger)
}

func newBreaker[T any](name string, cfg config.CircuitBreakerConfig, readyToTrip func(gobreaker.Counts) bool, logger *apperrors.Logger) *CircuitBreaker[T] {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
		IsSuccessful: func(err error) bool {
			return err == nil || !isRetryable(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker.
func (b *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (b *CircuitBreaker[T]) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed. A disabled breaker is healthy.
func (b *CircuitBreaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
