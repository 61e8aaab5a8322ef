package ai

import (
	"context"
	"fmt"

	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// Service holds one provider per operation
type Service struct {
	providers map[config.Operation]Provider
	prompts   *Prompts
	logger    *apperrors.Logger
}

// NewService creates a provider for every operation from its resolved
// configuration. The prompt store may be nil.
func NewService(ctx context.Context, cfg *config.Config, store *config.PromptStore, recorder Recorder, logger *apperrors.Logger) (*Service, error) {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	prompts := NewPrompts(store)
	providers := make(map[config.Operation]Provider, len(config.Operations()))

	for _, op := range config.Operations() {
		opCfg := cfg.GetOperationConfig(op)
		provider, err := NewProvider(ctx, op, opCfg, prompts, recorder, logger)
		if err != nil {
			for _, p := range providers {
				_ = p.Close()
			}
			return nil, err
		}
		logger.Debug("Initialized AI provider",
			"operation", op,
			"provider", opCfg.Provider,
			"model", opCfg.Model,
			"timeout", *opCfg.Timeout,
			"temperature", *opCfg.Temperature,
			"json_mode", *opCfg.JSONMode,
			"use_system_prompts", *opCfg.UseSystemPrompts,
			"circuit_breaker", opCfg.CircuitBreaker.Enabled)
		providers[op] = provider
	}

	return &Service{providers: providers, prompts: prompts, logger: logger}, nil
}

// NewServiceWithProviders builds a service around existing providers.
func NewServiceWithProviders(providers map[config.Operation]Provider, prompts *Prompts, logger *apperrors.Logger) *Service {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	return &Service{providers: providers, prompts: prompts, logger: logger}
}

// NewProvider creates the provider named by cfg.Provider.
func NewProvider(ctx context.Context, op config.Operation, cfg config.OperationAIConfig, prompts *Prompts, recorder Recorder, logger *apperrors.Logger) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, op, cfg, prompts, recorder, logger)
	default:
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil).
			WithContext("operation", string(op))
	}
}

// Provider returns the provider for op. An operation without one gets a
// provider that always fails, so callers see a generation error instead of
// a nil dereference.
func (s *Service) Provider(op config.Operation) Provider {
	if p, ok := s.providers[op]; ok && p != nil {
		return p
	}
	return missingProvider{op: op}
}

func (s *Service) Prompts() *Prompts {
	return s.prompts
}

// GetModelInfo returns model availability per operation for health checks
func (s *Service) GetModelInfo(ctx context.Context) map[string]*ModelInfo {
	out := make(map[string]*ModelInfo, len(s.providers))
	for op, p := range s.providers {
		out[string(op)] = p.GetModelInfo(ctx)
	}
	return out
}

// CircuitBreakerStats collects breaker statistics from providers that have them
func (s *Service) CircuitBreakerStats() map[string]any {
	out := make(map[string]any, len(s.providers))
	for op, p := range s.providers {
		if g, ok := p.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
			out[string(op)] = g.GetCircuitBreakerStats()
		}
	}
	return out
}

func (s *Service) Close() error {
	var firstErr error
	for op, p := range s.providers {
		if err := p.Close(); err != nil {
			s.logger.LogError(err, "Failed to close AI provider", "operation", op)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

type missingProvider struct {
	op config.Operation
}

func (m missingProvider) Generate(context.Context, string) (string, error) {
	return "", apperrors.NewGenerationError(apperrors.ErrCodeAIServiceFailed,
		fmt.Sprintf("no AI provider configured for %s", m.op), nil)
}

func (m missingProvider) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Error: fmt.Sprintf("no AI provider configured for %s", m.op)}
}

func (m missingProvider) Close() error { return nil }
