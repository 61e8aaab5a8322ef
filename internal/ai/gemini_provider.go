package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

const modelCheckTimeout = 10 * time.Second

// models is the part of genai.Models the provider calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiProvider implements Provider for Google Gemini. One provider serves
// one operation so that each has its own model, timeout and breaker.
type GeminiProvider struct {
	models       models
	operation    config.Operation
	config       config.OperationAIConfig
	prompts      *Prompts
	breaker      *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker *CircuitBreaker[*ModelInfo]
	recorder     Recorder
	tracer       trace.Tracer
	logger       *apperrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a provider for one operation. cfg must have its
// defaults applied (see config.GetOperationConfig).
func NewGeminiProvider(ctx context.Context, op config.Operation, cfg config.OperationAIConfig, prompts *Prompts, recorder Recorder, logger *apperrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.NewGenerationError(apperrors.ErrCodeAIServiceFailed, "failed to create Gemini client", err)
	}
	return newGeminiProvider(client.Models, op, cfg, prompts, recorder, logger), nil
}

func newGeminiProvider(m models, op config.Operation, cfg config.OperationAIConfig, prompts *Prompts, recorder Recorder, logger *apperrors.Logger) *GeminiProvider {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	return &GeminiProvider{
		models:       m,
		operation:    op,
		config:       cfg,
		prompts:      prompts,
		breaker:      NewCircuitBreaker[*genai.GenerateContentResponse](string(op), cfg.CircuitBreaker, logger),
		modelBreaker: NewModelCircuitBreaker(string(op), cfg.CircuitBreaker, logger),
		recorder:     recorder,
		tracer:       otel.Tracer("nexa.ai.gemini"),
		logger:       logger,
	}
}

// Generate sends one prompt and returns the model's raw text. There are no
// retries. Failures are generation errors whose context carries the upstream
// status and body when there was a response.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "gemini.generate", trace.WithAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.operation", string(g.operation)),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("ai.prompt_length", len(prompt)),
	))
	defer span.End()

	if timeout := g.timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	genCfg := g.generateConfig()
	start := time.Now()
	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), genCfg)
	})
	duration := time.Since(start)
	usage := extractTokenUsage(result)

	var text string
	if err == nil {
		text = result.Text()
		if strings.TrimSpace(text) == "" {
			err = malformedEnvelope(result)
		}
	} else {
		err = classifyError(err)
	}

	if g.recorder != nil {
		g.recorder.RecordAIRequest(ctx, string(g.operation), g.config.Model, duration, usage, err)
	}
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.LogError(err, "Gemini generation failed",
			"operation", g.operation,
			"model", g.config.Model,
			"duration", duration)
		return "", err
	}

	span.SetAttributes(attribute.Int("ai.response_length", len(text)))
	g.logger.Debug("Gemini generation succeeded",
		"operation", g.operation,
		"model", g.config.Model,
		"duration", duration,
		"response_preview", preview(text, 120))
	return text, nil
}

func (g *GeminiProvider) timeout() time.Duration {
	if g.config.Timeout == nil {
		return 0
	}
	return *g.config.Timeout
}

func (g *GeminiProvider) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if g.config.Temperature != nil && *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	if g.config.JSONMode != nil && *g.config.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if g.config.UseSystemPrompts != nil && *g.config.UseSystemPrompts {
		if system := g.prompts.System(g.operation); system != "" {
			cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}
	}
	return cfg
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	info, err := g.modelBreaker.Execute(func() (*ModelInfo, error) {
		model, err := g.models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
		if err != nil {
			return nil, err
		}
		return &ModelInfo{
			Name:        g.config.Model,
			DisplayName: model.DisplayName,
			Version:     model.Version,
			Available:   true,
		}, nil
	})
	if err != nil {
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return &ModelInfo{Name: g.config.Model, Error: fmt.Sprintf("failed to get model info: %v", err)}
	}
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.breaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.breaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close releases nothing today; the genai client holds no connections
// outside of a request.
func (g *GeminiProvider) Close() error {
	return nil
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

func malformedEnvelope(result *genai.GenerateContentResponse) *apperrors.AppError {
	appErr := apperrors.NewGenerationError(apperrors.ErrCodeAIMalformedOutput, "model response contained no text", nil).
		WithContext("retryable", false)
	if result == nil {
		return appErr
	}
	if len(result.Candidates) > 0 && result.Candidates[0] != nil {
		appErr = appErr.WithContext("finish_reason", string(result.Candidates[0].FinishReason))
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		appErr = appErr.WithContext("block_reason", string(result.PromptFeedback.BlockReason))
	}
	return appErr
}

// classifyError maps a transport or upstream failure to a generation error.
func classifyError(err error) *apperrors.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewGenerationError(apperrors.ErrCodeAICircuitOpen, "model calls are suspended after repeated failures", err).
			WithContext("retryable", true)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewGenerationError(apperrors.ErrCodeAITimeout, "text generation timed out", err).
			WithContext("retryable", true)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewGenerationError(apperrors.ErrCodeAITimeout, "text generation was cancelled", err).
			WithContext("retryable", false)
	}
	if status, body, ok := upstreamStatus(err); ok {
		return apperrors.NewGenerationError(apperrors.ErrCodeAIUpstreamStatus,
			fmt.Sprintf("model API returned status %d", status), err).
			WithContext("status", status).
			WithContext("body", preview(body, 512)).
			WithContext("retryable", retryableStatus(status))
	}
	return apperrors.NewGenerationError(apperrors.ErrCodeAIServiceFailed, "text generation failed", err).
		WithContext("retryable", isRetryable(err))
}

// upstreamStatus extracts the HTTP status and body from either client error type
func upstreamStatus(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		body := gErr.Body
		if body == "" {
			body = gErr.Message
		}
		return gErr.Code, body, true
	}
	return 0, "", false
}

// isRetryable reports whether a later identical call could succeed
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if status, _, ok := upstreamStatus(err); ok {
		return retryableStatus(status)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// preview shortens s for log and error context
func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so the cut never splits a character
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
