package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/cache"
	"github.com/Tanishka82/nexa-app/internal/coach"
	"github.com/Tanishka82/nexa-app/internal/config"
)

var (
	_ ai.Recorder           = (*ObservabilityManager)(nil)
	_ cache.Recorder        = (*ObservabilityManager)(nil)
	_ coach.SessionRecorder = (*ObservabilityManager)(nil)
)

// RecordAIRequest records one model call: count, duration, errors and
// token usage, each gated by the aiOperations switches.
func (om *ObservabilityManager) RecordAIRequest(ctx context.Context, operation, model string, duration time.Duration, usage *ai.TokenUsage, err error) {
	m := om.metrics
	if m == nil || m.AIRequestCount == nil || !om.aiMetricsEnabled() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("model", model),
		attribute.Bool("success", err == nil),
	}

	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if usage != nil {
		om.recordTokenUsage(ctx, usage, attrs)
	}
}

func (om *ObservabilityManager) aiMetricsEnabled() bool {
	if om.fullConfig == nil {
		return true
	}
	return om.fullConfig.Observability.CustomMetrics.AIOperations.Enabled
}

// recordTokenUsage records token metrics and annotates the current span
func (om *ObservabilityManager) recordTokenUsage(ctx context.Context, usage *ai.TokenUsage, attrs []attribute.KeyValue) {
	oteltrace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)

	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.AIOperations.TrackTokenUsage {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		tokenAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("token_type", tt.tokenType))
		om.metrics.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordCacheEvent counts a cache lookup by namespace and outcome. Stale and
// degenerate outcomes also count as self-heals.
func (om *ObservabilityManager) RecordCacheEvent(ctx context.Context, namespace, outcome string) {
	m := om.metrics
	if m == nil || m.CacheLookups == nil || !om.businessMetricsEnabled() {
		return
	}
	business := om.businessConfig()

	if business == nil || business.TrackCache {
		m.CacheLookups.Add(ctx, 1, metric.WithAttributes(
			attribute.String("namespace", namespace),
			attribute.String("outcome", outcome),
		))
	}

	healed := outcome == cache.OutcomeStale || outcome == cache.OutcomeDegenerate
	if healed && (business == nil || business.TrackSelfHeals) {
		m.CacheSelfHeals.Add(ctx, 1, metric.WithAttributes(
			attribute.String("namespace", namespace),
			attribute.String("reason", outcome),
		))
	}
}

// RecordSession counts a saved assessment and records its score.
func (om *ObservabilityManager) RecordSession(ctx context.Context, category string, score float64, tipGenerated bool) {
	m := om.metrics
	if m == nil || m.SessionsSaved == nil || !om.businessMetricsEnabled() {
		return
	}
	if business := om.businessConfig(); business != nil && !business.TrackSessions {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("category", category),
		attribute.Bool("tip", tipGenerated),
	)
	m.SessionsSaved.Add(ctx, 1, attrs)
	m.SessionScore.Record(ctx, score, metric.WithAttributes(attribute.String("category", category)))
}

// RecordRateLimitHit counts a request rejected by the limiter.
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, route string) {
	m := om.metrics
	if m == nil || m.RateLimitHits == nil {
		return
	}
	if om.fullConfig != nil {
		infra := om.fullConfig.Observability.CustomMetrics.Infrastructure
		if !infra.Enabled || !infra.TrackRateLimits {
			return
		}
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func (om *ObservabilityManager) businessMetricsEnabled() bool {
	if om.fullConfig == nil {
		return true
	}
	return om.fullConfig.Observability.CustomMetrics.BusinessMetrics.Enabled
}

func (om *ObservabilityManager) businessConfig() *config.BusinessMetricsConfig {
	if om.fullConfig == nil {
		return nil
	}
	return &om.fullConfig.Observability.CustomMetrics.BusinessMetrics
}
