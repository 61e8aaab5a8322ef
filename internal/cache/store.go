// Package cache implements get-or-create over persisted generations.
//
// Each (namespace, key) has at most one stored row. A fresh, non-degenerate
// row is returned as is. An expired or degenerate row is deleted and
// regenerated. When several callers miss at once, every one of them
// generates, the database's unique index lets exactly one insert through,
// and the others read back and return the winner. No in-process locking is
// involved, so the same holds across processes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/schema"
	"github.com/Tanishka82/nexa-app/internal/storage"
)

// DefaultTTL is the refresh interval of a generated entry.
const DefaultTTL = 7 * 24 * time.Hour

// Lookup outcomes, reported to the Recorder and on spans.
const (
	OutcomeHit        = "hit"
	OutcomeMiss       = "miss"
	OutcomeStale      = "stale"
	OutcomeDegenerate = "degenerate"
	OutcomeConflict   = "conflict"
	OutcomeFailure    = "failure"
)

// Repository is the persistence the store needs.
type Repository interface {
	Find(ctx context.Context, namespace, key string) (*storage.CachedInsight, error)
	Insert(ctx context.Context, row *storage.CachedInsight) error
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByKey(ctx context.Context, namespace, key string) (bool, error)
}

// Recorder receives one event per lookup outcome.
type Recorder interface {
	RecordCacheEvent(ctx context.Context, namespace, outcome string)
}

// GenerateFunc produces a validated payload on a miss.
type GenerateFunc func(ctx context.Context) (schema.Result, error)

// Store is safe for concurrent use.
type Store struct {
	repo     Repository
	ttl      time.Duration
	now      func() time.Time
	logger   *apperrors.Logger
	recorder Recorder
	tracer   trace.Tracer
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now. Timestamps are always stored in UTC with
// microsecond precision so that they survive a database round trip.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

func NewStore(repo Repository, logger *apperrors.Logger, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger,
		tracer: otel.Tracer("nexa.cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = apperrors.NewNopLogger()
	}
	return s
}

// TTL returns the configured refresh interval.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// GetOrCreate returns the canonical row for (namespace, key), generating it
// when absent, expired or degenerate. Every failure is a cache error whose
// cause is the generation, extraction, validation or storage error.
//
// A generated payload flagged degenerate is stored with ExpiresAt equal to
// GeneratedAt and returned; the next call treats it as a miss.
func (s *Store) GetOrCreate(ctx context.Context, namespace, key string, generate GenerateFunc) (*storage.CachedInsight, error) {
	ctx, span := s.tracer.Start(ctx, "cache.get_or_create", trace.WithAttributes(
		attribute.String("cache.namespace", namespace),
		attribute.String("cache.key", key),
	))
	defer span.End()

	row, outcome, err := s.getOrCreate(ctx, namespace, key, generate)
	span.SetAttributes(attribute.String("cache.outcome", outcome))
	s.record(ctx, namespace, outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.LogError(err, "Cache get-or-create failed", "namespace", namespace, "key", key)
		return nil, err
	}
	return row, nil
}

func (s *Store) getOrCreate(ctx context.Context, namespace, key string, generate GenerateFunc) (*storage.CachedInsight, string, error) {
	existing, err := s.repo.Find(ctx, namespace, key)
	if err != nil {
		return nil, OutcomeFailure, s.fail(apperrors.ErrCodeCacheLookup, "failed to look up cached entry", err, namespace, key)
	}

	outcome := OutcomeMiss
	if existing != nil {
		now := s.timestamp()
		switch {
		case existing.Degenerate:
			outcome = OutcomeDegenerate
		case existing.Expired(now):
			outcome = OutcomeStale
		default:
			return existing, OutcomeHit, nil
		}

		if _, err := s.repo.DeleteByID(ctx, existing.ID); err != nil {
			return nil, OutcomeFailure, s.fail(apperrors.ErrCodeCacheHeal, "failed to delete stale entry", err, namespace, key)
		}
		s.logger.Info("Self-healing cached entry",
			"namespace", namespace,
			"key", key,
			"reason", outcome,
			"generated_at", existing.GeneratedAt,
			"expires_at", existing.ExpiresAt)
	}

	result, err := generate(ctx)
	if err != nil {
		return nil, OutcomeFailure, s.fail(apperrors.ErrCodeCacheGenerate, "failed to generate entry", err, namespace, key).
			WithContext("previous_outcome", outcome)
	}

	payload, err := json.Marshal(result.Value)
	if err != nil {
		return nil, OutcomeFailure, s.fail(apperrors.ErrCodeCacheBadPayload, "generated payload is not serializable", err, namespace, key)
	}

	generatedAt := s.timestamp()
	expiresAt := generatedAt.Add(s.ttl)
	if result.Degenerate {
		expiresAt = generatedAt
		s.logger.Warn("Generated payload is degenerate",
			"namespace", namespace,
			"key", key,
			"fields", result.DegenerateFields)
	}

	row := &storage.CachedInsight{
		ID:          uuid.New(),
		Namespace:   namespace,
		Key:         key,
		Payload:     payload,
		Degenerate:  result.Degenerate,
		GeneratedAt: generatedAt,
		ExpiresAt:   expiresAt,
	}

	err = s.repo.Insert(ctx, row)
	if errors.Is(err, storage.ErrConflict) {
		winner, findErr := s.repo.Find(ctx, namespace, key)
		if findErr != nil {
			return nil, OutcomeFailure, s.fail(apperrors.ErrCodeCacheLookup, "failed to read conflicting entry", findErr, namespace, key)
		}
		if winner == nil {
			return nil, OutcomeFailure, s.fail(apperrors.ErrCodeCacheResolve, "conflicting entry disappeared before it could be read", err, namespace, key)
		}
		s.logger.Debug("Lost insert race, returning winner",
			"namespace", namespace,
			"key", key,
			"winner_id", winner.ID.String())
		return winner, OutcomeConflict, nil
	}
	if err != nil {
		return nil, OutcomeFailure, s.fail(apperrors.ErrCodeCacheInsert, "failed to store generated entry", err, namespace, key)
	}

	return row, outcome, nil
}

// Entry reads the stored row without generating. It returns nil when there
// is none; stale rows are returned as they are.
func (s *Store) Entry(ctx context.Context, namespace, key string) (*storage.CachedInsight, error) {
	row, err := s.repo.Find(ctx, namespace, key)
	if err != nil {
		return nil, s.fail(apperrors.ErrCodeCacheLookup, "failed to look up cached entry", err, namespace, key)
	}
	return row, nil
}

// Invalidate deletes the row so that the next GetOrCreate regenerates it.
func (s *Store) Invalidate(ctx context.Context, namespace, key string) (bool, error) {
	deleted, err := s.repo.DeleteByKey(ctx, namespace, key)
	if err != nil {
		return false, s.fail(apperrors.ErrCodeCacheHeal, "failed to invalidate cached entry", err, namespace, key)
	}
	if deleted {
		s.logger.Info("Invalidated cached entry", "namespace", namespace, "key", key)
	}
	return deleted, nil
}

func (s *Store) fail(code, message string, cause error, namespace, key string) *apperrors.AppError {
	return apperrors.NewCacheError(code, message, cause).
		WithContext("namespace", namespace).
		WithContext("key", key)
}

func (s *Store) record(ctx context.Context, namespace, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordCacheEvent(ctx, namespace, outcome)
	}
}

// Decode unmarshals a row's payload into T.
func Decode[T any](row *storage.CachedInsight) (T, error) {
	var out T
	if row == nil {
		return out, apperrors.NewInternalError(apperrors.ErrCodeCacheBadPayload, "no cached entry to decode", nil)
	}
	if err := json.Unmarshal(row.Payload, &out); err != nil {
		return out, apperrors.NewCacheError(apperrors.ErrCodeCacheBadPayload, "stored payload does not match its type", err).
			WithContext("namespace", row.Namespace).
			WithContext("key", row.Key)
	}
	return out, nil
}
