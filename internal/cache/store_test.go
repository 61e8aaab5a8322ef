package cache_test

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanishka82/nexa-app/internal/cache"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/schema"
	"github.com/Tanishka82/nexa-app/internal/storage"
	"github.com/Tanishka82/nexa-app/internal/storage/storagetest"
	"github.com/Tanishka82/nexa-app/internal/structured"
	"github.com/Tanishka82/nexa-app/internal/types"
)

const insightOutput = "```json\n{\"growthRate\": 7.5, \"demandLevel\": \"high\", \"topSkills\": [\"Go\",\"Rust\"]}\n```"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingGenerator struct {
	calls  atomic.Int32
	output atomic.Value
}

func newCountingGenerator(output string) *countingGenerator {
	g := &countingGenerator{}
	g.output.Store(output)
	return g
}

func (g *countingGenerator) Generate(context.Context, string) (string, error) {
	g.calls.Add(1)
	return g.output.Load().(string), nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) RecordCacheEvent(_ context.Context, _ string, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, outcome)
}

func newStore(t *testing.T, c *clock, opts ...cache.Option) (*cache.Store, *storage.CacheRepo) {
	t.Helper()
	repo := storage.NewCacheRepo(storagetest.SQLite(t))
	opts = append([]cache.Option{cache.WithClock(c.Now)}, opts...)
	return cache.NewStore(repo, apperrors.NewNopLogger(), opts...), repo
}

func insightProducer(gen structured.Generator) cache.GenerateFunc {
	return structured.Producer(gen, "industry insight for tech", schema.IndustryInsight)
}

func TestGetOrCreateTechExample(t *testing.T) {
	c := &clock{now: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)}
	store, _ := newStore(t, c)
	gen := newCountingGenerator(insightOutput)

	row, err := store.GetOrCreate(context.Background(), "industry", "tech", insightProducer(gen))
	require.NoError(t, err)

	assert.Equal(t, "tech", row.Key)
	assert.False(t, row.Degenerate)
	assert.True(t, row.GeneratedAt.Equal(c.Now()))
	assert.Equal(t, 7*24*time.Hour, row.ExpiresAt.Sub(row.GeneratedAt))

	insight, err := cache.Decode[types.IndustryInsight](row)
	require.NoError(t, err)
	assert.Equal(t, "HIGH", insight.DemandLevel)
	assert.Equal(t, []string{"Go", "Rust"}, insight.TopSkills)
	assert.Equal(t, 7.5, insight.GrowthRate)

	// The stored row, read back from the database, carries the same values.
	stored, err := store.Entry(context.Background(), "industry", "tech")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.ExpiresAt.Equal(c.Now().Add(7*24*time.Hour)))
	assert.JSONEq(t, `{"growthRate":7.5,"demandLevel":"HIGH","topSkills":["Go","Rust"]}`, string(stored.Payload))
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	rec := &recorder{}
	store, _ := newStore(t, c, cache.WithRecorder(rec))
	gen := newCountingGenerator(insightOutput)

	first, err := store.GetOrCreate(context.Background(), "industry", "tech", insightProducer(gen))
	require.NoError(t, err)

	c.Advance(time.Hour)
	second, err := store.GetOrCreate(context.Background(), "industry", "tech", insightProducer(gen))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, string(first.Payload), string(second.Payload))
	assert.EqualValues(t, 1, gen.calls.Load())
	assert.Equal(t, []string{cache.OutcomeMiss, cache.OutcomeHit}, rec.events)
}

func TestGetOrCreateConcurrentMissWritesOneRow(t *testing.T) {
	const callers = 12

	c := &clock{now: time.Now().UTC()}
	rec := &recorder{}
	store, repo := newStore(t, c, cache.WithRecorder(rec))

	// Hold every generator until all callers have missed, so that all of
	// them race on the insert.
	var arrived sync.WaitGroup
	arrived.Add(callers)
	release := make(chan struct{})
	go func() {
		arrived.Wait()
		close(release)
	}()

	var generated atomic.Int32
	gen := structured.GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		generated.Add(1)
		arrived.Done()
		<-release
		return insightOutput, nil
	})

	rows := make([]*storage.CachedInsight, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows[i], errs[i] = store.GetOrCreate(context.Background(), "industry", "tech", insightProducer(gen))
		}(i)
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, rows[0].ID, rows[i].ID, "caller %d saw a different row", i)
	}
	assert.EqualValues(t, callers, generated.Load())

	n, err := repo.Count(context.Background(), "industry")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	conflicts := 0
	for _, e := range rec.events {
		if e == cache.OutcomeConflict {
			conflicts++
		}
	}
	assert.Equal(t, callers-1, conflicts)
}

func TestGetOrCreateHealsDegenerateRow(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	store, repo := newStore(t, c)
	ctx := context.Background()

	bad := &storage.CachedInsight{
		Namespace:   "industry",
		Key:         "tech",
		Payload:     []byte(`{"growthRate":1,"demandLevel":"LOW","topSkills":[],"salaryRanges":[]}`),
		Degenerate:  true,
		GeneratedAt: c.Now(),
		ExpiresAt:   c.Now().Add(cache.DefaultTTL),
	}
	require.NoError(t, repo.Insert(ctx, bad))

	gen := newCountingGenerator(insightOutput)
	row, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(gen))
	require.NoError(t, err)

	assert.NotEqual(t, bad.ID, row.ID)
	assert.False(t, row.Degenerate)
	assert.EqualValues(t, 1, gen.calls.Load())

	n, err := repo.Count(ctx, "industry")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetOrCreateRegeneratesExpiredRow(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	store, _ := newStore(t, c)
	ctx := context.Background()
	gen := newCountingGenerator(insightOutput)

	first, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(gen))
	require.NoError(t, err)

	c.Advance(cache.DefaultTTL)
	gen.output.Store(`{"growthRate": 9, "demandLevel": "medium", "topSkills": ["Zig"]}`)

	second, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(gen))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.GeneratedAt.Equal(c.Now()))
	assert.EqualValues(t, 2, gen.calls.Load())

	insight, err := cache.Decode[types.IndustryInsight](second)
	require.NoError(t, err)
	assert.Equal(t, "MEDIUM", insight.DemandLevel)
}

func TestGetOrCreateDegenerateGenerationIsNotCached(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	store, _ := newStore(t, c)
	ctx := context.Background()
	gen := newCountingGenerator(`{"growthRate": 3, "demandLevel": "low", "topSkills": []}`)

	row, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(gen))
	require.NoError(t, err)
	assert.True(t, row.Degenerate)
	assert.True(t, row.ExpiresAt.Equal(row.GeneratedAt))

	gen.output.Store(insightOutput)
	healed, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(gen))
	require.NoError(t, err)
	assert.False(t, healed.Degenerate)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestGetOrCreateFailureLeavesNoRow(t *testing.T) {
	tests := []struct {
		name  string
		gen   structured.Generator
		cause apperrors.ErrorType
	}{
		{
			name: "generation",
			gen: structured.GeneratorFunc(func(context.Context, string) (string, error) {
				return "", apperrors.NewGenerationError(apperrors.ErrCodeAIUpstreamStatus, "upstream returned 500", nil)
			}),
			cause: apperrors.ErrorTypeGeneration,
		},
		{
			name:  "extraction",
			gen:   newCountingGenerator("I'm not able to provide market data."),
			cause: apperrors.ErrorTypeExtraction,
		},
		{
			name:  "validation",
			gen:   newCountingGenerator(`{"growthRate": 7.5, "demandLevel": "booming", "topSkills": ["Go"]}`),
			cause: apperrors.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{now: time.Now().UTC()}
			store, repo := newStore(t, c)
			ctx := context.Background()

			row, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(tt.gen))
			require.Error(t, err)
			assert.Nil(t, row)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeCache, appErr.Type)
			assert.True(t, apperrors.HasType(err, tt.cause))

			stored, err := repo.Find(ctx, "industry", "tech")
			require.NoError(t, err)
			assert.Nil(t, stored)
		})
	}
}

func TestGetOrCreateTimeoutLeavesNoRow(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	store, repo := newStore(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	slow := structured.GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(slow))
	require.Error(t, err)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeGeneration))

	stored, err := repo.Find(context.Background(), "industry", "tech")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestGetOrCreateHealFailureDoesNotResurrect(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	store, repo := newStore(t, c)
	ctx := context.Background()

	stale := &storage.CachedInsight{
		Namespace:   "industry",
		Key:         "tech",
		Payload:     []byte(`{"growthRate":1,"demandLevel":"LOW","topSkills":[]}`),
		Degenerate:  true,
		GeneratedAt: c.Now(),
		ExpiresAt:   c.Now(),
	}
	require.NoError(t, repo.Insert(ctx, stale))

	failing := structured.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", stderrors.New("model unavailable")
	})
	_, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(failing))
	require.Error(t, err)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeCache))

	stored, err := repo.Find(ctx, "industry", "tech")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestInvalidate(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	store, _ := newStore(t, c)
	ctx := context.Background()
	gen := newCountingGenerator(insightOutput)

	_, err := store.GetOrCreate(ctx, "industry", "tech", insightProducer(gen))
	require.NoError(t, err)

	deleted, err := store.Invalidate(ctx, "industry", "tech")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.GetOrCreate(ctx, "industry", "tech", insightProducer(gen))
	require.NoError(t, err)
	assert.EqualValues(t, 2, gen.calls.Load())
}

// failingRepo fails every call with the same error.
type failingRepo struct{ err error }

func (r failingRepo) Find(context.Context, string, string) (*storage.CachedInsight, error) {
	return nil, r.err
}
func (r failingRepo) Insert(context.Context, *storage.CachedInsight) error { return r.err }
func (r failingRepo) DeleteByID(context.Context, uuid.UUID) (bool, error) { return false, r.err }
func (r failingRepo) DeleteByKey(context.Context, string, string) (bool, error) {
	return false, r.err
}

func TestGetOrCreateStorageFailure(t *testing.T) {
	store := cache.NewStore(failingRepo{err: apperrors.NewStorageError(apperrors.ErrCodeDatabase, "db down", nil)}, nil)
	gen := newCountingGenerator(insightOutput)

	_, err := store.GetOrCreate(context.Background(), "industry", "tech", insightProducer(gen))
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeCacheLookup, appErr.Code)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeStorage))
	assert.EqualValues(t, 0, gen.calls.Load())
}

func TestGetOrCreatePostgresConcurrency(t *testing.T) {
	const callers = 8

	db := storagetest.Postgres(t)
	repo := storage.NewCacheRepo(db)
	store := cache.NewStore(repo, nil)
	gen := newCountingGenerator(insightOutput)

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row, err := store.GetOrCreate(context.Background(), "industry", "pg-race", insightProducer(gen))
			if assert.NoError(t, err) {
				ids[i] = row.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range callers {
		assert.Equal(t, ids[0], ids[i])
	}
	n, err := repo.Count(context.Background(), "industry")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
