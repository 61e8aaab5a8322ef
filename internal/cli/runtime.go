package cli

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/cache"
	"github.com/Tanishka82/nexa-app/internal/coach"
	"github.com/Tanishka82/nexa-app/internal/config"
	"github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/observability"
	"github.com/Tanishka82/nexa-app/internal/storage"
	"github.com/Tanishka82/nexa-app/internal/structured"
)

// runtime holds everything a model-backed command needs
type runtime struct {
	cfg           *config.Config
	db            *gorm.DB
	ai            *ai.Service
	coach         *coach.Service
	observability *observability.ObservabilityManager
	promptWatcher *config.PromptWatcher
	logger        *errors.Logger
}

type runtimeOptions struct {
	observability bool // start exporters; one-shot commands leave them off
	watchPrompts  bool
}

// newRuntime resolves Vault secrets and builds storage, the AI providers,
// the generation cache and the coach service, in that order.
func newRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts runtimeOptions) (*runtime, error) {
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, err.Error(), nil)
	}

	rt := &runtime{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	obsConfig := observability.GetObservabilityConfig(cfg, Version)
	if !opts.observability {
		obsConfig.Enabled = false
	}
	om, err := observability.NewObservabilityManager(obsConfig, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	rt.observability = om

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	rt.db = db

	prompts, err := config.NewPromptStore(cfg)
	if err != nil {
		return nil, err
	}
	if opts.watchPrompts && cfg.Prompts.Watch {
		rt.promptWatcher = config.NewPromptWatcher(prompts, cfg.Prompts.DebounceDelay, func(err error) {
			if err != nil {
				logger.LogError(err, "Prompt reload failed, keeping previous prompts")
				return
			}
			logger.Info("Prompts reloaded")
		}, logger)
		if err := rt.promptWatcher.Start(); err != nil {
			return nil, fmt.Errorf("failed to start prompt watcher: %w", err)
		}
	}

	aiService, err := ai.NewService(ctx, cfg, prompts, om, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}
	rt.ai = aiService

	generators := make(map[config.Operation]structured.Generator, len(config.Operations()))
	for _, op := range config.Operations() {
		generators[op] = aiService.Provider(op)
	}

	rt.coach = coach.New(coach.Deps{
		Generators: generators,
		Prompts:    aiService.Prompts(),
		Cache: cache.NewStore(storage.NewCacheRepo(db), logger,
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithRecorder(om)),
		Assessments:  storage.NewAssessmentRepo(db),
		Profiles:     storage.NewProfileRepo(db),
		CoverLetters: storage.NewCoverLetterRepo(db),
		Recorder:     om,
		Logger:       logger,
	}, coach.WithEvaluation(cfg.Evaluation))

	ok = true
	return rt, nil
}

// Close releases resources in reverse order of creation
func (rt *runtime) Close() {
	if rt.ai != nil {
		_ = rt.ai.Close()
	}
	if rt.promptWatcher != nil {
		if err := rt.promptWatcher.Stop(); err != nil {
			rt.logger.LogError(err, "Failed to stop prompt watcher")
		}
	}
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if rt.observability != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.observability.Shutdown(ctx); err != nil {
			rt.logger.LogError(err, "Failed to shutdown observability")
		}
	}
}
