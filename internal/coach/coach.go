// Package coach implements the career-coach operations on top of the
// structured generation pipeline: cached industry insights and résumé
// analyses, quizzes, mock interviews, assessments and cover letters.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/cache"
	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/evaluation"
	"github.com/Tanishka82/nexa-app/internal/storage"
	"github.com/Tanishka82/nexa-app/internal/structured"
)

// Cache namespaces
const (
	NamespaceIndustry = "industry"
	NamespaceResume   = "resume"
)

// Question counts per session
const (
	QuizQuestionCount      = 10
	InterviewQuestionCount = 5
)

// SessionRecorder receives one event per saved assessment.
type SessionRecorder interface {
	RecordSession(ctx context.Context, category string, score float64, tipGenerated bool)
}

// Deps are the collaborators of a Service. Generators is keyed by
// operation; an operation without a generator fails with a generation error.
type Deps struct {
	Generators   map[config.Operation]structured.Generator
	Prompts      *ai.Prompts
	Cache        *cache.Store
	Assessments  *storage.AssessmentRepo
	Profiles     *storage.ProfileRepo
	CoverLetters *storage.CoverLetterRepo
	Recorder     SessionRecorder
	Logger       *apperrors.Logger
}

// Service is safe for concurrent use.
type Service struct {
	generators   map[config.Operation]structured.Generator
	prompts      *ai.Prompts
	cache        *cache.Store
	assessments  *storage.AssessmentRepo
	profiles     *storage.ProfileRepo
	coverLetters *storage.CoverLetterRepo
	tipThreshold float64
	scorer       *evaluation.Scorer
	recorder     SessionRecorder
	now          func() time.Time
	logger       *apperrors.Logger
}

type Option func(*Service)

// WithEvaluation sets the tip threshold in percent and the number of
// answers scored in parallel.
func WithEvaluation(cfg config.EvaluationConfig) Option {
	return func(s *Service) {
		if cfg.TipThreshold > 0 {
			s.tipThreshold = cfg.TipThreshold
		}
		s.scorer = evaluation.NewScorer(s.evaluateAnswer, cfg.Concurrency, s.logger)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		generators:   deps.Generators,
		prompts:      deps.Prompts,
		cache:        deps.Cache,
		assessments:  deps.Assessments,
		profiles:     deps.Profiles,
		coverLetters: deps.CoverLetters,
		recorder:     deps.Recorder,
		now:          time.Now,
		logger:       deps.Logger,
	}
	if s.logger == nil {
		s.logger = apperrors.NewNopLogger()
	}
	if s.generators == nil {
		s.generators = map[config.Operation]structured.Generator{}
	}

	WithEvaluation(config.EvaluationConfig{TipThreshold: evaluation.DefaultTipThreshold})(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) generator(op config.Operation) structured.Generator {
	if g, ok := s.generators[op]; ok && g != nil {
		return g
	}
	return structured.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", apperrors.NewGenerationError(apperrors.ErrCodeAIServiceFailed,
			fmt.Sprintf("no generator configured for %s", op), nil)
	})
}

// Cache exposes the store for administration.
func (s *Service) Cache() *cache.Store {
	return s.cache
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest, "owner is required", nil)
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s is required", name), nil).WithContext("field", name)
	}
	return nil
}

// notFound converts storage.ErrNotFound into a typed not-found error.
func notFound(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NewNotFoundError(apperrors.ErrCodeNotFound, what+" not found", err)
	}
	return err
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
