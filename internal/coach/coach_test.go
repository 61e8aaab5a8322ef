package coach_test

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/cache"
	"github.com/Tanishka82/nexa-app/internal/coach"
	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/evaluation"
	"github.com/Tanishka82/nexa-app/internal/storage"
	"github.com/Tanishka82/nexa-app/internal/storage/storagetest"
	"github.com/Tanishka82/nexa-app/internal/structured"
	"github.com/Tanishka82/nexa-app/internal/types"
)

const techInsight = "```json\n{\"growthRate\": 7.5, \"demandLevel\": \"high\", \"topSkills\": [\"Go\",\"Rust\"]}\n```"

// scriptedGenerator answers with a function of the prompt and counts calls.
type scriptedGenerator struct {
	calls   atomic.Int32
	mu      sync.Mutex
	prompts []string
	answer  func(prompt string) (string, error)
}

func script(answer func(prompt string) (string, error)) *scriptedGenerator {
	return &scriptedGenerator{answer: answer}
}

func fixed(text string) *scriptedGenerator {
	return script(func(string) (string, error) { return text, nil })
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.answer(prompt)
}

func (g *scriptedGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type sessionRecorder struct {
	mu     sync.Mutex
	scores []float64
}

func (r *sessionRecorder) RecordSession(_ context.Context, _ string, score float64, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, score)
}

func newService(t *testing.T, gens map[config.Operation]*scriptedGenerator, opts ...coach.Option) (*coach.Service, *sessionRecorder) {
	t.Helper()
	db := storagetest.SQLite(t)
	generators := make(map[config.Operation]structured.Generator, len(gens))
	for op, g := range gens {
		generators[op] = g
	}
	rec := &sessionRecorder{}
	svc := coach.New(coach.Deps{
		Generators:   generators,
		Prompts:      ai.NewPrompts(nil),
		Cache:        cache.NewStore(storage.NewCacheRepo(db), nil),
		Assessments:  storage.NewAssessmentRepo(db),
		Profiles:     storage.NewProfileRepo(db),
		CoverLetters: storage.NewCoverLetterRepo(db),
		Recorder:     rec,
	}, opts...)
	return svc, rec
}

func TestInsightIsCachedPerIndustry(t *testing.T) {
	gen := fixed(techInsight)
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpInsight: gen})
	ctx := context.Background()

	first, err := svc.Insight(ctx, "Tech")
	require.NoError(t, err)
	second, err := svc.Insight(ctx, " tech ")
	require.NoError(t, err)

	assert.EqualValues(t, 1, gen.calls.Load())
	assert.Equal(t, "tech", first.Industry)
	assert.Equal(t, "HIGH", first.Insight.DemandLevel)
	assert.Equal(t, []string{"Go", "Rust"}, first.Insight.TopSkills)
	assert.Equal(t, 7*24*time.Hour, first.ExpiresAt.Sub(first.GeneratedAt))
	assert.True(t, first.GeneratedAt.Equal(second.GeneratedAt))
	assert.Contains(t, gen.lastPrompt(), "state of the tech industry")

	deleted, err := svc.InvalidateInsight(ctx, "TECH")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.Insight(ctx, "tech")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestDegenerateInsightIsRegenerated(t *testing.T) {
	var n atomic.Int32
	gen := script(func(string) (string, error) {
		if n.Add(1) == 1 {
			return `{"growthRate": 1, "demandLevel": "low", "topSkills": []}`, nil
		}
		return techInsight, nil
	})
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpInsight: gen})
	ctx := context.Background()

	first, err := svc.Insight(ctx, "retail")
	require.NoError(t, err)
	assert.True(t, first.Degenerate)
	assert.Equal(t, "LOW", first.Insight.DemandLevel)

	second, err := svc.Insight(ctx, "retail")
	require.NoError(t, err)
	assert.False(t, second.Degenerate)
	assert.Equal(t, "HIGH", second.Insight.DemandLevel)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestInsightFailureIsCacheError(t *testing.T) {
	gen := fixed("I cannot help with that.")
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpInsight: gen})

	_, err := svc.Insight(context.Background(), "tech")
	require.Error(t, err)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeCache))
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeExtraction))
}

func TestOnboardSavesProfileWhenInsightFails(t *testing.T) {
	gen := script(func(string) (string, error) { return "", stderrors.New("quota exceeded") })
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpInsight: gen})
	ctx := context.Background()

	res, err := svc.Onboard(ctx, "owner-1", types.Profile{
		Name:       "Ada",
		Industry:   "Tech",
		Experience: 4,
		Skills:     []string{" Go ", "", "SQL"},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Insight)
	assert.Equal(t, "tech", res.Profile.Industry)

	p, err := svc.Profile(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)

	_, err = svc.Profile(ctx, "owner-2")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNotFound))
}

func TestOnboardValidation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		owner   string
		profile types.Profile
	}{
		{"no owner", "", types.Profile{Industry: "tech"}},
		{"no industry", "owner-1", types.Profile{}},
		{"negative experience", "owner-1", types.Profile{Industry: "tech", Experience: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Onboard(ctx, tt.owner, tt.profile)
			assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestGenerateQuizUsesProfileSkills(t *testing.T) {
	quiz := fixed(`Here you go: [{"question": "What does defer do?", "options": ["Delays a call", "Starts a goroutine", "Allocates memory", "Locks a mutex"], "correctAnswer": "Delays a call", "explanation": "It runs at return."}]`)
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{
		config.OpInsight: fixed(techInsight),
		config.OpQuiz:    quiz,
	})
	ctx := context.Background()

	_, err := svc.Onboard(ctx, "owner-1", types.Profile{Industry: "tech", Skills: []string{"Go", "Kubernetes"}})
	require.NoError(t, err)

	questions, err := svc.GenerateQuiz(ctx, "owner-1", types.QuizRequest{JobRole: "SRE"})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Delays a call", questions[0].CorrectAnswer)

	prompt := quiz.lastPrompt()
	assert.Contains(t, prompt, "Role: SRE")
	assert.Contains(t, prompt, "Skills: Go, Kubernetes")
	assert.Contains(t, prompt, "Description: General technical role")
}

func TestGenerateQuizRejectsAnswerOutsideOptions(t *testing.T) {
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{
		config.OpQuiz: fixed(`[{"question": "Q", "options": ["a", "b"], "correctAnswer": "c"}]`),
	})
	_, err := svc.GenerateQuiz(context.Background(), "owner-1", types.QuizRequest{})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestSaveQuizScoresAndTips(t *testing.T) {
	scoring := fixed("```\nRevisit how closures capture variables.\nAlso practice more.\n```")
	svc, rec := newService(t, map[config.Operation]*scriptedGenerator{config.OpScoring: scoring})
	ctx := context.Background()

	questions := []types.QuizQuestion{
		{Question: "Q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Question: "Q2", Options: []string{"a", "b"}, CorrectAnswer: "b", Explanation: "b is right"},
	}
	a, err := svc.SaveQuiz(ctx, "owner-1", coach.SaveQuizRequest{Questions: questions, Answers: []string{"a", "a"}})
	require.NoError(t, err)

	assert.Equal(t, types.CategoryTechnical, a.Category)
	assert.Equal(t, 50.0, a.AggregateScore)
	assert.Equal(t, "Revisit how closures capture variables.", a.ImprovementTip)
	assert.Equal(t, []string{"Q1", "Q2"}, a.Questions)
	assert.Equal(t, []string{"a", "a"}, a.Answers)
	assert.Contains(t, scoring.lastPrompt(), "scored 50% on a technical assessment")
	assert.Contains(t, scoring.lastPrompt(), "- Q: Q2 | A: a")
	assert.Equal(t, []float64{50}, rec.scores)

	_, err = svc.SaveQuiz(ctx, "owner-1", coach.SaveQuizRequest{Questions: questions, Answers: []string{"a"}})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestSaveQuizPerfectScoreSkipsTip(t *testing.T) {
	scoring := fixed("unused")
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpScoring: scoring})

	a, err := svc.SaveQuiz(context.Background(), "owner-1", coach.SaveQuizRequest{
		Questions: []types.QuizQuestion{{Question: "Q1", Options: []string{"a"}, CorrectAnswer: "a"}},
		Answers:   []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.AggregateScore)
	assert.Empty(t, a.ImprovementTip)
	assert.EqualValues(t, 0, scoring.calls.Load())
}

func TestSaveInterviewAggregatesRatings(t *testing.T) {
	ratings := map[string]string{
		"strong": `{"rating": 8, "feedback": "Clear and concrete.", "improvement": "Add numbers"}`,
		"fair":   `{"rating": 6, "feedback": "Reasonable", "improvement": "Be specific"}`,
		"weak":   `{"rating": 4, "feedback": "Too vague.", "improvement": "Use STAR"}`,
	}
	scoring := script(func(prompt string) (string, error) {
		for answer, out := range ratings {
			if strings.Contains(prompt, `User Answer: "`+answer+`"`) {
				return out, nil
			}
		}
		return "Practice structuring answers with STAR.", nil
	})
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpScoring: scoring},
		coach.WithEvaluation(config.EvaluationConfig{TipThreshold: 80, Concurrency: 2}))
	ctx := context.Background()

	a, err := svc.SaveInterview(ctx, "owner-1", coach.SaveInterviewRequest{
		Questions: []string{"Q1", "Q2", "Q3"},
		Answers:   []string{"strong", "fair", "weak"},
	})
	require.NoError(t, err)

	assert.Equal(t, types.CategoryInterview, a.Category)
	assert.InDelta(t, 60.0, a.AggregateScore, 1e-9)
	assert.Equal(t, "Clear and concrete. Reasonable. Too vague", a.Feedback)
	assert.Equal(t, "Practice structuring answers with STAR.", a.ImprovementTip)
	assert.EqualValues(t, 4, scoring.calls.Load())
}

func TestSaveInterviewIsolatesFailedEvaluations(t *testing.T) {
	scoring := script(func(prompt string) (string, error) {
		if strings.Contains(prompt, `User Answer: "timeout"`) {
			return "", context.DeadlineExceeded
		}
		if strings.Contains(prompt, "encouraging tip") {
			return "", stderrors.New("tip unavailable")
		}
		return `{"rating": 10, "feedback": "Great"}`, nil
	})
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpScoring: scoring})

	a, err := svc.SaveInterview(context.Background(), "owner-1", coach.SaveInterviewRequest{
		Questions: []string{"Q1", "Q2"},
		Answers:   []string{"fine", "timeout"},
	})
	require.NoError(t, err)
	// 100 and the neutral 50
	assert.InDelta(t, 75.0, a.AggregateScore, 1e-9)
	assert.Contains(t, a.Feedback, evaluation.FallbackFeedback[:len(evaluation.FallbackFeedback)-1])
	assert.Empty(t, a.ImprovementTip)
}

func TestSaveInterviewRejectsEmptySession(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.SaveInterview(context.Background(), "owner-1", coach.SaveInterviewRequest{})
	assert.ErrorIs(t, err, evaluation.ErrEmptySession)

	assessments, err := svc.Assessments(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Empty(t, assessments)
}

func TestEvaluateAnswerFallback(t *testing.T) {
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{
		config.OpScoring: fixed(`{"rating": 42, "feedback": "out of range"}`),
	})
	r, err := svc.EvaluateAnswer(context.Background(), types.InterviewTurn{Question: "Q", Answer: "A"})
	require.NoError(t, err)
	assert.True(t, r.Fallback)
	assert.Equal(t, evaluation.FallbackRating, r.Rating)
	assert.Equal(t, evaluation.FallbackTip, r.ImprovementTip)

	_, err = svc.EvaluateAnswer(context.Background(), types.InterviewTurn{})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestGenerateInterviewFallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  *scriptedGenerator
		want []string
	}{
		{"generation error", script(func(string) (string, error) { return "", stderrors.New("down") }), coach.FallbackInterviewQuestions},
		{"empty list", fixed("[]"), coach.FallbackInterviewQuestions},
		{"generated", fixed(`["Why Go?", "Tell me about a outage you handled."]`), []string{"Why Go?", "Tell me about a outage you handled."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpInterview: tt.gen})
			questions, err := svc.GenerateInterview(context.Background(), "owner-1", "Backend role")
			require.NoError(t, err)
			assert.Equal(t, tt.want, questions)
			assert.Contains(t, tt.gen.lastPrompt(), `Job Description: "Backend role"`)
		})
	}
}

func TestAssessmentsOrderedWithStats(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpScoring: fixed("Keep going.")},
		coach.WithClock(clock))
	ctx := context.Background()

	one := []types.QuizQuestion{{Question: "Q", Options: []string{"a", "b"}, CorrectAnswer: "a"}}
	_, err := svc.SaveQuiz(ctx, "owner-1", coach.SaveQuizRequest{Questions: one, Answers: []string{"b"}})
	require.NoError(t, err)
	now = now.Add(time.Hour)
	_, err = svc.SaveQuiz(ctx, "owner-1", coach.SaveQuizRequest{Questions: one, Answers: []string{"a"}})
	require.NoError(t, err)

	list, err := svc.Assessments(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0.0, list[0].AggregateScore)
	assert.Equal(t, 100.0, list[1].AggregateScore)
	assert.True(t, list[0].CreatedAt.Before(list[1].CreatedAt))

	stats, err := svc.AssessmentStats(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 50.0, stats.AverageScore, 1e-9)
	assert.Equal(t, 100.0, stats.LatestScore)
	require.NotNil(t, stats.LatestAt)

	empty, err := svc.AssessmentStats(ctx, "owner-2")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count)
	assert.Nil(t, empty.LatestAt)
}

func TestAnalyzeResumeIsCachedByContent(t *testing.T) {
	gen := fixed(`{"atsScore": 72, "summary": "Backend engineer.", "weaknesses": ["No metrics"], "suggestions": ["Quantify impact"]}`)
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpResume: gen})
	ctx := context.Background()

	first, err := svc.AnalyzeResume(ctx, "Jane Doe\nGo developer")
	require.NoError(t, err)
	second, err := svc.AnalyzeResume(ctx, "  Jane Doe\nGo developer\n")
	require.NoError(t, err)

	assert.Equal(t, 72, first.ATSScore)
	assert.Equal(t, []string{"Quantify impact"}, first.Suggestions)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, gen.calls.Load())

	_, err = svc.AnalyzeResume(ctx, "A different résumé")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gen.calls.Load())

	assert.Equal(t, coach.ResumeKey("abc"), coach.ResumeKey(" abc\n"))
	assert.Len(t, coach.ResumeKey("abc"), 64)
}

func TestImproveTextAndSavedResume(t *testing.T) {
	resumeGen := fixed("```markdown\nLed migration of 40 services to Go, cutting p99 latency by 30%.\n```")
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{
		config.OpInsight: fixed(techInsight),
		config.OpResume:  resumeGen,
	})
	ctx := context.Background()

	_, err := svc.Onboard(ctx, "owner-1", types.Profile{Industry: "fintech"})
	require.NoError(t, err)

	text, err := svc.ImproveText(ctx, "owner-1", types.ImproveRequest{Current: "Moved services to Go", Type: "experience"})
	require.NoError(t, err)
	assert.Equal(t, "Led migration of 40 services to Go, cutting p99 latency by 30%.", text)
	assert.Contains(t, resumeGen.lastPrompt(), "for a fintech professional")

	_, err = svc.Resume(ctx, "owner-1")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNotFound))

	saved, err := svc.SaveResume(ctx, "owner-1", "# Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "# Jane Doe", saved.Content)

	got, err := svc.Resume(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "# Jane Doe", got.Content)
}

func TestCoverLetterLifecycle(t *testing.T) {
	letters := fixed("Dear Hiring Manager,\n\nI am excited to apply.")
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpCoverLetter: letters})
	ctx := context.Background()

	_, err := svc.SaveResume(ctx, "owner-1", "Ten years of Go.")
	require.NoError(t, err)

	req := types.CoverLetterRequest{JobTitle: "Platform Engineer", CompanyName: "Acme", JobDescription: "Run the platform."}
	letter, err := svc.GenerateCoverLetter(ctx, "owner-1", req)
	require.NoError(t, err)
	assert.Equal(t, coach.CoverLetterStatusCompleted, letter.Status)
	assert.Equal(t, "Dear Hiring Manager,\n\nI am excited to apply.", letter.Content)
	assert.Contains(t, letters.lastPrompt(), "Ten years of Go.")
	assert.Contains(t, letters.lastPrompt(), "Platform Engineer position at Acme")

	list, err := svc.ListCoverLetters(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, letter.ID, list[0].ID)

	_, err = svc.GetCoverLetter(ctx, "owner-2", letter.ID)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNotFound))
	_, err = svc.GetCoverLetter(ctx, "owner-1", "not-a-uuid")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNotFound))

	require.NoError(t, svc.DeleteCoverLetter(ctx, "owner-1", letter.ID))
	err = svc.DeleteCoverLetter(ctx, "owner-1", letter.ID)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNotFound))

	_, err = svc.GenerateCoverLetter(ctx, "owner-1", types.CoverLetterRequest{JobTitle: "x"})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestCoverLetterFailureStoresNothing(t *testing.T) {
	svc, _ := newService(t, map[config.Operation]*scriptedGenerator{config.OpCoverLetter: fixed("   ")})
	ctx := context.Background()

	_, err := svc.GenerateCoverLetter(ctx, "owner-1", types.CoverLetterRequest{JobTitle: "a", CompanyName: "b", JobDescription: "c"})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeGeneration))

	list, err := svc.ListCoverLetters(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMissingGeneratorIsGenerationError(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.GenerateQuiz(context.Background(), "owner-1", types.QuizRequest{})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeGeneration))
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		req      types.ExtractRequest
		wantType apperrors.ErrorType
		check    func(t *testing.T, res *types.ExtractResponse)
	}{
		{
			name: "fenced insight",
			req:  types.ExtractRequest{Text: techInsight, Schema: "industry-insight"},
			check: func(t *testing.T, res *types.ExtractResponse) {
				value := res.Value.(map[string]any)
				assert.Equal(t, "HIGH", value["demandLevel"])
				assert.False(t, res.Degenerate)
			},
		},
		{
			name: "degenerate array",
			req:  types.ExtractRequest{Text: "none: []", Shape: "array", Schema: "interview-questions"},
			check: func(t *testing.T, res *types.ExtractResponse) {
				assert.True(t, res.Degenerate)
			},
		},
		{
			name:     "unknown schema",
			req:      types.ExtractRequest{Text: "{}", Schema: "weather"},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name:     "shape mismatch",
			req:      types.ExtractRequest{Text: "[]", Shape: "array", Schema: "answer-evaluation"},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name:     "no json",
			req:      types.ExtractRequest{Text: "no data here", Schema: "quiz"},
			wantType: apperrors.ErrorTypeExtraction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := coach.Extract(tt.req)
			if tt.wantType != "" {
				assert.True(t, apperrors.HasType(err, tt.wantType), "got %v", err)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}
