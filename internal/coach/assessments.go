package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/evaluation"
	"github.com/Tanishka82/nexa-app/internal/schema"
	"github.com/Tanishka82/nexa-app/internal/storage"
	"github.com/Tanishka82/nexa-app/internal/structured"
	"github.com/Tanishka82/nexa-app/internal/types"
)

// FallbackInterviewQuestions are served when interview generation fails.
var FallbackInterviewQuestions = []string{
	"Tell me about yourself and your background.",
	"What interests you about this specific role?",
	"Describe a challenging project you worked on recently.",
	"How do you handle tight deadlines or pressure?",
	"Do you have any questions for us?",
}

// GenerateQuiz returns multiple-choice questions for the role, using the
// owner's skills when they have onboarded.
func (s *Service) GenerateQuiz(ctx context.Context, owner string, req types.QuizRequest) ([]types.QuizQuestion, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	profile, err := s.profileOrEmpty(ctx, owner)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.Render(ai.TemplateQuiz, map[string]string{
		"jobRole":        orDefault(req.JobRole, "Software Engineer"),
		"jobDescription": orDefault(req.JobDescription, "General technical role"),
		"skills":         orDefault(strings.Join(profile.Skills, ", "), "General Tech"),
		"count":          strconv.Itoa(QuizQuestionCount),
	})

	questions, res, err := structured.GenerateAs[[]types.QuizQuestion](ctx, s.generator(config.OpQuiz), prompt, schema.Quiz)
	if err != nil {
		return nil, err
	}
	if res.Degenerate {
		return nil, apperrors.NewGenerationError(apperrors.ErrCodeAIMalformedOutput, "model returned no quiz questions", nil)
	}
	return questions, nil
}

// SaveQuizRequest carries the questions as served and the owner's answers.
type SaveQuizRequest struct {
	Questions []types.QuizQuestion `json:"questions"`
	Answers   []string             `json:"answers"`
}

// SaveQuiz marks the answers, summarizes them and stores the assessment.
func (s *Service) SaveQuiz(ctx context.Context, owner string, req SaveQuizRequest) (*types.Assessment, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	records, err := evaluation.ScoreQuiz(req.Questions, req.Answers)
	if err != nil {
		return nil, err
	}
	return s.saveSession(ctx, owner, types.CategoryTechnical, records)
}

// GenerateInterview returns interview questions. Any failure, including an
// empty list, falls back to a fixed set.
func (s *Service) GenerateInterview(ctx context.Context, owner, jobDescription string) ([]string, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	profile, err := s.profileOrEmpty(ctx, owner)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.Render(ai.TemplateInterview, map[string]string{
		"count":          strconv.Itoa(InterviewQuestionCount),
		"jobDescription": orDefault(jobDescription, "General Professional Role"),
		"skills":         orDefault(strings.Join(profile.Skills, ", "), "General soft skills"),
	})

	questions, res, err := structured.GenerateAs[[]string](ctx, s.generator(config.OpInterview), prompt, schema.InterviewQuestions)
	if err != nil || res.Degenerate {
		if err != nil {
			s.logger.LogError(err, "Interview generation failed, serving fallback questions", "owner", owner)
		}
		return slices.Clone(FallbackInterviewQuestions), nil
	}
	return cleanList(questions), nil
}

// EvaluateAnswer rates one answer. It never fails on model errors; those
// produce the neutral fallback record.
func (s *Service) EvaluateAnswer(ctx context.Context, turn types.InterviewTurn) (evaluation.Record, error) {
	if err := requireField("question", turn.Question); err != nil {
		return evaluation.Record{}, err
	}
	return s.scorer.Evaluate(ctx, turn), nil
}

func (s *Service) evaluateAnswer(ctx context.Context, turn types.InterviewTurn) (types.AnswerEvaluation, error) {
	prompt := s.prompts.Render(ai.TemplateAnswerEvaluation, map[string]string{
		"question": turn.Question,
		"answer":   turn.Answer,
	})
	eval, _, err := structured.GenerateAs[types.AnswerEvaluation](ctx, s.generator(config.OpScoring), prompt, schema.AnswerEvaluation)
	return eval, err
}

// SaveInterviewRequest carries index-aligned questions and answers.
type SaveInterviewRequest struct {
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
}

// SaveInterview scores every answer concurrently, summarizes the session and
// stores it.
func (s *Service) SaveInterview(ctx context.Context, owner string, req SaveInterviewRequest) (*types.Assessment, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if len(req.Questions) != len(req.Answers) {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("got %d answers for %d questions", len(req.Answers), len(req.Questions)), nil)
	}

	turns := make([]types.InterviewTurn, len(req.Questions))
	for i := range req.Questions {
		turns[i] = types.InterviewTurn{Question: req.Questions[i], Answer: req.Answers[i]}
	}
	records := s.scorer.Score(ctx, turns)
	return s.saveSession(ctx, owner, types.CategoryInterview, records)
}

func (s *Service) saveSession(ctx context.Context, owner, category string, records []evaluation.Record) (*types.Assessment, error) {
	aggregator := evaluation.NewAggregator(s.logger,
		evaluation.WithThreshold(s.tipThreshold),
		evaluation.WithTip(s.improvementTip(category)),
		evaluation.WithClock(s.now))
	summary, err := aggregator.Summarize(ctx, records)
	if err != nil {
		return nil, err
	}

	questions, _ := json.Marshal(summary.Questions)
	answers, _ := json.Marshal(summary.Answers)
	row := &storage.Assessment{
		OwnerID:        owner,
		Category:       category,
		Questions:      datatypes.JSON(questions),
		Answers:        datatypes.JSON(answers),
		Feedback:       summary.Feedback,
		AggregateScore: summary.AggregateScore,
		CreatedAt:      summary.CreatedAt.Truncate(time.Microsecond),
	}
	if summary.ImprovementTip != "" {
		row.ImprovementTip = &summary.ImprovementTip
	}
	if err := s.assessments.Create(ctx, row); err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordSession(ctx, category, summary.AggregateScore, summary.ImprovementTip != "")
	}
	s.logger.Info("Assessment saved",
		"owner", owner,
		"category", category,
		"items", len(records),
		"score", summary.AggregateScore,
		"tip", summary.ImprovementTip != "")

	a := assessmentFromRow(*row)
	return &a, nil
}

// improvementTip asks the scoring model for a one-line tip based on the
// weakest answers of the session.
func (s *Service) improvementTip(category string) evaluation.TipFunc {
	return func(ctx context.Context, score float64, records []evaluation.Record) (string, error) {
		prompt := s.prompts.Render(ai.TemplateImprovementTip, map[string]string{
			"score":    strconv.FormatFloat(score, 'f', 0, 64),
			"category": strings.ToLower(category),
			"weakest":  weakestAnswers(records, 3),
		})
		return structured.GenerateText(ctx, s.generator(config.OpScoring), prompt)
	}
}

func weakestAnswers(records []evaluation.Record, n int) string {
	weakest := slices.Clone(records)
	slices.SortStableFunc(weakest, func(a, b evaluation.Record) int {
		switch {
		case a.Percent() < b.Percent():
			return -1
		case a.Percent() > b.Percent():
			return 1
		}
		return 0
	})
	if len(weakest) > n {
		weakest = weakest[:n]
	}
	lines := make([]string, len(weakest))
	for i, r := range weakest {
		lines[i] = fmt.Sprintf("- Q: %s | A: %s", r.Question, r.Answer)
	}
	return strings.Join(lines, "\n")
}

// Assessments lists the owner's sessions oldest first.
func (s *Service) Assessments(ctx context.Context, owner string) ([]types.Assessment, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.assessments.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]types.Assessment, len(rows))
	for i, row := range rows {
		out[i] = assessmentFromRow(row)
	}
	return out, nil
}

// AssessmentStats returns count, average and latest score.
func (s *Service) AssessmentStats(ctx context.Context, owner string) (*types.AssessmentStats, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	agg, err := s.assessments.Stats(ctx, owner)
	if err != nil {
		return nil, err
	}
	stats := &types.AssessmentStats{Count: int(agg.Count), AverageScore: agg.Average}
	if agg.Latest != nil {
		stats.LatestScore = agg.Latest.AggregateScore
		latestAt := agg.Latest.CreatedAt
		stats.LatestAt = &latestAt
	}
	return stats, nil
}

func assessmentFromRow(row storage.Assessment) types.Assessment {
	a := types.Assessment{
		ID:             row.ID.String(),
		Category:       row.Category,
		Feedback:       row.Feedback,
		AggregateScore: row.AggregateScore,
		CreatedAt:      row.CreatedAt,
	}
	_ = json.Unmarshal(row.Questions, &a.Questions)
	_ = json.Unmarshal(row.Answers, &a.Answers)
	if row.ImprovementTip != nil {
		a.ImprovementTip = *row.ImprovementTip
	}
	return a
}
