package evaluation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/types"
)

// Scale of model-rated interview answers.
const InterviewScaleMax = 10.0

// Neutral record used when one item cannot be evaluated.
const (
	FallbackRating   = 5.0
	FallbackFeedback = "Could not evaluate."
	FallbackTip      = "Please try again."
)

// Fallback returns the neutral record for an item.
func Fallback(item types.InterviewTurn) Record {
	return Record{
		Question:       item.Question,
		Answer:         item.Answer,
		Rating:         FallbackRating,
		ScaleMax:       InterviewScaleMax,
		Feedback:       FallbackFeedback,
		ImprovementTip: FallbackTip,
		Fallback:       true,
	}
}

// EvaluateFunc rates one answer in isolation.
type EvaluateFunc func(ctx context.Context, item types.InterviewTurn) (types.AnswerEvaluation, error)

// Scorer evaluates interview answers concurrently.
type Scorer struct {
	evaluate    EvaluateFunc
	concurrency int
	logger      *apperrors.Logger
}

func NewScorer(evaluate EvaluateFunc, concurrency int, logger *apperrors.Logger) *Scorer {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	return &Scorer{evaluate: evaluate, concurrency: concurrency, logger: logger}
}

// Evaluate rates a single answer, substituting the fallback on failure.
func (s *Scorer) Evaluate(ctx context.Context, item types.InterviewTurn) Record {
	eval, err := s.evaluate(ctx, item)
	if err != nil {
		s.logger.Warn("Answer evaluation failed, using fallback",
			"question", item.Question,
			"error", err.Error())
		return Fallback(item)
	}
	return Record{
		Question:       item.Question,
		Answer:         item.Answer,
		Rating:         eval.Rating,
		ScaleMax:       InterviewScaleMax,
		Feedback:       eval.Feedback,
		ImprovementTip: eval.Improvement,
	}
}

// Score evaluates every item independently. Results keep input order and a
// failing item never affects the others.
func (s *Scorer) Score(ctx context.Context, items []types.InterviewTurn) []Record {
	records := make([]Record, len(items))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			records[i] = s.Evaluate(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

// ScoreQuiz marks each answer 100 when it matches the correct option and 0
// otherwise.
func ScoreQuiz(questions []types.QuizQuestion, answers []string) ([]Record, error) {
	if len(questions) != len(answers) {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("got %d answers for %d questions", len(answers), len(questions)), nil)
	}

	records := make([]Record, len(questions))
	for i, q := range questions {
		r := Record{
			Question: q.Question,
			Answer:   answers[i],
			ScaleMax: 100,
		}
		if strings.TrimSpace(answers[i]) == strings.TrimSpace(q.CorrectAnswer) {
			r.Rating = 100
			r.Feedback = "Correct"
		} else {
			r.Feedback = fmt.Sprintf("Expected %q", q.CorrectAnswer)
			r.ImprovementTip = q.Explanation
		}
		records[i] = r
	}
	return records, nil
}
