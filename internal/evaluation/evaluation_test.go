package evaluation

import (
	"context"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratings(scale float64, values ...float64) []Record {
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{Rating: v, ScaleMax: scale}
	}
	return records
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    float64
	}{
		{"ten point scale", ratings(10, 8, 6, 4), 60},
		{"percent scale", ratings(100, 100, 0, 100, 100), 75},
		{"single record", ratings(10, 7), 70},
		{"mixed scales", append(ratings(10, 9), ratings(100, 50)...), 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.records)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAggregateRejectsBadScale(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{"zero scale", Record{Question: "q", Rating: 5}},
		{"negative scale", Record{Question: "q", Rating: 5, ScaleMax: -10}},
		{"rating above scale", Record{Question: "q", Rating: 11, ScaleMax: 10}},
		{"negative rating", Record{Question: "q", Rating: -1, ScaleMax: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := append(ratings(10, 8), tt.record)
			_, err := Aggregate(records)
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, apperrors.ErrCodeInvalidScale, appErr.Code)
			assert.Equal(t, 1, appErr.Context["index"])
		})
	}

	_, err := NewAggregator(nil).Summarize(context.Background(), []Record{{Rating: 3}})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrEmptySession)

	_, err = NewAggregator(nil).Summarize(context.Background(), []Record{})
	assert.ErrorIs(t, err, ErrEmptySession)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestSummarizeTipBelowThreshold(t *testing.T) {
	var tipCalls atomic.Int32
	tip := func(_ context.Context, score float64, _ []Record) (string, error) {
		tipCalls.Add(1)
		return "Practice the STAR method.\nExtra line.", nil
	}
	fixed := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	agg := NewAggregator(nil, WithTip(tip), WithClock(func() time.Time { return fixed }))

	records := []Record{
		{Question: "q1", Answer: "a1", Rating: 8, ScaleMax: 10, Feedback: "Solid."},
		{Question: "q2", Answer: "a2", Rating: 6, ScaleMax: 10, Feedback: "Vague"},
		{Question: "q3", Answer: "a3", Rating: 4, ScaleMax: 10, Feedback: ""},
	}
	summary, err := agg.Summarize(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 60.0, summary.AggregateScore)
	assert.Equal(t, []string{"q1", "q2", "q3"}, summary.Questions)
	assert.Equal(t, []string{"a1", "a2", "a3"}, summary.Answers)
	assert.Equal(t, "Solid. Vague", summary.Feedback)
	assert.Equal(t, "Practice the STAR method.", summary.ImprovementTip)
	assert.Equal(t, fixed, summary.CreatedAt)
	assert.EqualValues(t, 1, tipCalls.Load())
}

func TestSummarizeNoTipAtOrAboveThreshold(t *testing.T) {
	called := false
	tip := func(context.Context, float64, []Record) (string, error) {
		called = true
		return "tip", nil
	}
	summary, err := NewAggregator(nil, WithTip(tip)).Summarize(context.Background(), ratings(10, 8, 8))
	require.NoError(t, err)
	assert.Equal(t, 80.0, summary.AggregateScore)
	assert.Empty(t, summary.ImprovementTip)
	assert.False(t, called)
}

func TestSummarizeTipFailureDegrades(t *testing.T) {
	tip := func(context.Context, float64, []Record) (string, error) {
		return "", stderrors.New("model unavailable")
	}
	summary, err := NewAggregator(nil, WithTip(tip)).Summarize(context.Background(), ratings(10, 2))
	require.NoError(t, err)
	assert.Equal(t, 20.0, summary.AggregateScore)
	assert.Empty(t, summary.ImprovementTip)
}

func TestScorerIsolatesFailures(t *testing.T) {
	evaluate := func(_ context.Context, item types.InterviewTurn) (types.AnswerEvaluation, error) {
		if strings.Contains(item.Question, "fail") {
			return types.AnswerEvaluation{}, stderrors.New("extraction failed")
		}
		return types.AnswerEvaluation{Rating: 9, Feedback: "Great", Improvement: "None"}, nil
	}
	scorer := NewScorer(evaluate, 2, nil)

	items := []types.InterviewTurn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2 fail", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
	}
	records := scorer.Score(context.Background(), items)
	require.Len(t, records, 3)

	assert.Equal(t, 9.0, records[0].Rating)
	assert.False(t, records[0].Fallback)

	assert.True(t, records[1].Fallback)
	assert.Equal(t, FallbackRating, records[1].Rating)
	assert.Equal(t, FallbackFeedback, records[1].Feedback)
	assert.Equal(t, FallbackTip, records[1].ImprovementTip)
	assert.Equal(t, "q2 fail", records[1].Question)

	assert.Equal(t, "q3", records[2].Question)

	score, err := Aggregate(records)
	require.NoError(t, err)
	assert.InDelta(t, (90.0+50.0+90.0)/3, score, 1e-9)
}

func TestScoreQuiz(t *testing.T) {
	questions := []types.QuizQuestion{
		{Question: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Question: "q2", Options: []string{"a", "b"}, CorrectAnswer: "b", Explanation: "Because b."},
	}

	records, err := ScoreQuiz(questions, []string{"a", "a"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, records[0].Percent())
	assert.Equal(t, 0.0, records[1].Percent())
	assert.Equal(t, "Because b.", records[1].ImprovementTip)

	score, err := Aggregate(records)
	require.NoError(t, err)
	assert.Equal(t, 50.0, score)

	_, err = ScoreQuiz(questions, []string{"a"})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}
