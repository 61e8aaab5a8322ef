package schema

import (
	"testing"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/extract"
	"github.com/Tanishka82/nexa-app/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustExtract(t *testing.T, raw string, shape extract.Shape) any {
	t.Helper()
	v, err := extract.Extract(raw, shape)
	require.NoError(t, err)
	return v
}

func TestNormalizeEnumCasing(t *testing.T) {
	for _, in := range []string{"high", "High", "HIGH", " hIgH "} {
		t.Run(in, func(t *testing.T) {
			value := map[string]any{
				"growthRate":  7.5,
				"demandLevel": in,
				"topSkills":   []any{"Go"},
			}
			res, err := Normalize(value, IndustryInsight)
			require.NoError(t, err)
			assert.Equal(t, "HIGH", res.Value.(map[string]any)["demandLevel"])
		})
	}
}

func TestNormalizeRejectsUnknownEnum(t *testing.T) {
	value := map[string]any{
		"growthRate":  7.5,
		"demandLevel": "very high",
		"topSkills":   []any{"Go"},
	}
	_, err := Normalize(value, IndustryInsight)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, apperrors.ErrCodeSchemaInvalidEnum, appErr.Code)
	assert.Equal(t, "demandLevel", appErr.Context["path"])
}

func TestNormalizeValidationFailures(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"growthRate":  7.5,
			"demandLevel": "low",
			"topSkills":   []any{"Go"},
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
		code   string
		path   string
	}{
		{"missing required number", func(m map[string]any) { delete(m, "growthRate") }, apperrors.ErrCodeSchemaMissingField, "growthRate"},
		{"null required field", func(m map[string]any) { m["topSkills"] = nil }, apperrors.ErrCodeSchemaMissingField, "topSkills"},
		{"number as string", func(m map[string]any) { m["growthRate"] = "7.5" }, apperrors.ErrCodeSchemaInvalidType, "growthRate"},
		{"growth out of bounds", func(m map[string]any) { m["growthRate"] = 250.0 }, apperrors.ErrCodeSchemaOutOfBounds, "growthRate"},
		{"list item not string", func(m map[string]any) { m["topSkills"] = []any{"Go", 3.0} }, apperrors.ErrCodeSchemaInvalidType, "topSkills[1]"},
		{"bad optional enum", func(m map[string]any) { m["marketOutlook"] = "bullish" }, apperrors.ErrCodeSchemaInvalidEnum, "marketOutlook"},
		{
			"salary min above max",
			func(m map[string]any) {
				m["salaryRanges"] = []any{map[string]any{"role": "SRE", "min": 300.0, "max": 100.0, "median": 200.0}}
			},
			apperrors.ErrCodeSchemaOutOfBounds, "salaryRanges[0]",
		},
		{
			"salary missing role",
			func(m map[string]any) {
				m["salaryRanges"] = []any{map[string]any{"min": 1.0, "max": 2.0, "median": 1.5}}
			},
			apperrors.ErrCodeSchemaMissingField, "salaryRanges[0].role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := base()
			tt.mutate(value)

			res, err := Normalize(value, IndustryInsight)
			require.Error(t, err)
			assert.Nil(t, res.Value)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.path, appErr.Context["path"])
		})
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	tests := []struct {
		name       string
		value      map[string]any
		degenerate []string
	}{
		{
			name:  "complete payload",
			value: map[string]any{"growthRate": 1.0, "demandLevel": "low", "topSkills": []any{"Go"}},
		},
		{
			name:       "empty required list",
			value:      map[string]any{"growthRate": 1.0, "demandLevel": "low", "topSkills": []any{}},
			degenerate: []string{"topSkills"},
		},
		{
			name: "empty salary ranges",
			value: map[string]any{
				"growthRate": 1.0, "demandLevel": "low", "topSkills": []any{"Go"},
				"salaryRanges": []any{},
			},
			degenerate: []string{"salaryRanges"},
		},
		{
			name: "empty optional list is fine",
			value: map[string]any{
				"growthRate": 1.0, "demandLevel": "low", "topSkills": []any{"Go"},
				"keyTrends": []any{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.value, IndustryInsight)
			require.NoError(t, err)
			assert.Equal(t, len(tt.degenerate) > 0, res.Degenerate)
			assert.Equal(t, tt.degenerate, res.DegenerateFields)
		})
	}
}

func TestNormalizeDropsUndeclaredFields(t *testing.T) {
	value := map[string]any{
		"growthRate":  2.0,
		"demandLevel": "medium",
		"topSkills":   []any{"Go"},
		"confidence":  "very",
	}
	res, err := Normalize(value, IndustryInsight)
	require.NoError(t, err)
	assert.NotContains(t, res.Value.(map[string]any), "confidence")
}

func TestNormalizeInsightEndToEnd(t *testing.T) {
	raw := "```json\n{\"growthRate\": 7.5, \"demandLevel\": \"high\", \"topSkills\": [\"Go\",\"Rust\"]}\n```"

	res, err := Normalize(mustExtract(t, raw, extract.ShapeObject), IndustryInsight)
	require.NoError(t, err)
	assert.False(t, res.Degenerate)

	insight, err := DecodeAs[types.IndustryInsight](res.Value)
	require.NoError(t, err)
	assert.Equal(t, 7.5, insight.GrowthRate)
	assert.Equal(t, "HIGH", insight.DemandLevel)
	assert.Equal(t, []string{"Go", "Rust"}, insight.TopSkills)
	assert.Empty(t, insight.SalaryRanges)
}

func TestNormalizeQuiz(t *testing.T) {
	raw := `Here's your quiz:
[
  {"question": "What does defer do?", "options": ["a", "b", "c", "d"], "correctAnswer": "b", "explanation": "It delays."},
  {"question": "Zero value of a map?", "options": ["nil", "{}", "0", "map[]"], "correctAnswer": "nil"}
]`
	res, err := Normalize(mustExtract(t, raw, extract.ShapeArray), Quiz)
	require.NoError(t, err)

	questions, err := DecodeAs[[]types.QuizQuestion](res.Value)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "b", questions[0].CorrectAnswer)
	assert.Equal(t, []string{"nil", "{}", "0", "map[]"}, questions[1].Options)
}

func TestNormalizeQuizItemRules(t *testing.T) {
	tests := []struct {
		name    string
		options []any
		answer  string
		wantErr bool
	}{
		{"valid", []any{"a", "b", "c", "d"}, "c", false},
		{"answer not an option", []any{"a", "b", "c", "d"}, "e", true},
		{"too few options", []any{"a", "b"}, "a", true},
		{"too many options", []any{"a", "b", "c", "d", "e"}, "a", true},
		{"repeated option", []any{"a", "a", "c", "d"}, "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := []any{
				map[string]any{"question": "q", "options": tt.options, "correctAnswer": tt.answer},
			}
			_, err := Normalize(value, Quiz)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestNormalizeNegativeGrowthRate(t *testing.T) {
	value := map[string]any{"growthRate": -12.5, "demandLevel": "low", "topSkills": []any{"COBOL"}}
	res, err := Normalize(value, IndustryInsight)
	require.NoError(t, err)
	assert.False(t, res.Degenerate)
}

func TestNormalizeEmptyArrayIsDegenerate(t *testing.T) {
	res, err := Normalize([]any{}, InterviewQuestions)
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	assert.Equal(t, []string{"$"}, res.DegenerateFields)
}

func TestNormalizeAnswerEvaluationBounds(t *testing.T) {
	tests := []struct {
		rating  float64
		wantErr bool
	}{
		{1, false},
		{10, false},
		{7.5, false},
		{0, true},
		{11, true},
	}
	for _, tt := range tests {
		value := map[string]any{"rating": tt.rating, "feedback": "ok"}
		_, err := Normalize(value, AnswerEvaluation)
		assert.Equal(t, tt.wantErr, err != nil, "rating %v", tt.rating)
	}
}

func TestNormalizeResumeAnalysisInteger(t *testing.T) {
	value := map[string]any{"atsScore": 72.0, "summary": "s", "suggestions": []any{"x"}}
	res, err := Normalize(value, ResumeAnalysis)
	require.NoError(t, err)

	analysis, err := DecodeAs[types.ResumeAnalysis](res.Value)
	require.NoError(t, err)
	assert.Equal(t, 72, analysis.ATSScore)

	value["atsScore"] = 72.5
	_, err = Normalize(value, ResumeAnalysis)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("industry-insight")
	require.True(t, ok)
	assert.Equal(t, extract.ShapeObject, s.Shape)

	_, ok = Lookup("nope")
	assert.False(t, ok)
	assert.Contains(t, Names(), "quiz")
}
