package extract

import (
	"strings"
	"testing"
	"time"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "bare object",
			raw:  `{"growthRate": 7.5}`,
			want: map[string]any{"growthRate": 7.5},
		},
		{
			name: "json fence",
			raw:  "```json\n{\"demandLevel\": \"high\"}\n```",
			want: map[string]any{"demandLevel": "high"},
		},
		{
			name: "untagged fence with prose",
			raw:  "Here is the analysis:\n```\n{\"a\": 1}\n```\nLet me know!",
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "braces inside string values",
			raw:  `{"summary": "use {placeholders} and } carefully", "n": 2}`,
			want: map[string]any{"summary": "use {placeholders} and } carefully", "n": float64(2)},
		},
		{
			name: "escaped quotes inside strings",
			raw:  `{"quote": "she said \"{hi}\"", "ok": true}`,
			want: map[string]any{"quote": `she said "{hi}"`, "ok": true},
		},
		{
			name: "prose after json contains braces",
			raw:  `{"a": {"b": [1, 2]}} I hope this {helps}!`,
			want: map[string]any{"a": map[string]any{"b": []any{float64(1), float64(2)}}},
		},
		{
			name: "prose before json contains braces",
			raw:  `Using the {industry} template: {"topSkills": ["Go"]}`,
			want: map[string]any{"topSkills": []any{"Go"}},
		},
		{
			name: "two json fragments returns first valid",
			raw:  `{"first": 1} and also {"second": 2}`,
			want: map[string]any{"first": float64(1)},
		},
		{
			name: "stray quote in prose",
			raw:  `The 27" monitor budget: {"min": 300}`,
			want: map[string]any{"min": float64(300)},
		},
		{
			name: "valid object after unclosed prefix",
			raw:  `{{{ draft {"a": 1}`,
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "inner object of invalid wrapper",
			raw:  `{ result: {"a": 1} }`,
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "nested arrays of objects",
			raw:  "```json\n{\"salaryRanges\": [{\"role\": \"SRE\", \"min\": 100, \"max\": 200}]}\n```",
			want: map[string]any{"salaryRanges": []any{map[string]any{"role": "SRE", "min": float64(100), "max": float64(200)}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw, ShapeObject)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []any
	}{
		{
			name: "string array in fence",
			raw:  "```json\n[\"Tell me about yourself\", \"Why Go?\"]\n```",
			want: []any{"Tell me about yourself", "Why Go?"},
		},
		{
			name: "object array with prose",
			raw:  `Questions follow: [{"question": "What is [x]?"}] done`,
			want: []any{map[string]any{"question": "What is [x]?"}},
		},
		{
			name: "array inside object wrapper is found",
			raw:  `{"questions": ["a", "b"]}`,
			want: []any{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw, ShapeArray)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		shape  Shape
		reason string
	}{
		{"empty", "", ShapeObject, apperrors.ReasonNoJSONFound},
		{"plain prose", "I cannot help with that request.", ShapeObject, apperrors.ReasonNoJSONFound},
		{"truncated object", `{"growthRate": 7.5, "topSkills": ["Go"`, ShapeObject, apperrors.ReasonNoJSONFound},
		{"array requested object present", `{"a": 1}`, ShapeArray, apperrors.ReasonNoJSONFound},
		{"single quotes", `{'a': 1}`, ShapeObject, apperrors.ReasonParseError},
		{"trailing comma", "```json\n{\"a\": 1,}\n```", ShapeObject, apperrors.ReasonParseError},
		{"unquoted keys", `{a: 1}`, ShapeObject, apperrors.ReasonParseError},
		{"mismatched nesting", `{"a": [1, 2}`, ShapeObject, apperrors.ReasonNoJSONFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw, tt.shape)
			require.Error(t, err)
			assert.Nil(t, got)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeExtraction, appErr.Type)
			assert.Equal(t, tt.reason, appErr.Code)
		})
	}
}

func TestExtractScalesLinearly(t *testing.T) {
	const n = 1 << 20
	tests := []struct {
		name   string
		raw    string
		shape  Shape
		reason string
	}{
		{"unclosed braces", strings.Repeat("{", n), ShapeObject, apperrors.ReasonNoJSONFound},
		{"unclosed brackets", strings.Repeat("[", n), ShapeArray, apperrors.ReasonNoJSONFound},
		{"deeply nested arrays", strings.Repeat("[", n) + strings.Repeat("]", n), ShapeArray, apperrors.ReasonParseError},
		{"alternating mismatches", strings.Repeat("{]", n/2), ShapeObject, apperrors.ReasonNoJSONFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			began := time.Now()
			_, err := Extract(tt.raw, tt.shape)
			elapsed := time.Since(began)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, appErr.Code)
			assert.Less(t, elapsed, 5*time.Second)
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}```"))
	assert.Equal(t, "plain", StripFences("  plain  "))
}

func TestParseShape(t *testing.T) {
	s, err := ParseShape(" Object ")
	require.NoError(t, err)
	assert.Equal(t, ShapeObject, s)

	s, err = ParseShape("array")
	require.NoError(t, err)
	assert.Equal(t, ShapeArray, s)

	_, err = ParseShape("string")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func BenchmarkExtractFencedObject(b *testing.B) {
	raw := "Sure! Here you go:\n```json\n" +
		`{"growthRate": 7.5, "demandLevel": "high", "topSkills": ["Go","Rust"], "keyTrends": ["` +
		strings.Repeat("x", 512) + `"]}` + "\n```\nAnything else {?}"
	for b.Loop() {
		if _, err := Extract(raw, ShapeObject); err != nil {
			b.Fatal(err)
		}
	}
}
