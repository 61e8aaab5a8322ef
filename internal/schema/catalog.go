package schema

import (
	"fmt"
	"slices"
	"sort"

	"github.com/Tanishka82/nexa-app/internal/extract"
)

// Payload schemas for every generation kind.
var (
	IndustryInsight = Schema{
		Name:  "industry-insight",
		Shape: extract.ShapeObject,
		Fields: []Field{
			{
				Name:                "salaryRanges",
				Kind:                KindObjectList,
				DegenerateWhenEmpty: true,
				Fields: []Field{
					{Name: "role", Kind: KindString, Required: true},
					{Name: "min", Kind: KindNumber, Required: true, Min: Bound(0)},
					{Name: "max", Kind: KindNumber, Required: true, Min: Bound(0)},
					{Name: "median", Kind: KindNumber, Required: true, Min: Bound(0)},
					{Name: "location", Kind: KindString},
				},
				Rule: salaryOrder,
			},
			// Percent per year; shrinking industries report negative growth.
			{Name: "growthRate", Kind: KindNumber, Required: true, Min: Bound(-100), Max: Bound(100)},
			{Name: "demandLevel", Kind: KindEnum, Required: true, Enum: []string{"HIGH", "MEDIUM", "LOW"}},
			{Name: "topSkills", Kind: KindStringList, Required: true},
			{Name: "marketOutlook", Kind: KindEnum, Enum: []string{"POSITIVE", "NEUTRAL", "NEGATIVE"}},
			{Name: "keyTrends", Kind: KindStringList},
			{Name: "recommendedSkills", Kind: KindStringList},
		},
	}

	Quiz = Schema{
		Name:  "quiz",
		Shape: extract.ShapeArray,
		Item: &Field{
			Kind: KindObject,
			Fields: []Field{
				{Name: "question", Kind: KindString, Required: true},
				{Name: "options", Kind: KindStringList, Required: true},
				{Name: "correctAnswer", Kind: KindString, Required: true},
				{Name: "explanation", Kind: KindString},
			},
			Rule: answerAmongOptions,
		},
	}

	InterviewQuestions = Schema{
		Name:  "interview-questions",
		Shape: extract.ShapeArray,
		Item:  &Field{Kind: KindString},
	}

	AnswerEvaluation = Schema{
		Name:  "answer-evaluation",
		Shape: extract.ShapeObject,
		Fields: []Field{
			{Name: "rating", Kind: KindNumber, Required: true, Min: Bound(1), Max: Bound(10)},
			{Name: "feedback", Kind: KindString, Required: true},
			{Name: "improvement", Kind: KindString},
		},
	}

	ResumeAnalysis = Schema{
		Name:  "resume-analysis",
		Shape: extract.ShapeObject,
		Fields: []Field{
			{Name: "atsScore", Kind: KindInteger, Required: true, Min: Bound(0), Max: Bound(100)},
			{Name: "summary", Kind: KindString, Required: true},
			{Name: "weaknesses", Kind: KindStringList},
			{Name: "suggestions", Kind: KindStringList, Required: true},
		},
	}
)

var registry = map[string]Schema{
	IndustryInsight.Name:    IndustryInsight,
	Quiz.Name:               Quiz,
	InterviewQuestions.Name: InterviewQuestions,
	AnswerEvaluation.Name:   AnswerEvaluation,
	ResumeAnalysis.Name:     ResumeAnalysis,
}

// Lookup returns a registered schema by name.
func Lookup(name string) (Schema, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names lists the registered schema names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func salaryOrder(obj map[string]any) error {
	lo, _ := obj["min"].(float64)
	hi, _ := obj["max"].(float64)
	if lo > hi {
		return fmt.Errorf("min %v exceeds max %v", lo, hi)
	}
	return nil
}

// quizOptionCount is the number of choices every quiz question carries.
const quizOptionCount = 4

func answerAmongOptions(obj map[string]any) error {
	options, _ := obj["options"].([]string)
	answer, _ := obj["correctAnswer"].(string)
	if len(options) != quizOptionCount {
		return fmt.Errorf("question has %d options, want %d", len(options), quizOptionCount)
	}
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if seen[o] {
			return fmt.Errorf("option %q is repeated", o)
		}
		seen[o] = true
	}
	if !slices.Contains(options, answer) {
		return fmt.Errorf("correct answer %q is not one of the options", answer)
	}
	return nil
}
