// Package evaluation scores session items independently and folds the
// results into one summary.
package evaluation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// DefaultTipThreshold is the percentage below which a tip is requested.
const DefaultTipThreshold = 80.0

// ErrEmptySession is returned when summarizing zero records.
var ErrEmptySession = apperrors.NewValidationError(apperrors.ErrCodeEmptySession,
	"cannot summarize a session with no scored items", nil)

// Record is one scored unit.
type Record struct {
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Rating         float64 `json:"rating"`
	ScaleMax       float64 `json:"scaleMax"`
	Feedback       string  `json:"feedback"`
	ImprovementTip string  `json:"improvementTip,omitempty"`
	Fallback       bool    `json:"fallback,omitempty"`
}

// Percent rescales the rating to 0-100. It is 0 for a record without a
// positive scale; Validate reports that case.
func (r Record) Percent() float64 {
	if r.ScaleMax <= 0 {
		return 0
	}
	return r.Rating * 100 / r.ScaleMax
}

// Validate checks that the record has a positive scale and a rating on it.
func (r Record) Validate() error {
	if r.ScaleMax <= 0 || math.IsNaN(r.ScaleMax) || math.IsInf(r.ScaleMax, 0) {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidScale,
			fmt.Sprintf("record %q has non-positive scale %v", r.Question, r.ScaleMax), nil).
			WithContext("scale_max", r.ScaleMax)
	}
	if r.Rating < 0 || r.Rating > r.ScaleMax || math.IsNaN(r.Rating) {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidScale,
			fmt.Sprintf("record %q has rating %v outside 0-%v", r.Question, r.Rating, r.ScaleMax), nil).
			WithContext("rating", r.Rating).
			WithContext("scale_max", r.ScaleMax)
	}
	return nil
}

// Summary is the derived, persistable view of a session.
type Summary struct {
	Questions      []string  `json:"questions"`
	Answers        []string  `json:"answers"`
	AggregateScore float64   `json:"aggregateScore"`
	Feedback       string    `json:"feedback"`
	ImprovementTip string    `json:"improvementTip,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Aggregate rescales each record to a percentage and returns the mean.
// Rescaling first keeps partial aggregates combinable. A record failing
// Validate rejects the whole set.
func Aggregate(records []Record) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmptySession
	}
	var total float64
	for i, r := range records {
		if err := r.Validate(); err != nil {
			if appErr, ok := apperrors.As(err); ok {
				appErr.WithContext("index", i)
			}
			return 0, err
		}
		total += r.Percent()
	}
	return total / float64(len(records)), nil
}

// TipFunc generates a one-line improvement tip for a low score.
type TipFunc func(ctx context.Context, score float64, records []Record) (string, error)

// Aggregator builds summaries. The zero value is not usable; use
// NewAggregator.
type Aggregator struct {
	threshold float64
	tip       TipFunc
	now       func() time.Time
	logger    *apperrors.Logger
}

type AggregatorOption func(*Aggregator)

func WithThreshold(pct float64) AggregatorOption {
	return func(a *Aggregator) {
		if pct > 0 {
			a.threshold = pct
		}
	}
}

func WithTip(fn TipFunc) AggregatorOption {
	return func(a *Aggregator) { a.tip = fn }
}

func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(logger *apperrors.Logger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		threshold: DefaultTipThreshold,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = apperrors.NewNopLogger()
	}
	return a
}

// Threshold returns the tip threshold in percent.
func (a *Aggregator) Threshold() float64 { return a.threshold }

// Summarize folds records into a Summary. A tip is generated only when the
// score is below the threshold, and a failing tip call leaves it empty.
func (a *Aggregator) Summarize(ctx context.Context, records []Record) (Summary, error) {
	score, err := Aggregate(records)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Questions:      make([]string, len(records)),
		Answers:        make([]string, len(records)),
		AggregateScore: score,
		CreatedAt:      a.now().UTC(),
	}
	feedback := make([]string, 0, len(records))
	for i, r := range records {
		summary.Questions[i] = r.Question
		summary.Answers[i] = r.Answer
		if f := strings.TrimSpace(r.Feedback); f != "" {
			feedback = append(feedback, strings.TrimRight(f, ". "))
		}
	}
	summary.Feedback = strings.Join(feedback, ". ")

	if score < a.threshold && a.tip != nil {
		tip, err := a.tip(ctx, score, records)
		if err != nil {
			a.logger.Warn("Improvement tip generation failed, continuing without tip",
				"score", score,
				"error", err.Error())
		} else {
			summary.ImprovementTip = firstLine(tip)
		}
	}

	return summary, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
