// Package extract isolates and parses the JSON value embedded in free-form
// model output.
//
// Model responses arrive as untrusted text: usually a JSON document, often
// wrapped in Markdown code fences, sometimes surrounded by prose that itself
// contains braces or brackets. Extract strips the fences, finds a balanced
// top-level delimiter pair of the requested shape and parses it strictly. It
// never repairs malformed JSON.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// Shape is the top-level JSON kind the caller expects.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
)

// ParseShape converts user input into a Shape.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeObject:
		return ShapeObject, nil
	case ShapeArray:
		return ShapeArray, nil
	default:
		return "", apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown shape %q (want object or array)", s), nil)
	}
}

func (s Shape) delimiters() (open, close byte) {
	if s == ShapeArray {
		return '[', ']'
	}
	return '{', '}'
}

var fencePattern = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// StripFences removes Markdown code-fence markers and any language tag that
// follows them. The fenced content is left in place.
func StripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// maxCandidates bounds how many balanced spans are decoded for one call.
const maxCandidates = 256

// Extract returns the parsed JSON value of the given shape found in raw.
//
// Balanced spans are located in a single string-aware pass over the text, so
// braces inside string values and brackets of the other kind are handled.
// Spans are then decoded in order of their opening delimiter and the first
// that parses wins. The value is map[string]any for objects and []any for
// arrays, with numbers decoded as float64.
//
// Failures are extraction errors with reason no-json-found when no balanced
// pair exists, and parse-error when pairs exist but none is valid JSON.
func Extract(raw string, shape Shape) (any, error) {
	text := StripFences(raw)
	open, _ := shape.delimiters()

	spans := balancedSpans(text, open)
	if len(spans) == 0 {
		return nil, apperrors.NewExtractionError(apperrors.ReasonNoJSONFound,
			fmt.Sprintf("no balanced JSON %s found in model output", shape), nil).
			WithContext("output_length", len(raw))
	}

	var lastErr error
	tried := 0
	for _, sp := range spans {
		if tried == maxCandidates {
			break
		}
		tried++
		value, err := decodeStrict(text[sp.start:sp.end+1], shape)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return nil, apperrors.NewExtractionError(apperrors.ReasonParseError,
		fmt.Sprintf("model output contains no valid JSON %s", shape), lastErr).
		WithContext("candidates", len(spans)).
		WithContext("tried", tried)
}

// span is an inclusive pair of delimiter offsets.
type span struct {
	start, end int
}

// balancedSpans returns every balanced span opened by open, sorted by start.
//
// Both bracket kinds are tracked so mismatched nesting rejects every span
// still open at that point instead of producing a wrong slice. Quotes only
// count while a span is open; outside one they are prose.
func balancedSpans(text string, open byte) []span {
	type opener struct {
		pos   int
		close byte
	}
	var (
		stack    []opener
		spans    []span
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if len(stack) > 0 {
				inString = true
			}
		case '{':
			stack = append(stack, opener{pos: i, close: '}'})
		case '[':
			stack = append(stack, opener{pos: i, close: ']'})
		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if top.close != c {
				stack = stack[:0]
				continue
			}
			stack = stack[:len(stack)-1]
			if text[top.pos] == open {
				spans = append(spans, span{start: top.pos, end: i})
			}
		}
	}

	// Inner spans close first.
	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })
	return spans
}

func decodeStrict(candidate string, shape Shape) (any, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON %s", shape)
	}

	switch value.(type) {
	case map[string]any:
		if shape != ShapeObject {
			return nil, fmt.Errorf("expected JSON %s", shape)
		}
	case []any:
		if shape != ShapeArray {
			return nil, fmt.Errorf("expected JSON %s", shape)
		}
	default:
		return nil, fmt.Errorf("expected JSON %s", shape)
	}
	return value, nil
}
