// Package structured runs one generation attempt end to end: prompt the
// model, extract the JSON value from its text and normalize it against a
// schema.
package structured

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/extract"
	"github.com/Tanishka82/nexa-app/internal/schema"
)

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ExtractAndValidate parses rawText as the given shape and normalizes it. An
// empty shape means the schema's own shape.
func ExtractAndValidate(rawText string, shape extract.Shape, s schema.Schema) (schema.Result, error) {
	if shape == "" {
		shape = s.Shape
	}
	if shape != s.Shape {
		return schema.Result{}, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("schema %s expects a JSON %s, not %s", s.Name, s.Shape, shape), nil)
	}

	value, err := extract.Extract(rawText, shape)
	if err != nil {
		return schema.Result{}, err
	}
	return schema.Normalize(value, s)
}

// Generate performs a single attempt with no retries. Any failure is a
// generation, extraction or validation error; nothing partial is returned.
func Generate(ctx context.Context, gen Generator, prompt string, s schema.Schema) (schema.Result, error) {
	raw, err := invoke(ctx, gen, prompt)
	if err != nil {
		return schema.Result{}, err
	}
	return ExtractAndValidate(raw, s.Shape, s)
}

// Producer binds a prompt and schema into the function shape the cache
// store calls on a miss.
func Producer(gen Generator, prompt string, s schema.Schema) func(ctx context.Context) (schema.Result, error) {
	return func(ctx context.Context) (schema.Result, error) {
		return Generate(ctx, gen, prompt, s)
	}
}

// GenerateAs runs Generate and decodes the normalized value into T.
func GenerateAs[T any](ctx context.Context, gen Generator, prompt string, s schema.Schema) (T, schema.Result, error) {
	var zero T
	res, err := Generate(ctx, gen, prompt, s)
	if err != nil {
		return zero, res, err
	}
	out, err := schema.DecodeAs[T](res.Value)
	if err != nil {
		return zero, res, err
	}
	return out, res, nil
}

// GenerateText is for free-form outputs such as cover letters. Code fences
// are removed and an empty answer is a generation failure.
func GenerateText(ctx context.Context, gen Generator, prompt string) (string, error) {
	raw, err := invoke(ctx, gen, prompt)
	if err != nil {
		return "", err
	}
	text := extract.StripFences(raw)
	if text == "" {
		return "", apperrors.NewGenerationError(apperrors.ErrCodeAIMalformedOutput, "model returned no text", nil)
	}
	return text, nil
}

func invoke(ctx context.Context, gen Generator, prompt string) (string, error) {
	raw, err := gen.Generate(ctx, prompt)
	if err == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", timeoutError(ctxErr)
		}
		return raw, nil
	}

	if apperrors.HasType(err, apperrors.ErrorTypeGeneration) {
		return "", err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "", timeoutError(err)
	}
	return "", apperrors.NewGenerationError(apperrors.ErrCodeAIServiceFailed, "text generation failed", err)
}

func timeoutError(cause error) error {
	msg := "text generation timed out"
	if errors.Is(cause, context.Canceled) {
		msg = "text generation was cancelled"
	}
	return apperrors.NewGenerationError(apperrors.ErrCodeAITimeout, msg, cause)
}
