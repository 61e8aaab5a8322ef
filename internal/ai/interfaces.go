package ai

import (
	"context"
	"time"
)

// Provider produces raw text for one operation. It satisfies
// structured.Generator, so the pipeline never sees the backend.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Recorder receives one event per model call. Usage is nil when the
// response carried no usage metadata.
type Recorder interface {
	RecordAIRequest(ctx context.Context, operation, model string, duration time.Duration, usage *TokenUsage, err error)
}
