// Package pipeline wraps a pretrained text-generation model behind a single
// call that maps prompt text to generated continuations.
package pipeline

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("pipeline is not configured")
	ErrEmptyPrompt   = errors.New("prompt is empty")
)

// Params controls decoding for one Generate call.
type Params struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
	DoSample     bool
}

// Output is one generated sequence. GeneratedText holds only the
// continuation, never the prompt.
type Output struct {
	GeneratedText string `json:"generated_text"`
}

type Pipeline interface {
	Generate(ctx context.Context, prompt string, params Params) ([]Output, error)
	Name() string
}
