// Package chat turns a user question into a model answer: prompt
// formatting, fixed sampling settings, response extraction and latency.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedbackbot/internal/pipeline"
)

// Placeholder is returned when the model produced no usable text.
const Placeholder = "Failed to extract a response."

const assistantPrefix = "Assistant:"

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrQuestionEmpty    = errors.New("question is empty")
	ErrGeneration       = errors.New("generation failed")
)

// DefaultParams are the sampling settings used for every question.
var DefaultParams = pipeline.Params{
	MaxNewTokens: 512,
	Temperature:  0.7,
	TopP:         0.9,
	DoSample:     true,
}

func FormatPrompt(question string) string {
	return "User: " + question + "\n" + assistantPrefix
}

// ExtractResponse takes the first output, trims it and drops a leading
// "Assistant:" marker. Empty results become Placeholder.
func ExtractResponse(outputs []pipeline.Output) string {
	if len(outputs) == 0 {
		return Placeholder
	}
	text := strings.TrimSpace(outputs[0].GeneratedText)
	if rest, ok := strings.CutPrefix(text, assistantPrefix); ok {
		text = strings.TrimSpace(rest)
	}
	if text == "" {
		return Placeholder
	}
	return text
}

type Reply struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Latency  time.Duration `json:"-"`
}

// LatencySeconds is the stored form of Latency.
func (r *Reply) LatencySeconds() float64 {
	return r.Latency.Seconds()
}

type Generator struct {
	pipeline pipeline.Pipeline
	params   pipeline.Params
}

// NewGenerator accepts a nil pipeline; Generate then reports ErrModelUnavailable.
func NewGenerator(p pipeline.Pipeline) *Generator {
	return &Generator{pipeline: p, params: DefaultParams}
}

func (g *Generator) Generate(ctx context.Context, question string) (*Reply, error) {
	if g == nil || g.pipeline == nil {
		return nil, ErrModelUnavailable
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrQuestionEmpty
	}

	start := time.Now()
	outputs, err := g.pipeline.Generate(ctx, FormatPrompt(question), g.params)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return &Reply{
		Question: question,
		Answer:   ExtractResponse(outputs),
		Latency:  latency,
	}, nil
}
