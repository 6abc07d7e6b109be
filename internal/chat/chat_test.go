package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbackbot/internal/pipeline"
)

type fakePipeline struct {
	outputs []pipeline.Output
	err     error

	prompts []string
	params  []pipeline.Params
}

func (f *fakePipeline) Generate(_ context.Context, prompt string, params pipeline.Params) ([]pipeline.Output, error) {
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, params)
	return f.outputs, f.err
}

func (f *fakePipeline) Name() string { return "fake" }

func TestFormatPrompt(t *testing.T) {
	for _, q := range []string{"What is Go?", "  spaced  ", "multi\nline", "日本の首都は？"} {
		assert.Equal(t, "User: "+q+"\nAssistant:", FormatPrompt(q))
	}
}

func TestExtractResponse(t *testing.T) {
	cases := []struct {
		name string
		in   []pipeline.Output
		want string
	}{
		{"plain", []pipeline.Output{{GeneratedText: " Tokyo is the capital. "}}, "Tokyo is the capital."},
		{"prefixed", []pipeline.Output{{GeneratedText: "Assistant:   Tokyo."}}, "Tokyo."},
		{"prefix after whitespace", []pipeline.Output{{GeneratedText: "\n Assistant: Tokyo."}}, "Tokyo."},
		{"prefix only once", []pipeline.Output{{GeneratedText: "Assistant: Assistant: hi"}}, "Assistant: hi"},
		{"prefix mid text", []pipeline.Output{{GeneratedText: "Sure. Assistant: hi"}}, "Sure. Assistant: hi"},
		{"first output wins", []pipeline.Output{{GeneratedText: "one"}, {GeneratedText: "two"}}, "one"},
		{"empty", []pipeline.Output{{GeneratedText: "   "}}, Placeholder},
		{"prefix only", []pipeline.Output{{GeneratedText: "Assistant:"}}, Placeholder},
		{"no outputs", nil, Placeholder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractResponse(tc.in))
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	fp := &fakePipeline{outputs: []pipeline.Output{{GeneratedText: " Assistant: Paris."}}}
	g := NewGenerator(fp)

	reply, err := g.Generate(context.Background(), "Capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", reply.Answer)
	assert.Equal(t, "Capital of France?", reply.Question)
	assert.GreaterOrEqual(t, reply.LatencySeconds(), 0.0)

	require.Equal(t, []string{"User: Capital of France?\nAssistant:"}, fp.prompts)
	assert.Equal(t, pipeline.Params{MaxNewTokens: 512, Temperature: 0.7, TopP: 0.9, DoSample: true}, fp.params[0])
}

func TestGenerator_EmptyOutputUsesPlaceholder(t *testing.T) {
	g := NewGenerator(&fakePipeline{outputs: []pipeline.Output{{GeneratedText: ""}}})
	reply, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, Placeholder, reply.Answer)
}

func TestGenerator_Unavailable(t *testing.T) {
	_, err := NewGenerator(nil).Generate(context.Background(), "hello")
	require.ErrorIs(t, err, ErrModelUnavailable)

	var g *Generator
	_, err = g.Generate(context.Background(), "hello")
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestGenerator_RejectsBlankQuestion(t *testing.T) {
	fp := &fakePipeline{}
	_, err := NewGenerator(fp).Generate(context.Background(), " \n\t")
	require.ErrorIs(t, err, ErrQuestionEmpty)
	assert.Empty(t, fp.prompts)
}

func TestGenerator_WrapsPipelineError(t *testing.T) {
	boom := errors.New("create completion failed: 503")
	_, err := NewGenerator(&fakePipeline{err: boom}).Generate(context.Background(), "hello")
	require.ErrorIs(t, err, ErrGeneration)
	require.ErrorIs(t, err, boom)
}
