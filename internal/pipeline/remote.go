package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// CompletionClient is the subset of openai.Client used by Remote; it is easy to mock in tests.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, req openai.CompletionRequest) (openai.CompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

type RemoteConfig struct {
	BaseURL string
	Token   string
	Model   string
	Timeout time.Duration
	// Probe lists the endpoint's models at load time so a bad URL or token
	// surfaces before the first question.
	Probe bool
}

// Remote runs generation on an OpenAI-compatible text-completion endpoint
// (text-generation-inference, vLLM, the Hugging Face router).
type Remote struct {
	client CompletionClient
	model  string
}

func NewCompletionClient(cfg RemoteConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.Token)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(clientCfg)
}

// LoadRemote validates cfg and wraps client. A nil client is built from cfg.
func LoadRemote(ctx context.Context, cfg RemoteConfig, client CompletionClient) (*Remote, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("remote backend needs base url and model: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("remote backend needs an access token: %w", ErrNotConfigured)
	}
	if client == nil {
		client = NewCompletionClient(cfg)
	}

	if cfg.Probe {
		if _, err := client.ListModels(ctx); err != nil {
			return nil, fmt.Errorf("probe completion endpoint failed: %w", err)
		}
	}
	return &Remote{client: client, model: cfg.Model}, nil
}

func (r *Remote) Name() string {
	return r.model
}

func (r *Remote) Generate(ctx context.Context, prompt string, params Params) ([]Output, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	req := openai.CompletionRequest{
		Model:     r.model,
		Prompt:    prompt,
		MaxTokens: params.MaxNewTokens,
	}
	if params.DoSample {
		req.Temperature = float32(params.Temperature)
		req.TopP = float32(params.TopP)
	}

	resp, err := r.client.CreateCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create completion failed: %w", err)
	}

	outputs := make([]Output, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		outputs = append(outputs, Output{GeneratedText: choice.Text})
	}
	return outputs, nil
}
