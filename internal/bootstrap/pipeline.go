package bootstrap

import (
	"context"
	"fmt"
	"time"

	"feedbackbot/internal/config"
	"feedbackbot/internal/hub"
	"feedbackbot/internal/pipeline"
)

// NewPipelineFactory picks the backend named by cfg.Model.Backend.
func NewPipelineFactory(cfg *config.Config) pipeline.Factory {
	m := cfg.Model
	token := cfg.Secrets.HuggingFace.Token

	return func(ctx context.Context) (pipeline.Pipeline, error) {
		switch m.Backend {
		case "remote", "":
			remote, err := pipeline.LoadRemote(ctx, pipeline.RemoteConfig{
				BaseURL: m.BaseURL,
				Token:   token,
				Model:   m.Name,
				Timeout: time.Duration(m.TimeoutSeconds) * time.Second,
				Probe:   m.ProbeOnLoad,
			}, nil)
			if err != nil {
				return nil, err
			}
			return remote, nil
		case "onnx":
			onnxCfg := pipeline.ONNXConfig{
				Name:          m.Name,
				ModelPath:     m.ONNXPath,
				SharedLibPath: m.ONNXSharedLibPath,
				Encoding:      m.Encoding,
				VocabSize:     m.VocabSize,
				EOSTokenID:    m.EOSTokenID,
			}
			if m.AutoDownload {
				onnxCfg.Download = func(ctx context.Context) error {
					if token == "" {
						return fmt.Errorf("hugging face token missing: %w", pipeline.ErrNotConfigured)
					}
					client := hub.New(hub.Config{Endpoint: m.HubEndpoint, Token: token, CacheDir: m.CacheDir})
					_, err := client.Download(ctx, m.Name, m.Revision, m.Files)
					return err
				}
			}
			local, err := pipeline.LoadONNX(ctx, onnxCfg)
			if err != nil {
				return nil, err
			}
			return local, nil
		default:
			return nil, fmt.Errorf("unknown model backend %q: %w", m.Backend, pipeline.ErrNotConfigured)
		}
	}
}
