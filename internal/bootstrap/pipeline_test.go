package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"feedbackbot/internal/config"
	"feedbackbot/internal/pipeline"
)

func TestPipelineFactory_RemoteWithoutTokenFails(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Backend: "remote", Name: "microsoft/phi-2", BaseURL: "http://localhost:1/v1"}}
	p, err := NewPipelineFactory(cfg)(context.Background())
	require.Nil(t, p)
	require.ErrorIs(t, err, pipeline.ErrNotConfigured)
}

func TestPipelineFactory_RemoteWithToken(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Backend: "remote", Name: "microsoft/phi-2", BaseURL: "http://localhost:1/v1"}}
	cfg.Secrets.HuggingFace.Token = "hf_test"
	p, err := NewPipelineFactory(cfg)(context.Background())
	require.NoError(t, err)
	require.Equal(t, "microsoft/phi-2", p.Name())
}

func TestPipelineFactory_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{Backend: "tpu"}}
	_, err := NewPipelineFactory(cfg)(context.Background())
	require.ErrorIs(t, err, pipeline.ErrNotConfigured)
}

func TestPipelineFactory_ONNXAutoDownloadNeedsToken(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{
		Backend:      "onnx",
		Name:         "microsoft/phi-2",
		ONNXPath:     filepath.Join(t.TempDir(), "model.onnx"),
		VocabSize:    51200,
		AutoDownload: true,
	}}
	_, err := NewPipelineFactory(cfg)(context.Background())
	require.ErrorIs(t, err, pipeline.ErrNotConfigured)
	require.ErrorContains(t, err, "download model failed")
}
