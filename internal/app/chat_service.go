package app

import (
	"context"
	"fmt"

	"feedbackbot/internal/chat"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/pipeline"
)

// ChatService answers questions with the process-wide pipeline.
type ChatService struct {
	loader *pipeline.Loader
}

func NewChatService(loader *pipeline.Loader) *ChatService {
	return &ChatService{loader: loader}
}

// Ask blocks until the pipeline finished loading, then generates an answer.
// A failed load yields chat.ErrModelUnavailable.
func (s *ChatService) Ask(ctx context.Context, question string) (*chat.Reply, error) {
	p, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", chat.ErrModelUnavailable, err)
	}

	reply, err := chat.NewGenerator(p).Generate(ctx, question)
	if err != nil {
		return nil, err
	}
	logger.L.Info("question answered", "model", p.Name(), "latency_seconds", reply.LatencySeconds())
	return reply, nil
}

// Available waits for the pipeline load and reports whether it succeeded.
func (s *ChatService) Available(ctx context.Context) bool {
	_, err := s.loader.Load(ctx)
	return err == nil
}

func (s *ChatService) Status() pipeline.Status {
	return s.loader.Status()
}
