package app

import (
	"context"
	"errors"
	"strings"

	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrFeedbackEnqueue = errors.New("feedback enqueue failed")
)

type FeedbackWriter interface {
	Create(ctx context.Context, feedback *model.Feedback) error
}

type FeedbackReader interface {
	List(ctx context.Context, limit, offset int) ([]model.Feedback, error)
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*model.FeedbackStats, error)
}

type AsyncFeedbackPublisher interface {
	Publish(ctx context.Context, feedback model.Feedback) error
}

type HistoryCache interface {
	GetPage(ctx context.Context, limit, offset int) (*model.FeedbackPage, bool, error)
	SetPage(ctx context.Context, limit, offset int, page *model.FeedbackPage) error
	GetStats(ctx context.Context) (*model.FeedbackStats, bool, error)
	SetStats(ctx context.Context, stats *model.FeedbackStats) error
	MarkDirty(ctx context.Context) error
	IsDirty(ctx context.Context) (bool, error)
}

type RecordInput struct {
	Question string
	Answer   string
	Latency  float64
	Rating   model.Rating
}

type RecordResult struct {
	Feedback model.Feedback `json:"feedback"`
	// Queued is true when the record was handed to the persist worker.
	Queued bool `json:"queued"`
}

// FeedbackService stores rated exchanges. With a publisher set, records are
// queued for the persist worker instead of written inline.
type FeedbackService struct {
	repo         FeedbackWriter
	publisher    AsyncFeedbackPublisher
	historyCache HistoryCache
}

func NewFeedbackService(repo FeedbackWriter, publisher AsyncFeedbackPublisher, historyCache HistoryCache) *FeedbackService {
	return &FeedbackService{
		repo:         repo,
		publisher:    publisher,
		historyCache: historyCache,
	}
}

func (s *FeedbackService) Record(ctx context.Context, input RecordInput) (*RecordResult, error) {
	feedback := model.Feedback{
		Question: strings.TrimSpace(input.Question),
		Answer:   input.Answer,
		Latency:  input.Latency,
		Rating:   model.Rating(strings.TrimSpace(string(input.Rating))),
	}
	if feedback.Question == "" {
		return nil, ErrInvalidInput
	}
	if err := feedback.Validate(); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.markDirty(ctx)
		if err := s.publisher.Publish(ctx, feedback); err != nil {
			logger.L.Error("publish feedback failed", "error", err)
			return nil, ErrFeedbackEnqueue
		}
		return &RecordResult{Feedback: feedback, Queued: true}, nil
	}

	if err := s.repo.Create(ctx, &feedback); err != nil {
		return nil, err
	}
	s.markDirty(ctx)
	return &RecordResult{Feedback: feedback}, nil
}

// InvalidateHistory is called by the persist worker after a queued write lands.
func (s *FeedbackService) InvalidateHistory(ctx context.Context) {
	s.markDirty(ctx)
}

func (s *FeedbackService) markDirty(ctx context.Context) {
	if s.historyCache == nil {
		return
	}
	if err := s.historyCache.MarkDirty(ctx); err != nil {
		logger.L.Warn("mark history dirty failed", "error", err)
	}
}

// HistoryService reads the feedback table, through the cache when present.
type HistoryService struct {
	repo         FeedbackReader
	historyCache HistoryCache
}

func NewHistoryService(repo FeedbackReader, historyCache HistoryCache) *HistoryService {
	return &HistoryService{repo: repo, historyCache: historyCache}
}

func (s *HistoryService) List(ctx context.Context, limit, offset int) (*model.FeedbackPage, error) {
	limit, offset = repository.NormalizePage(limit, offset)

	if s.cacheReadable(ctx) {
		if cached, hit, err := s.historyCache.GetPage(ctx, limit, offset); err == nil && hit {
			return cached, nil
		}
	}

	records, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	page := &model.FeedbackPage{Records: records, Total: total, Limit: limit, Offset: offset}

	if s.cacheReadable(ctx) {
		_ = s.historyCache.SetPage(ctx, limit, offset, page)
	}
	return page, nil
}

func (s *HistoryService) Stats(ctx context.Context) (*model.FeedbackStats, error) {
	if s.cacheReadable(ctx) {
		if cached, hit, err := s.historyCache.GetStats(ctx); err == nil && hit {
			return cached, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if s.cacheReadable(ctx) {
		_ = s.historyCache.SetStats(ctx, stats)
	}
	return stats, nil
}

func (s *HistoryService) cacheReadable(ctx context.Context) bool {
	if s.historyCache == nil {
		return false
	}
	dirty, err := s.historyCache.IsDirty(ctx)
	return err == nil && !dirty
}
