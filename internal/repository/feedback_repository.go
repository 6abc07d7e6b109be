package repository

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"feedbackbot/internal/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type FeedbackRepository struct {
	db *gorm.DB
	// SQLite only supports one writer at a time
	writeMu sync.Mutex
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *model.Feedback) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return fmt.Errorf("create feedback failed: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) CreateBatch(ctx context.Context, records []model.Feedback) error {
	if len(records) == 0 {
		return nil
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("create feedback batch failed: %w", err)
	}
	return nil
}

// NormalizePage clamps paging arguments to the values List applies.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns records newest first.
func (r *FeedbackRepository) List(ctx context.Context, limit, offset int) ([]model.Feedback, error) {
	limit, offset = NormalizePage(limit, offset)

	var records []model.Feedback
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list feedback failed: %w", err)
	}
	return records, nil
}

func (r *FeedbackRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Feedback{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count feedback failed: %w", err)
	}
	return count, nil
}

func (r *FeedbackRepository) Stats(ctx context.Context) (*model.FeedbackStats, error) {
	var totals struct {
		Total          int64
		AverageLatency float64
	}
	if err := r.db.WithContext(ctx).Model(&model.Feedback{}).
		Select("COUNT(*) AS total, COALESCE(AVG(latency), 0) AS average_latency").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("aggregate feedback failed: %w", err)
	}

	var groups []struct {
		Rating model.Rating
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Feedback{}).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Scan(&groups).Error; err != nil {
		return nil, fmt.Errorf("group feedback by rating failed: %w", err)
	}

	stats := &model.FeedbackStats{
		Total:          totals.Total,
		AverageLatency: totals.AverageLatency,
		ByRating:       make(map[model.Rating]int64, len(model.Ratings)),
	}
	for _, rating := range model.Ratings {
		stats.ByRating[rating] = 0
	}
	for _, g := range groups {
		stats.ByRating[g.Rating] = g.Count
	}
	return stats, nil
}
