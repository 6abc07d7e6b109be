package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
)

var ErrAdminPassword = errors.New("admin password is incorrect")

type SampleStore interface {
	Count(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, records []model.Feedback) error
}

// SampleRecords is the demo history inserted into an empty database.
func SampleRecords() []model.Feedback {
	return []model.Feedback{
		{
			Question: "What is machine learning?",
			Answer:   "Machine learning is a branch of AI in which systems learn patterns from data instead of following hand-written rules.",
			Latency:  1.8,
			Rating:   model.RatingAccurate,
		},
		{
			Question: "Explain the difference between supervised and unsupervised learning.",
			Answer:   "Supervised learning trains on labelled examples. Unsupervised learning finds structure in unlabelled data, for example by clustering.",
			Latency:  2.4,
			Rating:   model.RatingAccurate,
		},
		{
			Question: "What is a large language model?",
			Answer:   "A large language model is a neural network trained on a large text corpus to predict the next token.",
			Latency:  2.1,
			Rating:   model.RatingPartiallyAccurate,
		},
		{
			Question: "Who created Python?",
			Answer:   "Python was created by James Gosling in 1995.",
			Latency:  1.2,
			Rating:   model.RatingInaccurate,
		},
		{
			Question: "How does a transformer use attention?",
			Answer:   "Each token computes weights over every other token in the sequence and mixes their representations using those weights.",
			Latency:  3.0,
			Rating:   model.RatingPartiallyAccurate,
		},
	}
}

type SampleDataService struct {
	repo         SampleStore
	passwordHash string
	historyCache HistoryCache
}

func NewSampleDataService(repo SampleStore, adminPasswordHash string, historyCache HistoryCache) *SampleDataService {
	return &SampleDataService{repo: repo, passwordHash: adminPasswordHash, historyCache: historyCache}
}

// PasswordRequired reports whether Reseed checks an admin password.
func (s *SampleDataService) PasswordRequired() bool {
	return s.passwordHash != ""
}

func (s *SampleDataService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// EnsureInitialData seeds the sample records when the table is empty and
// returns how many rows it inserted.
func (s *SampleDataService) EnsureInitialData(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	return s.insert(ctx)
}

// Reseed appends another copy of the sample records.
func (s *SampleDataService) Reseed(ctx context.Context, password string) (int, error) {
	if s.PasswordRequired() {
		if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
			return 0, ErrAdminPassword
		}
	}
	return s.insert(ctx)
}

func (s *SampleDataService) insert(ctx context.Context) (int, error) {
	records := SampleRecords()
	if err := s.repo.CreateBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("insert sample data failed: %w", err)
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx)
	}
	logger.L.Info("sample data inserted", "records", len(records))
	return len(records), nil
}
