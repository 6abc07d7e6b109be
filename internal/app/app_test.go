package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"feedbackbot/internal/chat"
	"feedbackbot/internal/database"
	"feedbackbot/internal/model"
	"feedbackbot/internal/pipeline"
	"feedbackbot/internal/repository"
)

func newTestRepo(t *testing.T) *repository.FeedbackRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return repository.NewFeedbackRepository(db)
}

type echoPipeline struct{ text string }

func (e echoPipeline) Generate(context.Context, string, pipeline.Params) ([]pipeline.Output, error) {
	return []pipeline.Output{{GeneratedText: e.text}}, nil
}

func (echoPipeline) Name() string { return "echo" }

// memoryCache is an in-process HistoryCache with the same dirty semantics.
type memoryCache struct {
	pages    map[[2]int]*model.FeedbackPage
	stats    *model.FeedbackStats
	dirty    bool
	marks    int
	pageHits int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{pages: map[[2]int]*model.FeedbackPage{}}
}

func (m *memoryCache) GetPage(_ context.Context, limit, offset int) (*model.FeedbackPage, bool, error) {
	p, ok := m.pages[[2]int{limit, offset}]
	if ok {
		m.pageHits++
	}
	return p, ok, nil
}

func (m *memoryCache) SetPage(_ context.Context, limit, offset int, page *model.FeedbackPage) error {
	m.pages[[2]int{limit, offset}] = page
	return nil
}

func (m *memoryCache) GetStats(context.Context) (*model.FeedbackStats, bool, error) {
	return m.stats, m.stats != nil, nil
}

func (m *memoryCache) SetStats(_ context.Context, stats *model.FeedbackStats) error {
	m.stats = stats
	return nil
}

func (m *memoryCache) MarkDirty(context.Context) error {
	m.marks++
	m.pages = map[[2]int]*model.FeedbackPage{}
	m.stats = nil
	return nil
}

func (m *memoryCache) IsDirty(context.Context) (bool, error) { return m.dirty, nil }

type fakePublisher struct {
	published []model.Feedback
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, feedback model.Feedback) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, feedback)
	return nil
}

func TestChatService_Ask(t *testing.T) {
	loader := pipeline.NewLoader(func(context.Context) (pipeline.Pipeline, error) {
		return echoPipeline{text: "Assistant: Four."}, nil
	})
	svc := NewChatService(loader)

	reply, err := svc.Ask(context.Background(), "2+2?")
	require.NoError(t, err)
	assert.Equal(t, "Four.", reply.Answer)
	assert.GreaterOrEqual(t, reply.LatencySeconds(), 0.0)
	assert.True(t, svc.Available(context.Background()))
	assert.Equal(t, "echo", svc.Status().Model)
}

func TestChatService_FailedLoadIsUnavailable(t *testing.T) {
	loader := pipeline.NewLoader(func(context.Context) (pipeline.Pipeline, error) {
		return nil, errors.New("no token")
	})
	svc := NewChatService(loader)

	_, err := svc.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, chat.ErrModelUnavailable)
	assert.False(t, svc.Available(context.Background()))
	assert.Equal(t, "no token", svc.Status().Error)
}

func TestFeedbackService_RecordDirect(t *testing.T) {
	repo := newTestRepo(t)
	cache := newMemoryCache()
	svc := NewFeedbackService(repo, nil, cache)

	res, err := svc.Record(context.Background(), RecordInput{
		Question: "  What is Go? ", Answer: "A language.", Latency: 0.25, Rating: model.RatingAccurate,
	})
	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.NotZero(t, res.Feedback.ID)
	assert.Equal(t, "What is Go?", res.Feedback.Question)
	assert.Equal(t, 1, cache.marks)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFeedbackService_RecordQueued(t *testing.T) {
	repo := newTestRepo(t)
	pub := &fakePublisher{}
	svc := NewFeedbackService(repo, pub, nil)

	res, err := svc.Record(context.Background(), RecordInput{
		Question: "q", Answer: "a", Latency: 1, Rating: model.RatingInaccurate,
	})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	require.Len(t, pub.published, 1)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFeedbackService_RecordValidation(t *testing.T) {
	svc := NewFeedbackService(newTestRepo(t), nil, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{Question: " ", Rating: model.RatingAccurate})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(ctx, RecordInput{Question: "q", Latency: -0.1, Rating: model.RatingAccurate})
	require.ErrorIs(t, err, model.ErrNegativeLatency)

	_, err = svc.Record(ctx, RecordInput{Question: "q", Rating: "excellent"})
	require.ErrorIs(t, err, model.ErrInvalidRating)
}

func TestFeedbackService_PublishFailure(t *testing.T) {
	svc := NewFeedbackService(newTestRepo(t), &fakePublisher{err: errors.New("channel closed")}, nil)
	_, err := svc.Record(context.Background(), RecordInput{Question: "q", Rating: model.RatingAccurate})
	require.ErrorIs(t, err, ErrFeedbackEnqueue)
}

func TestHistoryService_UsesCacheUntilDirty(t *testing.T) {
	repo := newTestRepo(t)
	cache := newMemoryCache()
	feedback := NewFeedbackService(repo, nil, cache)
	history := NewHistoryService(repo, cache)
	ctx := context.Background()

	_, err := feedback.Record(ctx, RecordInput{Question: "q1", Answer: "a1", Latency: 1, Rating: model.RatingAccurate})
	require.NoError(t, err)

	page, err := history.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.EqualValues(t, 1, page.Total)

	_, err = history.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.pageHits)

	_, err = feedback.Record(ctx, RecordInput{Question: "q2", Answer: "a2", Latency: 3, Rating: model.RatingInaccurate})
	require.NoError(t, err)

	page, err = history.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "q2", page.Records[0].Question)

	stats, err := history.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.InDelta(t, 2.0, stats.AverageLatency, 1e-9)
	assert.EqualValues(t, 1, stats.ByRating[model.RatingInaccurate])
}

func TestHistoryService_SkipsCacheWhileDirty(t *testing.T) {
	repo := newTestRepo(t)
	cache := newMemoryCache()
	cache.dirty = true
	history := NewHistoryService(repo, cache)

	_, err := history.List(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Empty(t, cache.pages)
}

func TestHistoryService_NormalizesPaging(t *testing.T) {
	history := NewHistoryService(newTestRepo(t), nil)
	page, err := history.List(context.Background(), 10000, -1)
	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestSampleDataService_EnsureInitialData(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewSampleDataService(repo, "", nil)
	ctx := context.Background()

	n, err := svc.EnsureInitialData(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SampleRecords()), n)

	n, err = svc.EnsureInitialData(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(SampleRecords()), count)
}

func TestSampleDataService_ReseedChecksPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newTestRepo(t)
	cache := newMemoryCache()
	svc := NewSampleDataService(repo, string(hash), cache)
	ctx := context.Background()
	require.True(t, svc.PasswordRequired())

	_, err = svc.Reseed(ctx, "wrong")
	require.ErrorIs(t, err, ErrAdminPassword)

	n, err := svc.Reseed(ctx, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, len(SampleRecords()), n)
	assert.Equal(t, 1, cache.marks)
}

func TestSampleRecordsAreValid(t *testing.T) {
	for _, r := range SampleRecords() {
		require.NoError(t, r.Validate())
	}
}
