//go:build integration

package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"feedbackbot/internal/config"
	"feedbackbot/internal/database"
	"feedbackbot/internal/model"
	rabbitmqClient "feedbackbot/internal/platform/rabbitmq"
	"feedbackbot/internal/repository"
)

func TestFeedbackPersistWorker_DrainsQueue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	const queue = "chat.feedback.persist.test"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.11-management")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	conn, err := rabbitmqClient.New(ctx, config.RabbitMQConfig{URL: amqpURL, FeedbackPersistQueue: queue})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// New declares the queue up front
	checkCh, err := conn.Channel()
	require.NoError(t, err)
	_, err = checkCh.QueueDeclarePassive(queue, true, false, false, false, nil)
	require.NoError(t, err)
	require.NoError(t, checkCh.Close())

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	repo := repository.NewFeedbackRepository(db)

	w := NewFeedbackPersistWorker(conn, repo, queue, 1)
	var persisted atomic.Int32
	w.OnPersisted = func(context.Context) { persisted.Add(1) }
	require.NoError(t, w.Start(ctx))
	t.Cleanup(w.Close)

	publisher := rabbitmqClient.NewFeedbackPublisher(conn, queue)
	require.NoError(t, publisher.Publish(ctx, model.Feedback{Question: "q1", Answer: "a1", Latency: 0.3, Rating: model.RatingAccurate}))
	require.NoError(t, publisher.Publish(ctx, model.Feedback{Question: "bad", Answer: "a", Latency: -1, Rating: model.RatingAccurate}))
	require.NoError(t, publisher.Publish(ctx, model.Feedback{Question: "q2", Answer: "a2", Latency: 1.1, Rating: model.RatingInaccurate}))

	require.Eventually(t, func() bool {
		n, err := repo.Count(ctx)
		return err == nil && n == 2
	}, 30*time.Second, 200*time.Millisecond)
	require.EqualValues(t, 2, persisted.Load())

	records, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, "q2", records[0].Question)
	require.Equal(t, "q1", records[1].Question)
}
