package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/platform/rabbitmq"
)

type FeedbackCreator interface {
	Create(ctx context.Context, feedback *model.Feedback) error
}

// errPoison marks deliveries that can never be persisted.
var errPoison = errors.New("undeliverable feedback payload")

// FeedbackPersistWorker drains the feedback queue into the database.
type FeedbackPersistWorker struct {
	conn      *amqp.Connection
	repo      FeedbackCreator
	queueName string
	prefetch  int
	// OnPersisted runs after each stored record, e.g. to invalidate caches.
	OnPersisted func(ctx context.Context)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFeedbackPersistWorker builds a worker holding at most prefetch
// unacknowledged deliveries; values below 1 mean one at a time.
func NewFeedbackPersistWorker(conn *amqp.Connection, repo FeedbackCreator, queueName string, prefetch int) *FeedbackPersistWorker {
	return &FeedbackPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		prefetch:  max(prefetch, 1),
	}
}

func (w *FeedbackPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := rabbitmq.OpenChannel(w.conn, w.queueName, w.prefetch)
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.deliver(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *FeedbackPersistWorker) deliver(ctx context.Context, d amqp.Delivery) {
	err := w.handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errPoison):
		logger.L.Warn("worker dropped feedback", "error", err)
		_ = d.Nack(false, false)
	default:
		// retry once, then drop
		logger.L.Error("worker persist feedback failed", "redelivered", d.Redelivered, "error", err)
		_ = d.Nack(false, !d.Redelivered)
	}
}

func (w *FeedbackPersistWorker) handle(ctx context.Context, body []byte) error {
	var feedback model.Feedback
	if err := json.Unmarshal(body, &feedback); err != nil {
		return fmt.Errorf("%w: decode: %w", errPoison, err)
	}
	// ids are assigned by the database
	feedback.ID = 0
	if err := feedback.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errPoison, err)
	}

	if err := w.repo.Create(ctx, &feedback); err != nil {
		return err
	}
	if w.OnPersisted != nil {
		w.OnPersisted(ctx)
	}
	return nil
}

func (w *FeedbackPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
