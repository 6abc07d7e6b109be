package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"feedbackbot/internal/model"
)

// FeedbackPublisher queues rated exchanges for the persist worker.
type FeedbackPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewFeedbackPublisher(conn *amqp.Connection, queueName string) *FeedbackPublisher {
	return &FeedbackPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *FeedbackPublisher) Publish(ctx context.Context, feedback model.Feedback) error {
	ch, err := OpenChannel(p.conn, p.queueName, 0)
	if err != nil {
		return err
	}
	defer ch.Close()

	payload, err := json.Marshal(feedback)
	if err != nil {
		return fmt.Errorf("marshal feedback payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish feedback failed: %w", err)
	}
	return nil
}

