package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"carely/internal/model"
)

// LiveMessagePublisher queues WhatsApp conversation messages for the
// persistence worker so the webhook never waits on MySQL.
type LiveMessagePublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewLiveMessagePublisher(conn *amqp.Connection, queueName string) *LiveMessagePublisher {
	return &LiveMessagePublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *LiveMessagePublisher) Publish(ctx context.Context, msg model.LiveMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal live message failed: %w", err)
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
		return fmt.Errorf("publish live message failed: %w", err)
	}
	return nil
}
