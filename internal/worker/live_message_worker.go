package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"carely/internal/model"
	"carely/internal/repository"
)

// LiveMessageWorker drains the WhatsApp message queue into MySQL. Messages
// that cannot be decoded or stored are rejected without requeue, so a broken
// payload cannot wedge the queue.
type LiveMessageWorker struct {
	conn      *amqp.Connection
	repo      *repository.LiveMessageRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLiveMessageWorker(conn *amqp.Connection, repo *repository.LiveMessageRepository, queueName string) *LiveMessageWorker {
	return &LiveMessageWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *LiveMessageWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
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
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

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

				var msg model.LiveMessage
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					log.Printf("worker decode live message failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				msg.ID = 0

				if err := w.repo.Create(&msg); err != nil {
					log.Printf("worker persist live message failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *LiveMessageWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
