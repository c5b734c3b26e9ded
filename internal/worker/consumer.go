package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/botmr-be/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliverySource yields broker deliveries. *rabbitmq.Client satisfies it.
type DeliverySource interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// JobMessage is the body of a job submitted through the broker.
type JobMessage struct {
	Topic    string          `json:"topic"`
	Payload  json.RawMessage `json:"payload"`
	Priority *int            `json:"priority,omitempty"`
}

// Relay moves job messages from the broker into the job queue, so other
// services can submit work without calling the HTTP API.
type Relay struct {
	queue       *JobQueue
	source      DeliverySource
	logger      *slog.Logger
	consumerTag string
}

// NewRelay creates a relay consuming from source under consumerTag.
func NewRelay(queue *JobQueue, source DeliverySource, logger *slog.Logger, consumerTag string) *Relay {
	return &Relay{
		queue:       queue,
		source:      source,
		logger:      logger,
		consumerTag: consumerTag,
	}
}

// Run consumes until ctx is canceled or the delivery channel closes.
func (r *Relay) Run(ctx context.Context) error {
	deliveries, err := r.source.Consume(r.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	r.logger.Info("Job relay started", slog.String("consumer_tag", r.consumerTag))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Job relay stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				r.logger.Warn("RabbitMQ delivery channel closed")
				return nil
			}
			r.handleDelivery(ctx, delivery)
		}
	}
}

func (r *Relay) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var msg JobMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil || msg.Topic == "" {
		if err == nil {
			err = errors.New("topic is required")
		}
		r.logger.Error("Failed to parse job message",
			slog.String("error", err.Error()),
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
		)
		// Malformed messages go to the dead-letter route, if any
		r.nack(delivery, false)
		return
	}

	var opts []EnqueueOption
	if msg.Priority != nil {
		opts = append(opts, WithPriority(*msg.Priority))
	}

	payload := msg.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	jobID, err := r.queue.Enqueue(ctx, msg.Topic, payload, opts...)
	if err != nil {
		requeue := errors.Is(err, domain.ErrQueueFull) || errors.Is(err, context.Canceled)
		r.logger.Error("Failed to enqueue relayed job",
			slog.String("topic", msg.Topic),
			slog.String("error", err.Error()),
			slog.Bool("requeue", requeue),
		)
		r.nack(delivery, requeue)
		return
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		r.logger.Error("Failed to ACK message",
			slog.String("job_id", jobID),
			slog.String("error", ackErr.Error()),
		)
		return
	}

	r.logger.Debug("Relayed job enqueued",
		slog.String("job_id", jobID),
		slog.String("topic", msg.Topic),
	)
}

func (r *Relay) nack(delivery amqp.Delivery, requeue bool) {
	if err := delivery.Nack(false, requeue); err != nil {
		r.logger.Error("Failed to NACK message",
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
			slog.String("error", err.Error()),
		)
	}
}
