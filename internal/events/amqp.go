package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// BrokerPublisher is satisfied by *rabbitmq.Client.
type BrokerPublisher interface {
	PublishWithRetry(ctx context.Context, routingKey string, body []byte, contentType string) error
}

// AMQPSink publishes events to the configured exchange using the event type
// as routing key.
type AMQPSink struct {
	publisher BrokerPublisher
}

func NewAMQPSink(publisher BrokerPublisher) *AMQPSink {
	return &AMQPSink{publisher: publisher}
}

func (s *AMQPSink) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.publisher.PublishWithRetry(ctx, ev.Type, body, "application/json")
}
