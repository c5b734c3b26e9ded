// Package events fans lifecycle events out to RabbitMQ and WebSocket
// subscribers.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event types
const (
	RecordingStarted = "recording.started"
	RecordingStopped = "recording.stopped"
	RecordingExpired = "recording.expired"
	MeetingProcessed = "meeting.processed"
	MeetingFailed    = "meeting.failed"
	JobUpdated       = "job.updated"
)

// Event is the envelope delivered to every sink.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives events from the bus.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Emitter is what services depend on to announce events.
type Emitter interface {
	Emit(ctx context.Context, eventType string, data map[string]any)
}

const defaultBufferSize = 256

// Bus buffers events and delivers them to its sinks from the Run goroutine.
type Bus struct {
	logger *slog.Logger
	queue  chan Event

	mu    sync.RWMutex
	sinks []Sink
}

func NewBus(logger *slog.Logger, sinks ...Sink) *Bus {
	return &Bus{
		logger: logger,
		queue:  make(chan Event, defaultBufferSize),
		sinks:  sinks,
	}
}

func (b *Bus) AddSink(s Sink) {
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

// Emit queues an event. When the buffer is full the event is dropped.
func (b *Bus) Emit(ctx context.Context, eventType string, data map[string]any) {
	if b == nil {
		return
	}
	ev := Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}

	select {
	case b.queue <- ev:
	default:
		b.logger.Warn("Event buffer full, dropping event", slog.String("type", eventType))
	}
}

// Run delivers events until ctx is canceled, then flushes what is left.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, ev)
		case <-ctx.Done():
			b.flush()
			return
		}
	}
}

func (b *Bus) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, ev Event) {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Publish(ctx, ev); err != nil {
			b.logger.Error("Failed to publish event",
				slog.String("type", ev.Type),
				slog.Any("error", err),
			)
		}
	}
}
