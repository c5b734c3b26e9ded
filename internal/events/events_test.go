package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/botmr-be/internal/worker/domain"
	"github.com/cuongbtq/botmr-be/shared/logger"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestBus_DeliversToAllSinks(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("broker down")}
	bus := NewBus(logger.NewNop(), ok)
	bus.AddSink(failing)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(done)
	}()

	bus.Emit(ctx, RecordingStarted, map[string]any{"session_id": "s1"})
	bus.Emit(ctx, RecordingStopped, nil)

	require.Eventually(t, func() bool { return len(ok.types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{RecordingStarted, RecordingStopped}, ok.types())
	assert.Len(t, failing.types(), 2)

	cancel()
	<-done
}

func TestBus_FlushesOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	bus := NewBus(logger.NewNop(), sink)

	bus.Emit(context.Background(), MeetingProcessed, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Run(ctx)

	assert.Equal(t, []string{MeetingProcessed}, sink.types())
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Emit(context.Background(), JobUpdated, nil) })
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := NewBus(logger.NewNop())
	for i := 0; i < defaultBufferSize+10; i++ {
		bus.Emit(context.Background(), JobUpdated, nil)
	}
	assert.Len(t, bus.queue, defaultBufferSize)
}

type fakePublisher struct {
	routingKey  string
	body        []byte
	contentType string
}

func (f *fakePublisher) PublishWithRetry(ctx context.Context, routingKey string, body []byte, contentType string) error {
	f.routingKey = routingKey
	f.body = body
	f.contentType = contentType
	return nil
}

func TestAMQPSink_Publish(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewAMQPSink(pub)

	ev := Event{Type: MeetingFailed, Data: map[string]any{"meeting_id": "m1"}, Timestamp: time.Now().UTC()}
	require.NoError(t, sink.Publish(context.Background(), ev))

	assert.Equal(t, MeetingFailed, pub.routingKey)
	assert.Equal(t, "application/json", pub.contentType)

	var decoded Event
	require.NoError(t, json.Unmarshal(pub.body, &decoded))
	assert.Equal(t, "m1", decoded.Data["meeting_id"])
}

type captureEmitter struct {
	eventType string
	data      map[string]any
}

func (c *captureEmitter) Emit(ctx context.Context, eventType string, data map[string]any) {
	c.eventType = eventType
	c.data = data
}

func TestJobObserver(t *testing.T) {
	em := &captureEmitter{}
	observe := JobObserver(em)

	observe(domain.Job{
		ID:         "j1",
		Topic:      domain.TopicMeetingProcess,
		Status:     domain.JobStatusRetrying,
		RetryCount: 2,
		Error:      "boom",
	})

	assert.Equal(t, JobUpdated, em.eventType)
	assert.Equal(t, "j1", em.data["job_id"])
	assert.Equal(t, "retrying", em.data["status"])
	assert.Equal(t, 2, em.data["retry_count"])
	assert.Equal(t, "boom", em.data["error"])
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(logger.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, Event{Type: RecordingStarted, Data: map[string]any{"session_id": "s1"}}))

	msg := readEnvelope(t, conn)
	assert.Equal(t, RecordingStarted, msg["type"])
	assert.Equal(t, "s1", msg["data"].(map[string]any)["session_id"])
}

func TestHub_Subscriptions(t *testing.T) {
	hub := NewHub(logger.NewNop(), []string{"*"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "subscribe", "events": []string{MeetingProcessed}}))
	ack := readEnvelope(t, conn)
	assert.Equal(t, "subscribe_ack", ack["action"])

	require.NoError(t, hub.Publish(ctx, Event{Type: JobUpdated}))
	require.NoError(t, hub.Publish(ctx, Event{Type: MeetingProcessed}))

	msg := readEnvelope(t, conn)
	assert.Equal(t, MeetingProcessed, msg["type"])

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "ping"}))
	pong := readEnvelope(t, conn)
	assert.Equal(t, "pong", pong["action"])
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub := NewHub(logger.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
