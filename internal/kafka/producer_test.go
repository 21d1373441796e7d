package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-request/internal/logger"
	"ms-request/internal/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishRequestChange(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "request.changes", logger.NewWriterLogger(io.Discard))

	occurred := time.Date(2025, 1, 21, 10, 0, 0, 0, time.UTC)
	change := models.RequestChange{
		Type:       models.RequestCreated,
		Request:    models.Request{ID: 42, Tour: 1, Customer: 2, Passengers: 3, Wheelchairs: 1, Luggage: 2},
		OccurredAt: occurred,
	}

	require.NoError(t, p.PublishRequestChange(context.Background(), change))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "request.created", string(msg.Headers[0].Value))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "request.created", payload["type"])
	assert.Equal(t, "2025-01-21T10:00:00Z", payload["occurred_at"])
	request := payload["request"].(map[string]interface{})
	assert.Equal(t, float64(42), request["id"])
	assert.Equal(t, float64(1), request["wheelchairs"])
}

func TestPublishRequestChangeWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, "request.changes", logger.NewWriterLogger(io.Discard))

	err := p.PublishRequestChange(context.Background(), models.RequestChange{Type: models.RequestDeleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request.deleted")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestProducerClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "request.changes", logger.NewWriterLogger(io.Discard))
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
