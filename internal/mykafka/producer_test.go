package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEvent(t *testing.T) {
	w := &captureWriter{}
	p := &Producer{writer: w}

	err := p.PublishEvent(context.Background(), "order_events", "42", map[string]any{"type": "order_created", "orderId": 7})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order_events", msg.Topic)
	assert.Equal(t, "42", string(msg.Key))
	assert.False(t, msg.Time.IsZero())

	var event map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "order_created", event["type"])
	assert.EqualValues(t, 7, event["orderId"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEvent_Errors(t *testing.T) {
	w := &captureWriter{err: errors.New("leader not available")}
	p := &Producer{writer: w}

	err := p.PublishEvent(context.Background(), "order_events", "1", struct{}{})
	require.ErrorContains(t, err, "leader not available")

	err = p.PublishEvent(context.Background(), "order_events", "1", map[string]any{"bad": make(chan int)})
	require.ErrorContains(t, err, "json.Marshal")
}

func TestNewProducer(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"})
	require.NoError(t, err)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, 5*time.Second, w.WriteTimeout)
	require.NoError(t, p.Close())
}
