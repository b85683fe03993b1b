package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisher(w, "order.events")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), usecase.OrderEvent{
		Type:           usecase.OrderEventStatusChanged,
		OrderID:        42,
		UserID:         1,
		Status:         model.OrderStatusCancelled,
		PreviousStatus: model.OrderStatusPending,
		TotalAmount:    model.NewMoney(decimal.RequireFromString("100")),
		OccurredAt:     at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, "OrderStatusChanged", header(msg, headerEventType))
	assert.NotEmpty(t, header(msg, headerEventID))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "CANCELLED", body["status"])
	assert.Equal(t, "PENDING", body["previous_status"])
	assert.Equal(t, float64(42), body["order_id"])
	assert.Equal(t, "100.00", body["total_amount"])
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewKafkaPublisher(&recordingWriter{err: errors.New("leader not available")}, "order.events")

	err := p.Publish(context.Background(), usecase.OrderEvent{Type: usecase.OrderEventCreated, OrderID: 1})
	assert.Error(t, err)
}
