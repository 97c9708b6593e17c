package infra

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func sampleInvoice() *model.Invoice {
	return &model.Invoice{
		ID:         7,
		Number:     "F-20260102-000007",
		CustomerID: 3,
		IssuedAt:   time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC),
		Subtotal:   decimal.RequireFromString("25.00"),
		Tax:        decimal.RequireFromString("3.25"),
		Total:      decimal.RequireFromString("28.25"),
		Lines: []model.InvoiceDetail{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
	}
}

func TestKafkaPublisher_PublishInvoiceCreated(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, EventInvoiceCreated, nil)

	require.NoError(t, p.PublishInvoiceCreated(context.Background(), sampleInvoice()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "F-20260102-000007", string(msg.Key))
	carrier := headerCarrier(msg.Headers)
	assert.Equal(t, EventInvoiceCreated, carrier.Get("event_type"))

	var ev InvoiceCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, uint(7), ev.InvoiceID)
	assert.Equal(t, "28.25", ev.Total.StringFixed(2))
	require.Len(t, ev.Lines, 2)
	assert.Equal(t, 2, ev.Lines[0].Quantity)
}

func TestKafkaPublisher_BreakerOpensOnRepeatedFailures(t *testing.T) {
	w := &recordingWriter{err: errBroker}
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "kafka", FailureThreshold: 2, OpenTimeout: time.Hour})
	p := newKafkaPublisher(w, EventInvoiceCreated, cb)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, p.PublishInvoiceCreated(context.Background(), sampleInvoice()), errBroker)
	}
	assert.ErrorIs(t, p.PublishInvoiceCreated(context.Background(), sampleInvoice()), ErrCircuitOpen)
	assert.Equal(t, CBOpen, p.Breaker().State())
}

func TestHeaderCarrier_SetReplaces(t *testing.T) {
	var c headerCarrier
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("baggage", "x=1")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
	assert.Equal(t, "", c.Get("missing"))
}
