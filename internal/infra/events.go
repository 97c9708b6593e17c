package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const EventInvoiceCreated = "invoice.created"

// InvoiceCreatedEvent is the payload published after an invoice commits.
type InvoiceCreatedEvent struct {
	InvoiceID  uint                 `json:"invoice_id"`
	Number     string               `json:"number"`
	CustomerID uint                 `json:"customer_id"`
	IssuedAt   time.Time            `json:"issued_at"`
	Subtotal   decimal.Decimal      `json:"subtotal"`
	Tax        decimal.Decimal      `json:"tax"`
	Total      decimal.Decimal      `json:"total"`
	Lines      []InvoiceCreatedLine `json:"lines"`
}

type InvoiceCreatedLine struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func NewInvoiceCreatedEvent(inv *model.Invoice) InvoiceCreatedEvent {
	ev := InvoiceCreatedEvent{
		InvoiceID:  inv.ID,
		Number:     inv.Number,
		CustomerID: inv.CustomerID,
		IssuedAt:   inv.IssuedAt.UTC(),
		Subtotal:   inv.Subtotal,
		Tax:        inv.Tax,
		Total:      inv.Total,
		Lines:      make([]InvoiceCreatedLine, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		ev.Lines = append(ev.Lines, InvoiceCreatedLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return ev
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes invoice events keyed by invoice number, so all
// events for one invoice land on the same partition. Writes go through a
// circuit breaker so a downed broker costs one fast failure per call.
type KafkaPublisher struct {
	writer messageWriter
	cb     *CircuitBreaker
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string, cb *CircuitBreaker) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, topic, cb)
}

func newKafkaPublisher(w messageWriter, topic string, cb *CircuitBreaker) *KafkaPublisher {
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig("kafka"))
	}
	return &KafkaPublisher{writer: w, cb: cb, topic: topic}
}

// Breaker exposes the circuit breaker for health reporting.
func (p *KafkaPublisher) Breaker() *CircuitBreaker { return p.cb }

func (p *KafkaPublisher) PublishInvoiceCreated(ctx context.Context, inv *model.Invoice) error {
	ctx, span := otel.Tracer("facturacion/events").Start(ctx, "publish "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("invoice.number", inv.Number),
		),
	)
	defer span.End()

	value, err := json.Marshal(NewInvoiceCreatedEvent(inv))
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(inv.Number),
		Value:   value,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(EventInvoiceCreated)}},
	}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(&msg.Headers))

	err = p.cb.Execute(func() error { return p.writer.WriteMessages(ctx, msg) })
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("events: publish %s: %w", inv.Number, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// headerCarrier adapts kafka headers to the otel propagation carrier.
type headerCarrier []kafka.Header

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c))
	for _, h := range *c {
		keys = append(keys, h.Key)
	}
	return keys
}
