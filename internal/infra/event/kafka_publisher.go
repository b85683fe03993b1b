package event

import (
	"context"
	"encoding/json"
	"strconv"

	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	headerEventID   = "event-id"
	headerEventType = "event-type"
)

// messageWriter は kafka.Writer のうち使う部分
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w     messageWriter
	topic string
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: w, topic: topic}
}

var _ usecase.EventPublisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	msg, err := BuildMessage(ctx, ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// BuildMessage は注文IDをキーにする（同じ注文のイベントは同じパーティション）
func BuildMessage(ctx context.Context, ev usecase.OrderEvent) (kafka.Message, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}

	headers := []kafka.Header{
		{Key: headerEventID, Value: []byte(uuid.NewString())},
		{Key: headerEventType, Value: []byte(ev.Type)},
	}
	headers = injectTraceHeaders(ctx, headers)

	return kafka.Message{
		Key:     []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value:   b,
		Headers: headers,
		Time:    ev.OccurredAt,
	}, nil
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
