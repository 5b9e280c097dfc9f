package messaging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmaia-dev/medishop/internal/domain"
)

// SaleTopic carries one message per finalized order, keyed by receipt id.
const SaleTopic = "sale.finalized"

var publisherTracer = otel.Tracer("messaging/publisher")

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  SaleTopic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

// PublishSale stamps the event with a fresh event id and writes it to the
// sale topic.
func (p *Publisher) PublishSale(ctx context.Context, event domain.SaleFinalizedEvent) error {
	event.EventID = uuid.New().String()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := strconv.FormatInt(event.ReceiptID, 10)
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	ctx, span := publisherTracer.Start(ctx, "send "+SaleTopic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(SaleTopic),
			semconv.MessagingKafkaMessageKey(key),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
