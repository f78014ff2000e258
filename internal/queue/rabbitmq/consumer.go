package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"hr_notify/internal/config"
	"hr_notify/internal/domain"
	"hr_notify/internal/model"
	"hr_notify/internal/queue"
	"hr_notify/internal/service/notify"
)

const notifyTimeout = 15 * time.Second

// Notifier is the part of notify.Service the consumer drives.
type Notifier interface {
	Notify(ctx context.Context, in notify.NotifyInput) (model.Notification, error)
}

type noopConsumer struct{}

func (noopConsumer) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type Consumer struct {
	url         string
	svc         Notifier
	logger      *zap.Logger
	exchange    string
	queue       string
	routingKey  string
	consumerTag string
}

// NewConsumer returns a consumer that idles until shutdown when
// RABBITMQ_URL is unset.
func NewConsumer(cfg *config.Config, svc *notify.Service, logger *zap.Logger) queue.Consumer {
	if cfg.RabbitMQURL == "" {
		return noopConsumer{}
	}
	return &Consumer{
		url:         cfg.RabbitMQURL,
		svc:         svc,
		logger:      logger,
		exchange:    cfg.RabbitExchange,
		queue:       cfg.RabbitQueue,
		routingKey:  cfg.RabbitRoutingKey,
		consumerTag: cfg.RabbitConsumerTag,
	}
}

func (r *Consumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	deliveries, err := r.setup(ch)
	if err != nil {
		return err
	}

	r.logger.Info("RabbitMQ consumer started",
		zap.String("exchange", r.exchange),
		zap.String("queue", r.queue),
		zap.String("routing_key", r.routingKey),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq deliveries closed")
			}
			if err := r.handleMessage(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (r *Consumer) setup(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}
	if err := ch.ExchangeDeclare(r.exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare(r.queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, r.routingKey, r.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, r.consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}
	return deliveries, nil
}

// handleMessage acks what can never succeed (bad JSON, invalid request) and
// requeues what failed to persist. The returned error is only an ack/nack
// transport failure, which ends the consume loop.
func (r *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, amqpHeaderCarrier(msg.Headers))
	ctx, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.handle_message", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination", r.exchange),
		attribute.String("messaging.rabbitmq.routing_key", msg.RoutingKey),
	)
	defer span.End()

	var m queue.NotifyMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid json")
		r.logger.Error("rabbitmq invalid json", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		return msg.Ack(false)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	created, err := r.svc.Notify(notifyCtx, notify.NotifyInput{
		RecipientID: m.RecipientID,
		SenderID:    m.SenderID,
		Type:        m.Type,
		Message:     m.Message,
		Link:        m.Link,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrValidation) {
			span.SetStatus(codes.Error, "invalid request")
			r.logger.Warn("rabbitmq dropped invalid notify request", zap.String("recipient_id", m.RecipientID), zap.Error(err))
			return msg.Ack(false)
		}
		span.SetStatus(codes.Error, "notify failed")
		r.logger.Error("rabbitmq notify failed, requeueing", zap.String("recipient_id", m.RecipientID), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			r.logger.Error("rabbitmq nack failed", zap.Error(nackErr))
			return nackErr
		}
		return nil
	}

	span.SetAttributes(attribute.Int64("notification.id", created.ID))
	return msg.Ack(false)
}
