package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DioGolang/GoData/internal/application/usecase/audit"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	carrier "github.com/DioGolang/GoData/pkg/otel"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Channel is the part of *amqp.Channel the consumer needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Consumer struct {
	Channel  Channel
	Handler  MessageHandler
	Logger   logger.Logger
	Metrics  metrics.Metrics
	Prefetch int
}

func NewConsumer(ch Channel, handler MessageHandler, l logger.Logger, m metrics.Metrics) *Consumer {
	return &Consumer{
		Channel:  ch,
		Handler:  handler,
		Logger:   l,
		Metrics:  m,
		Prefetch: 10,
	}
}

// Start consumes queueName until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Start(ctx context.Context, queueName string) error {
	if err := c.setupTopology(queueName); err != nil {
		return fmt.Errorf("error when configuring topology: %w", err)
	}

	msgs, err := c.Channel.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.Logger.Info(ctx, "waiting for messages", logger.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handle(ctx, queueName, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, queueName string, d amqp.Delivery) {
	ctx = carrier.Extract(ctx, d.Headers)
	ctx, span := otel.GetTracerProvider().Tracer("worker-tracer").Start(ctx, "ConsumeCommitEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", queueName),
			attribute.String("messaging.message.id", d.MessageId),
		))
	defer span.End()

	err := c.Handler(ctx, d.Body, d.Headers)
	if err == nil {
		c.settle(ctx, d.Ack(false))
		c.Metrics.IncCommitEventsConsumed("success")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	requeue := !errors.Is(err, ErrPoisonMessage) && !d.Redelivered
	c.Logger.Error(ctx, "failed to handle message",
		logger.String("message_id", d.MessageId),
		logger.Bool("requeue", requeue),
		logger.WithError(err),
	)
	c.settle(ctx, d.Nack(false, requeue))
	if requeue {
		c.Metrics.IncCommitEventsConsumed("requeued")
	} else {
		c.Metrics.IncCommitEventsConsumed("dropped")
	}
}

func (c *Consumer) settle(ctx context.Context, err error) {
	if err != nil {
		c.Logger.Warn(ctx, "failed to settle delivery", logger.WithError(err))
	}
}

func (c *Consumer) setupTopology(queueName string) error {
	if _, err := c.Channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.Channel.QueueBind(queueName, CommitEventName, Exchange, false, nil); err != nil {
		return err
	}
	return c.Channel.Qos(c.Prefetch, 0, false)
}

// NewCommitHandler decodes commit events and records them through uc.
func NewCommitHandler(uc audit.RecordCommitUseCase, log logger.Logger) MessageHandler {
	return func(ctx context.Context, msg []byte, _ map[string]interface{}) error {
		var input audit.RecordCommitInput
		if err := json.Unmarshal(msg, &input); err != nil {
			return fmt.Errorf("%w: decode commit event: %v", ErrPoisonMessage, err)
		}

		out, err := uc.Execute(ctx, input)
		if errors.Is(err, dataerr.ErrInvalidArgument) || errors.Is(err, dataerr.ErrConfiguration) {
			return fmt.Errorf("%w: %w", ErrPoisonMessage, err)
		}
		if err != nil {
			return err
		}

		log.Info(ctx, "commit recorded",
			logger.CommitID(input.CommitID),
			logger.Int("entries", out.Recorded),
			logger.Bool("duplicate", out.Duplicate),
		)
		return nil
	}
}
