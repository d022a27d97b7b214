package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/pkg/events"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	carrier "github.com/DioGolang/GoData/pkg/otel"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the part of *amqp.Channel the dispatcher needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Dispatcher struct {
	Publisher Publisher
	Exchange  string
	Metrics   metrics.Metrics
}

func NewDispatcher(p Publisher, m metrics.Metrics) *Dispatcher {
	return &Dispatcher{Publisher: p, Exchange: Exchange, Metrics: m}
}

// Dispatch publishes event under its name as routing key.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.GetPayload())
	if err != nil {
		d.Metrics.IncCommitEventsPublished("error")
		return fmt.Errorf("marshal %s: %w", event.GetName(), err)
	}

	headers := amqp.Table{HeaderEventID: event.GetID()}
	carrier.Inject(ctx, headers)

	err = d.Publisher.PublishWithContext(ctx, d.Exchange, event.GetName(), false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.GetID(),
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		d.Metrics.IncCommitEventsPublished("error")
		return fmt.Errorf("publish %s: %w", event.GetName(), err)
	}
	d.Metrics.IncCommitEventsPublished("success")
	return nil
}

// CommitPublisher is a commit hook that announces every commit.
type CommitPublisher struct {
	Dispatcher events.EventDispatcher
	Logger     logger.Logger
	Timeout    time.Duration
}

func NewCommitPublisher(d events.EventDispatcher, log logger.Logger) *CommitPublisher {
	return &CommitPublisher{Dispatcher: d, Logger: log, Timeout: 5 * time.Second}
}

func (p *CommitPublisher) AfterCommit(ctx context.Context, rec outbound.CommitRecord) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	if err := p.Dispatcher.Dispatch(ctx, NewCommitEvent(rec)); err != nil {
		return err
	}
	p.Logger.Debug(ctx, "commit event published",
		logger.CommitID(rec.ID),
		logger.Database(rec.Database),
		logger.Int("changes", len(rec.Changes)),
	)
	return nil
}
