package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DioGolang/GoData/configs"
	"github.com/DioGolang/GoData/internal/application/usecase/audit"
	"github.com/DioGolang/GoData/internal/infra/app"
	"github.com/DioGolang/GoData/internal/infra/event"
	"github.com/DioGolang/GoData/internal/infra/storage"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/DioGolang/GoData/pkg/otel"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const handlerName = "record_commit"

func main() {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}
	if config.AMQPURL == "" {
		panic("AMQP_URL is required")
	}
	log := logger.NewLogger(config.ServiceName+"-worker", config.IsProd, logger.WithLevel(config.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otel.InitProvider(ctx, otel.ProviderConfig{
		ServiceName:   config.ServiceName + "-worker",
		Version:       "1.0.0",
		CollectorAddr: config.OtelCollector,
		IsProd:        config.IsProd,
	})
	if err != nil {
		panic(err)
	}
	defer shutdownTracer()

	m := metrics.NewPrometheusMetrics(prometheus.NewRegistry(), config.ServiceName+"-worker")

	// no commit hooks here: audit writes must not publish further commit events
	uows, err := app.OpenUnitsOfWork(ctx, config, log, m)
	if err != nil {
		panic(err)
	}
	defer uows.Close(context.Background())

	services, err := app.NewServices(uows, log, m)
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr()})
	defer rdb.Close()

	conn, err := amqp.Dial(config.AMQPURL)
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		panic(err)
	}
	defer ch.Close()

	var uc audit.RecordCommitUseCase = audit.NewRecordCommitUseCase(services, "")
	uc = &audit.RecordCommitMetricsDecorator{Next: uc, Metrics: m}

	h := event.NewCommitHandler(uc, log)
	h = event.WrapExponentialBackoff(log, m, handlerName, config.MaxRetries, config.RetryBackoff, h)
	h = event.WrapResilientConsumer(m, handlerName, 10*time.Second,
		event.NewConsumerBreaker(handlerName, config.BreakerFailures, config.BreakerTimeout, m), h)
	h = event.WrapIdempotency(log, m, storage.NewRedisAdapter(rdb), handlerName, config.DedupTTL, h)

	consumer := event.NewConsumer(ch, h, log, m)
	log.Info(ctx, "worker started", logger.String("queue", config.CommitQueue))
	if err := consumer.Start(ctx, config.CommitQueue); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "consumer stopped", logger.WithError(err))
	}
}
