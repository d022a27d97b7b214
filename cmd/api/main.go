package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DioGolang/GoData/configs"
	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/infra/app"
	"github.com/DioGolang/GoData/internal/infra/event"
	"github.com/DioGolang/GoData/internal/infra/web"
	"github.com/DioGolang/GoData/internal/infra/web/handler"
	appmw "github.com/DioGolang/GoData/internal/infra/web/middleware"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/DioGolang/GoData/pkg/otel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}
	log := logger.NewLogger(config.ServiceName+"-api", config.IsProd, logger.WithLevel(config.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otel.InitProvider(ctx, otel.ProviderConfig{
		ServiceName:   config.ServiceName + "-api",
		Version:       version,
		CollectorAddr: config.OtelCollector,
		IsProd:        config.IsProd,
	})
	if err != nil {
		panic(err)
	}
	defer shutdownTracer()

	promRegistry := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(promRegistry, config.ServiceName+"-api")

	var hooks []outbound.CommitHook
	if config.AMQPURL != "" {
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
		hooks = append(hooks, event.NewCommitPublisher(event.NewDispatcher(ch, m), log))
	}

	uows, err := app.OpenUnitsOfWork(ctx, config, log, m, hooks...)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := uows.Close(context.Background()); err != nil {
			log.Error(context.Background(), "failed to close stores", logger.WithError(err))
		}
	}()

	services, err := app.NewServices(uows, log, m)
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr()})
	defer rdb.Close()

	health, err := handler.NewHealthHandler(config.ServiceName+"-api", version,
		handler.WithStores(uows),
		handler.WithRedis(rdb),
		handler.WithRabbitMQ(config.AMQPURL),
	)
	if err != nil {
		panic(err)
	}

	router := web.NewRouter(web.RouterConfig{
		ServiceName:    config.ServiceName + "-api",
		Services:       services,
		Logger:         log,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		Health:         health,
		RateLimiter: appmw.NewRateLimiter(ctx, appmw.RateLimiterConfig{
			RequestsPerSecond: config.RateLimitRPS,
			Burst:             config.RateLimitBurst,
		}),
	})

	server := &http.Server{
		Addr:              ":" + config.WebServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(ctx, "server running", logger.String("port", config.WebServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server stopped", logger.WithError(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "graceful shutdown failed", logger.WithError(err))
	}
}
