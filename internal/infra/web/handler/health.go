package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthRabbit "github.com/hellofresh/health-go/v5/checks/rabbitmq"
	"github.com/redis/go-redis/v9"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthOptions struct {
	checks []health.Config
}

type HealthOption func(*healthOptions)

// WithStores checks every configured database store.
func WithStores(p Pinger) HealthOption {
	return func(o *healthOptions) {
		if p == nil {
			return
		}
		o.checks = append(o.checks, health.Config{
			Name:    "stores",
			Timeout: 5 * time.Second,
			Check:   p.Ping,
		})
	}
}

func WithRedis(rdb redis.UniversalClient) HealthOption {
	return func(o *healthOptions) {
		if rdb == nil {
			return
		}
		o.checks = append(o.checks, health.Config{
			Name:    "redis",
			Timeout: 3 * time.Second,
			Check: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		})
	}
}

func WithRabbitMQ(dsn string) HealthOption {
	return func(o *healthOptions) {
		if dsn == "" {
			return
		}
		o.checks = append(o.checks, health.Config{
			Name:      "rabbitmq",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check:     healthRabbit.New(healthRabbit.Config{DSN: dsn}),
		})
	}
}

func NewHealthHandler(serviceName, version string, opts ...HealthOption) (http.Handler, error) {
	options := &healthOptions{}
	for _, opt := range opts {
		opt(options)
	}

	h, err := health.New(health.WithComponent(health.Component{
		Name:    serviceName,
		Version: version,
	}))
	if err != nil {
		return nil, err
	}
	for _, check := range options.checks {
		if err := h.Register(check); err != nil {
			return nil, err
		}
	}
	return h.Handler(), nil
}
