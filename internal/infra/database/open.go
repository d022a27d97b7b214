package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Driver            string
	URI               string
	Databases         []string
	MongoTransactions bool
	Breaker           BreakerSettings
}

// Open connects the configured backend and returns one store per database.
// Stores built from one connection share it; the last Close releases it.
func Open(ctx context.Context, cfg Config, log logger.Logger, m metrics.Metrics) ([]outbound.Store, error) {
	const op = "database.Open"
	if len(cfg.Databases) == 0 {
		return nil, dataerr.Configuration(op, "no databases configured")
	}

	var stores []outbound.Store
	switch cfg.Driver {
	case DriverMemory:
		for _, name := range cfg.Databases {
			stores = append(stores, NewMemoryStore(name))
		}

	case DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		release := shared(len(cfg.Databases), client.Disconnect)
		for _, name := range cfg.Databases {
			s := NewMongoStore(client, name, cfg.MongoTransactions)
			s.release = release()
			stores = append(stores, s)
		}

	case DriverPostgres:
		db, err := sql.Open("postgres", cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("postgres open: %w", err)
		}
		release := shared(len(cfg.Databases), func(context.Context) error { return db.Close() })
		for _, name := range cfg.Databases {
			s := NewPostgresStore(db, name)
			s.release = release()
			stores = append(stores, s)
		}

	case DriverRedis:
		opts, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, dataerr.Configuration(op, fmt.Sprintf("redis url: %v", err))
		}
		client := redis.NewClient(opts)
		release := shared(len(cfg.Databases), func(context.Context) error { return client.Close() })
		for _, name := range cfg.Databases {
			s := NewRedisStore(client, name)
			s.release = release()
			stores = append(stores, s)
		}

	default:
		return nil, dataerr.Configuration(op, fmt.Sprintf("unknown store driver %q", cfg.Driver))
	}

	if cfg.Breaker.MaxFailures > 0 {
		for i, s := range stores {
			stores[i] = NewBreakerStore(s, cfg.Breaker, log, m)
		}
	}
	log.Info(ctx, "stores opened",
		logger.String("driver", cfg.Driver),
		logger.Int("databases", len(stores)),
	)
	return stores, nil
}

// shared hands out n release funcs over one closer; each releases once and the last one closes.
func shared(n int, closeFn func(context.Context) error) func() func(context.Context) error {
	var remaining atomic.Int32
	remaining.Store(int32(n))
	return func() func(context.Context) error {
		var once sync.Once
		return func(ctx context.Context) error {
			var err error
			once.Do(func() {
				if remaining.Add(-1) == 0 {
					err = closeFn(ctx)
				}
			})
			return err
		}
	}
}

