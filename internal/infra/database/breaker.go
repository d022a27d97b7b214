package database

import (
	"context"
	"errors"
	"time"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/sony/gobreaker"
)

// BreakerStore fails fast while the wrapped store keeps erroring.
// Misses and duplicate ids are answers, not failures, and never trip it.
type BreakerStore struct {
	outbound.Store
	cb *gobreaker.CircuitBreaker
}

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

func NewBreakerStore(store outbound.Store, cfg BreakerSettings, log logger.Logger, m metrics.Metrics) *BreakerStore {
	name := "store:" + store.Database()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, outbound.ErrNoDocument) || errors.Is(err, outbound.ErrDuplicateID)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.IncCircuitBreakerState(name, to.String())
			log.Warn(context.Background(), "store circuit breaker changed state",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return &BreakerStore{Store: store, cb: cb}
}

func (b *BreakerStore) run(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (b *BreakerStore) FindByID(ctx context.Context, collection, id string, out any) error {
	return b.run(func() error { return b.Store.FindByID(ctx, collection, id, out) })
}

func (b *BreakerStore) FindAll(ctx context.Context, collection string, out any) error {
	return b.run(func() error { return b.Store.FindAll(ctx, collection, out) })
}

func (b *BreakerStore) FindAllProjected(ctx context.Context, collection string, out any) error {
	return b.run(func() error { return b.Store.FindAllProjected(ctx, collection, out) })
}

func (b *BreakerStore) Begin(ctx context.Context) (outbound.StoreTx, error) {
	var tx outbound.StoreTx
	err := b.run(func() error {
		var err error
		tx, err = b.Store.Begin(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &breakerTx{StoreTx: tx, breaker: b}, nil
}

func (b *BreakerStore) EnsureCollections(ctx context.Context, collections ...string) error {
	m, ok := b.Store.(outbound.Migrator)
	if !ok {
		return nil
	}
	return b.run(func() error { return m.EnsureCollections(ctx, collections...) })
}

// breakerTx counts only the commit against the breaker.
type breakerTx struct {
	outbound.StoreTx
	breaker *BreakerStore
}

func (t *breakerTx) Commit(ctx context.Context) error {
	return t.breaker.run(func() error { return t.StoreTx.Commit(ctx) })
}
