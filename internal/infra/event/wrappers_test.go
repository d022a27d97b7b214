package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DioGolang/GoData/internal/infra/storage"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(calls *int, results ...error) MessageHandler {
	return func(context.Context, []byte, map[string]interface{}) error {
		i := *calls
		*calls++
		if i < len(results) {
			return results[i]
		}
		return nil
	}
}

func TestWrapIdempotency(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := storage.NewRedisAdapter(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	headers := map[string]interface{}{HeaderEventID: "c-1"}

	t.Run("second delivery is dropped", func(t *testing.T) {
		calls := 0
		h := WrapIdempotency(logger.NewNop(), metrics.NewNoop(), store, "audit", time.Hour, counting(&calls))

		require.NoError(t, h(ctx, []byte("x"), headers))
		require.NoError(t, h(ctx, []byte("x"), headers))

		assert.Equal(t, 1, calls)
		assert.True(t, mr.Exists("dedup:audit:c-1"))
	})

	t.Run("failure releases the key", func(t *testing.T) {
		calls := 0
		h := WrapIdempotency(logger.NewNop(), metrics.NewNoop(), store, "retry", time.Hour, counting(&calls, errors.New("boom")))

		assert.Error(t, h(ctx, []byte("x"), headers))
		assert.NoError(t, h(ctx, []byte("x"), headers))
		assert.Equal(t, 2, calls)
	})

	t.Run("body hash without event id", func(t *testing.T) {
		calls := 0
		h := WrapIdempotency(logger.NewNop(), metrics.NewNoop(), store, "hash", time.Hour, counting(&calls))

		require.NoError(t, h(ctx, []byte("same"), nil))
		require.NoError(t, h(ctx, []byte("same"), nil))
		require.NoError(t, h(ctx, []byte("other"), nil))

		assert.Equal(t, 2, calls)
	})

	t.Run("store unavailable fails closed", func(t *testing.T) {
		down := miniredis.RunT(t)
		broken := storage.NewRedisAdapter(redis.NewClient(&redis.Options{Addr: down.Addr(), MaxRetries: -1}))
		down.Close()
		calls := 0
		h := WrapIdempotency(logger.NewNop(), metrics.NewNoop(), broken, "down", time.Hour, counting(&calls))

		assert.ErrorContains(t, h(ctx, []byte("x"), headers), "idempotency store unavailable")
		assert.Zero(t, calls)
	})
}

func TestWrapExponentialBackoff(t *testing.T) {
	ctx := context.Background()
	transient := errors.New("transient")

	tests := []struct {
		name      string
		results   []error
		wantCalls int
		wantErr   error
	}{
		{"succeeds after retries", []error{transient, transient}, 3, nil},
		{"gives up", []error{transient, transient, transient, transient}, 3, transient},
		{"poison is not retried", []error{ErrPoisonMessage}, 1, ErrPoisonMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			h := WrapExponentialBackoff(logger.NewNop(), metrics.NewNoop(), "audit", 2, time.Millisecond, counting(&calls, tt.results...))

			err := h(ctx, nil, nil)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWrapExponentialBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h := WrapExponentialBackoff(logger.NewNop(), metrics.NewNoop(), "audit", 5, time.Hour,
		func(context.Context, []byte, map[string]interface{}) error {
			calls++
			cancel()
			return errors.New("transient")
		})

	err := h(ctx, nil, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWrapResilientConsumer(t *testing.T) {
	ctx := context.Background()
	cb := NewConsumerBreaker("audit", 2, time.Hour, metrics.NewNoop())
	failing := func(context.Context, []byte, map[string]interface{}) error { return errors.New("down") }
	h := WrapResilientConsumer(metrics.NewNoop(), "audit", time.Second, cb, failing)

	assert.EqualError(t, h(ctx, nil, nil), "down")
	assert.EqualError(t, h(ctx, nil, nil), "down")
	assert.ErrorIs(t, h(ctx, nil, nil), gobreaker.ErrOpenState)
}

func TestWrapResilientConsumer_PoisonKeepsBreakerClosed(t *testing.T) {
	ctx := context.Background()
	cb := NewConsumerBreaker("audit", 1, time.Hour, metrics.NewNoop())
	h := WrapResilientConsumer(metrics.NewNoop(), "audit", time.Second, cb,
		func(context.Context, []byte, map[string]interface{}) error { return ErrPoisonMessage })

	assert.ErrorIs(t, h(ctx, nil, nil), ErrPoisonMessage)
	assert.ErrorIs(t, h(ctx, nil, nil), ErrPoisonMessage)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
