package event

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
)

type IdempotencyStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// WrapIdempotency lets one delivery per event id through. The event id comes from the
// x-event-id header or, without one, from the body hash. A failed handler releases
// the key so the redelivery can run.
func WrapIdempotency(
	log logger.Logger,
	m metrics.Metrics,
	store IdempotencyStore,
	handlerName string,
	ttl time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) error {
		key := fmt.Sprintf("dedup:%s:%s", handlerName, eventID(msg, headers))

		claimed, err := store.SetNX(ctx, key, "processing", ttl)
		if err != nil {
			log.Error(ctx, "idempotency store unavailable", logger.WithError(err))
			return fmt.Errorf("idempotency store unavailable: %w", err)
		}
		if !claimed {
			log.Info(ctx, "duplicate event dropped",
				logger.String("handler", handlerName),
				logger.String("key", key),
			)
			m.IncCommitEventsConsumed("duplicate")
			return nil
		}

		err = next(ctx, msg, headers)
		if err != nil {
			if delErr := store.Del(ctx, key); delErr != nil {
				log.Error(ctx, "failed to release idempotency key",
					logger.String("key", key),
					logger.WithError(delErr),
				)
			}
		}
		return err
	}
}

func eventID(msg []byte, headers map[string]interface{}) string {
	if v, ok := headers[HeaderEventID]; ok {
		if id := fmt.Sprintf("%v", v); id != "" {
			return id
		}
	}
	return fmt.Sprintf("hash:%x", sha256.Sum256(msg))
}
