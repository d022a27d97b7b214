package event

import (
	"context"
	"errors"
	"time"

	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/sony/gobreaker"
)

// WrapResilientConsumer bounds every attempt with timeout and stops calling next while
// cb is open. Poison messages do not count as breaker failures.
func WrapResilientConsumer(
	m metrics.Metrics,
	handlerName string,
	timeout time.Duration,
	cb *gobreaker.CircuitBreaker,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) error {
		start := time.Now()

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = next(ctx, msg, headers)
			if errors.Is(handlerErr, ErrPoisonMessage) {
				return nil, nil
			}
			return nil, handlerErr
		})
		if err == nil {
			err = handlerErr
		}

		m.RecordUseCaseExecution(handlerName, err == nil, time.Since(start))
		return err
	}
}

// NewConsumerBreaker builds the breaker guarding a consumer, reporting transitions to m.
func NewConsumerBreaker(name string, maxFailures uint32, openTimeout time.Duration, m metrics.Metrics) *gobreaker.CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, _ gobreaker.State, to gobreaker.State) {
			m.IncCircuitBreakerState(name, to.String())
		},
	})
}
