package dataservice

import (
	"context"
	"errors"
	"time"

	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Call identifies one data service operation.
type Call struct {
	Entity    string
	Database  string
	Operation string
}

type Invoker func(ctx context.Context) error

// Interceptor runs around every data service operation and must call next to proceed.
type Interceptor func(ctx context.Context, call Call, next Invoker) error

func chain(interceptors []Interceptor) Interceptor {
	return func(ctx context.Context, call Call, next Invoker) error {
		h := next
		for i := len(interceptors) - 1; i >= 0; i-- {
			ic, inner := interceptors[i], h
			h = func(ctx context.Context) error { return ic(ctx, call, inner) }
		}
		return h(ctx)
	}
}

// expected reports errors that describe the caller's request rather than a fault.
func expected(err error) bool {
	return errors.Is(err, dataerr.ErrNotFound) || errors.Is(err, dataerr.ErrInvalidArgument)
}

func Logging(log logger.Logger) Interceptor {
	return func(ctx context.Context, call Call, next Invoker) error {
		start := time.Now()
		err := next(ctx)
		fields := []logger.Field{
			logger.Entity(call.Entity),
			logger.Database(call.Database),
			logger.Operation(call.Operation),
			logger.Duration("took", time.Since(start)),
		}
		switch {
		case err == nil:
			log.Debug(ctx, "data service call", fields...)
		case expected(err):
			log.Info(ctx, "data service call rejected", append(fields, logger.WithError(err))...)
		default:
			log.Error(ctx, "data service call failed", append(fields, logger.WithError(err))...)
		}
		return err
	}
}

func Metrics(m metrics.Metrics) Interceptor {
	return func(ctx context.Context, call Call, next Invoker) error {
		start := time.Now()
		err := next(ctx)
		m.RecordDataServiceCall(call.Entity, call.Operation, err == nil, time.Since(start))
		return err
	}
}

func Tracing(tracer trace.Tracer) Interceptor {
	return func(ctx context.Context, call Call, next Invoker) error {
		ctx, span := tracer.Start(ctx, "dataservice."+call.Entity+"."+call.Operation,
			trace.WithAttributes(
				attribute.String("db.name", call.Database),
				attribute.String("db.collection.name", call.Entity),
				attribute.String("dataservice.operation", call.Operation),
			))
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("dataservice.error_kind", dataerr.KindOf(err).String()))
			if !expected(err) {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		return err
	}
}
