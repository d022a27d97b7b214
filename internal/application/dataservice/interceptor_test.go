package dataservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DioGolang/GoData/internal/application/dataservice"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/internal/infra/database"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedCall struct {
	entity, operation string
	success           bool
}

type recordingMetrics struct {
	metrics.Noop
	calls []recordedCall
}

func (m *recordingMetrics) RecordDataServiceCall(entity, operation string, success bool, _ time.Duration) {
	m.calls = append(m.calls, recordedCall{entity: entity, operation: operation, success: success})
}

func (f *fixture) intercepted(t *testing.T, interceptors ...dataservice.Interceptor) *dataservice.Crud[entity.Note] {
	t.Helper()
	uow, err := f.uows.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = uow.Close(context.Background()) })
	return dataservice.NewCrud(uow, database.RepositoryFor[entity.Note](uow, "notes"), f.m, "notes", interceptors...)
}

func TestInterceptors_RunInRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	var trail []string
	mark := func(name string) dataservice.Interceptor {
		return func(ctx context.Context, call dataservice.Call, next dataservice.Invoker) error {
			trail = append(trail, name+">"+call.Operation)
			err := next(ctx)
			trail = append(trail, name+"<")
			return err
		}
	}
	svc := newFixture(t).intercepted(t, mark("outer"), mark("inner"))

	_, err := svc.GetAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"outer>GetAll", "inner>GetAll", "inner<", "outer<"}, trail)
}

func TestInterceptors_CanShortCircuit(t *testing.T) {
	ctx := context.Background()
	denied := errors.New("denied")
	svc := newFixture(t).intercepted(t, func(ctx context.Context, call dataservice.Call, next dataservice.Invoker) error {
		if call.Operation == "Add" {
			return denied
		}
		return next(ctx)
	})

	_, err := svc.Add(ctx, &entity.Note{Title: "x"})

	assert.ErrorIs(t, err, denied)
	assert.Zero(t, svc.Pending())
}

func TestMetricsInterceptor(t *testing.T) {
	ctx := context.Background()
	m := &recordingMetrics{}
	svc := newFixture(t).intercepted(t, dataservice.Metrics(m))

	_, _ = svc.Add(ctx, &entity.Note{Title: "x"}, dataservice.WithCommit())
	_, _ = svc.Get(ctx, "404")

	assert.Equal(t, []recordedCall{
		{entity: "notes", operation: "Add", success: true},
		{entity: "notes", operation: "Get", success: false},
	}, m.calls)
}

func TestLoggingInterceptor_LevelFollowsErrorKind(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	svc := newFixture(t).intercepted(t, dataservice.Logging(logger.NewFromZap(zap.New(core))))

	_, _ = svc.GetAll(ctx)
	_, _ = svc.Get(ctx, "")
	require.NoError(t, svc.Close(ctx))
	_, _ = svc.Add(ctx, &entity.Note{Title: "after close"})

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "GetAll", entries[0].ContextMap()["operation"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "notes", entries[2].ContextMap()["entity"])
}

func TestTracingInterceptor(t *testing.T) {
	ctx := context.Background()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	svc := newFixture(t).intercepted(t, dataservice.Tracing(tp.Tracer("test")))

	_, err := svc.Get(ctx, "404")
	require.ErrorIs(t, err, dataerr.ErrNotFound)
	require.NoError(t, svc.Close(ctx))
	_, err = svc.Add(ctx, &entity.Note{Title: "x"}, dataservice.WithCommit())
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "dataservice.notes.Get", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code, "not found is not a fault")
	assert.Equal(t, "dataservice.notes.Add", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
