package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ConvertsFields(t *testing.T) {
	//Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core)).With(String("component", "uow"))

	//Act
	log.Info(context.Background(), "commit applied",
		Int("operations", 3),
		Float64("ratio", 0.5),
		Bool("committed", true),
		Duration("took", time.Second),
		WithError(errors.New("boom")),
		Lazy("lazy", func() any { return "computed" }),
	)

	//Assert
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "uow", fields["component"])
	assert.Equal(t, int64(3), fields["operations"])
	assert.Equal(t, 0.5, fields["ratio"])
	assert.Equal(t, true, fields["committed"])
	assert.Equal(t, time.Second, fields["took"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "computed", fields["lazy"])
}

func TestZapLogger_MismatchedKindFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Warn(context.Background(), "odd", Field{Key: "n", Value: 7, Kind: KindString})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(7), logs.All()[0].ContextMap()["n"])
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Error(context.Background(), "ignored", String("k", "v"))
	})
}

func TestZapLogger_ErrorKind(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Error(context.Background(), "commit failed",
		Operations(2),
		Actor(""),
		WithError(dataerr.Persistence("uow.Commit", errors.New("conn reset"))),
	)
	log.Error(context.Background(), "plain", WithError(errors.New("boom")))

	require.Equal(t, 2, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "persistence_failure", fields["error_kind"])
	assert.Equal(t, "system", fields["actor"])
	assert.Equal(t, int64(2), fields["operations"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "error_kind")
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		name      string
		isProd    bool
		level     string
		wantDebug bool
	}{
		{"dev logs debug", false, "", true},
		{"prod starts at info", true, "", false},
		{"override", false, "warn", false},
		{"unknown level keeps default", false, "loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogger("godata", tt.isProd, WithLevel(tt.level), WithOutput(&buf))

			log.Debug(context.Background(), "staged", Database("main"))

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), `"database":"main"`))
		})
	}
}
