package logger

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/DioGolang/GoData/pkg/dataerr"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	log *zap.Logger
}

type options struct {
	level  *zapcore.Level
	output io.Writer
}

type Option func(*options)

// WithLevel overrides the default level (debug, or info in prod). Empty or
// unknown names keep the default.
func WithLevel(level string) Option {
	return func(o *options) {
		if level == "" {
			return
		}
		if l, err := zapcore.ParseLevel(level); err == nil {
			o.level = &l
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

func NewLogger(serviceName string, isProd bool, opts ...Option) Logger {
	o := options{output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	var config zapcore.EncoderConfig
	level := zapcore.DebugLevel
	if isProd {
		config = zap.NewProductionEncoderConfig()
		level = zapcore.InfoLevel
	} else {
		config = zap.NewDevelopmentEncoderConfig()
	}
	if o.level != nil {
		level = *o.level
	}
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeDuration = zapcore.MillisDurationEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(config), zapcore.AddSync(o.output), level)
	if isProd {
		// first entry per message each second, then every 100th
		core = zapcore.NewSamplerWithOptions(core, time.Second, 1, 100)
	}
	return &zapLogger{log: zap.New(core).With(zap.String("service", serviceName))}
}

func NewNop() Logger {
	return &zapLogger{log: zap.NewNop()}
}

// NewFromZap wraps an existing zap logger (zaptest, an observer core).
func NewFromZap(l *zap.Logger) Logger {
	return &zapLogger{log: l}
}

func (z *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	z.write(ctx, zapcore.DebugLevel, msg, fields)
}

func (z *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	z.write(ctx, zapcore.InfoLevel, msg, fields)
}

func (z *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	z.write(ctx, zapcore.WarnLevel, msg, fields)
}

func (z *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	z.write(ctx, zapcore.ErrorLevel, msg, fields)
}

func (z *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{log: z.log.With(convert(nil, fields)...)}
}

// write checks the level before converting fields, so Lazy values are only
// computed for entries that get logged.
func (z *zapLogger) write(ctx context.Context, level zapcore.Level, msg string, fields []Field) {
	ce := z.log.Check(level, msg)
	if ce == nil {
		return
	}
	out := convert(make([]zap.Field, 0, len(fields)+3), fields)
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		out = append(out,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	ce.Write(out...)
}

func convert(out []zap.Field, fields []Field) []zap.Field {
	for _, f := range fields {
		val := f.Value
		if fn, ok := val.(func() any); ok {
			val = fn()
		}
		switch v := val.(type) {
		case string:
			if f.Kind == KindString {
				out = append(out, zap.String(f.Key, v))
				continue
			}
		case int:
			if f.Kind == KindInt {
				out = append(out, zap.Int(f.Key, v))
				continue
			}
		case float64:
			if f.Kind == KindFloat64 {
				out = append(out, zap.Float64(f.Key, v))
				continue
			}
		case bool:
			if f.Kind == KindBool {
				out = append(out, zap.Bool(f.Key, v))
				continue
			}
		case time.Duration:
			if f.Kind == KindDuration {
				out = append(out, zap.Duration(f.Key, v))
				continue
			}
		case error:
			if f.Kind == KindError {
				out = append(out, errorFields(v)...)
				continue
			}
		}
		out = append(out, zap.Any(f.Key, val))
	}
	return out
}

// errorFields adds the error kind next to data layer errors.
func errorFields(err error) []zap.Field {
	var de *dataerr.Error
	if errors.As(err, &de) {
		return []zap.Field{zap.Error(err), zap.String("error_kind", de.Kind.String())}
	}
	return []zap.Field{zap.Error(err)}
}
