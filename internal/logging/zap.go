package logging

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a logr.Logger backed by zap to Logger.
type ZapLogger struct {
	l logr.Logger
}

// NewZapWriterLogger builds a zap logger writing JSON to w at debug level
// and wraps it in logr.
func NewZapWriterLogger(component string, w io.Writer) *ZapLogger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		zap.DebugLevel,
	)
	l := zapr.NewLogger(zap.New(core))
	if component != "" {
		l = l.WithName(component)
	}
	return &ZapLogger{l: l}
}

// NewLogrLogger wraps an existing logr.Logger.
func NewLogrLogger(l logr.Logger) *ZapLogger {
	return &ZapLogger{l: l}
}

func keysAndValues(fields []Field) []any {
	kv := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

// logr has no warn level; warnings go out at info with a level marker.
func (z *ZapLogger) Debug(msg string, fields ...Field) {
	z.l.V(1).Info(msg, keysAndValues(fields)...)
}

func (z *ZapLogger) Info(msg string, fields ...Field) {
	z.l.Info(msg, keysAndValues(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields ...Field) {
	z.l.Info(msg, append([]any{"severity", "warn"}, keysAndValues(fields)...)...)
}

func (z *ZapLogger) Error(msg string, fields ...Field) {
	z.l.Error(nil, msg, keysAndValues(fields)...)
}

func (z *ZapLogger) With(fields ...Field) Logger {
	l := z.l
	rest := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				l = l.WithName(str)
				continue
			}
		}
		rest = append(rest, f)
	}
	if len(rest) > 0 {
		l = l.WithValues(keysAndValues(rest)...)
	}
	return &ZapLogger{l: l}
}
