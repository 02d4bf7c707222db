package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Field adds one key/value pair to a log event.
type Field func(e *zerolog.Event)

func Init(level string, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}

	Log = zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch Level(level) {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext returns ctx carrying a child of Log with the given fields
// attached. The *Context helpers below log through it.
func WithContext(ctx context.Context, key, value string) context.Context {
	l := Log.With().Str(key, value).Logger()
	return l.WithContext(ctx)
}

func fromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &Log
}

func write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		f(e)
	}
	e.Msg(msg)
}

func Debug(msg string, fields ...Field) {
	write(Log.Debug(), msg, fields)
}

func Info(msg string, fields ...Field) {
	write(Log.Info(), msg, fields)
}

func Warn(msg string, fields ...Field) {
	write(Log.Warn(), msg, fields)
}

func Error(msg string, fields ...Field) {
	write(Log.Error(), msg, fields)
}

func InfoContext(ctx context.Context, msg string, fields ...Field) {
	write(fromContext(ctx).Info(), msg, fields)
}

func WarnContext(ctx context.Context, msg string, fields ...Field) {
	write(fromContext(ctx).Warn(), msg, fields)
}

func ErrorContext(ctx context.Context, msg string, fields ...Field) {
	write(fromContext(ctx).Error(), msg, fields)
}

func Err(err error) Field {
	return func(e *zerolog.Event) { e.Err(err) }
}

func String(key, value string) Field {
	return func(e *zerolog.Event) { e.Str(key, value) }
}

func Int(key string, value int) Field {
	return func(e *zerolog.Event) { e.Int(key, value) }
}

func Int64(key string, value int64) Field {
	return func(e *zerolog.Event) { e.Int64(key, value) }
}

func Duration(key string, value time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(key, value) }
}

func Any(key string, value any) Field {
	return func(e *zerolog.Event) { e.Interface(key, value) }
}
