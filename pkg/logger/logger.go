package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Format      string
	Output      io.Writer
}

type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	var output io.Writer = opts.Output
	if output == nil {
		output = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.
		New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(opts.Level)

	return &Logger{
		base:      &logger,
		warnStack: opts.WarnStack,
	}
}

// Nop returns a logger that discards every entry.
func Nop() *Logger {
	logger := zerolog.Nop()
	return &Logger{base: &logger}
}

func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

// fields is the ordered set of context fields. Setting a key again
// replaces its value so every entry carries each key once.
type fields struct {
	keys   []string
	values map[string]any
	root   *zerolog.Logger
	entry  *zerolog.Logger
}

func (l *Logger) fieldsFromContext(ctx context.Context) *fields {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(ctxKey{}).(*fields)
	return f
}

func (l *Logger) loggerFromContext(ctx context.Context) *zerolog.Logger {
	if f := l.fieldsFromContext(ctx); f != nil {
		return f.entry
	}
	return l.base
}

func (l *Logger) attach(ctx context.Context, set map[string]any, order []string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	next := &fields{values: make(map[string]any), root: l.base}
	if prev := l.fieldsFromContext(ctx); prev != nil {
		next.root = prev.root
		next.keys = append(next.keys, prev.keys...)
		for k, v := range prev.values {
			next.values[k] = v
		}
	}
	for _, k := range order {
		if _, ok := next.values[k]; !ok {
			next.keys = append(next.keys, k)
		}
		next.values[k] = set[k]
	}

	builder := next.root.With()
	for _, k := range next.keys {
		builder = builder.Interface(k, next.values[k])
	}
	entry := builder.Logger()
	next.entry = &entry
	return context.WithValue(ctx, ctxKey{}, next)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.attach(ctx, map[string]any{key: value}, []string{key})
}

func (l *Logger) WithFields(ctx context.Context, set map[string]any) context.Context {
	order := make([]string, 0, len(set))
	for k := range set {
		order = append(order, k)
	}
	sort.Strings(order)
	return l.attach(ctx, set, order)
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithSessionID(ctx context.Context, sessionID string) context.Context {
	return l.WithField(ctx, "session_id", sessionID)
}

func (l *Logger) WithTrigger(ctx context.Context, trigger string) context.Context {
	return l.WithField(ctx, "trigger", trigger)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.loggerFromContext(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.loggerFromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
