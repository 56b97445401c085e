// Package logging provides the small structured-logging facade used
// throughout this module: every package logs through a context-carried
// Logger instead of a process-global one, so a caller embedding this
// module can redirect or silence its output without touching package
// state.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Logger is the structured logging interface every component in this
// module writes through.
type Logger interface {
	Debug(args ...interface{})
	Debugf(msg string, args ...interface{})
	Debugw(msg string, keyValuePairs ...interface{})

	Info(args ...interface{})
	Infof(msg string, args ...interface{})
	Infow(msg string, keyValuePairs ...interface{})

	Warn(args ...interface{})
	Warnf(msg string, args ...interface{})
	Warnw(msg string, keyValuePairs ...interface{})

	Error(args ...interface{})
	Errorf(msg string, args ...interface{})
	Errorw(msg string, keyValuePairs ...interface{})
}

// LoggerFactory builds a module-scoped Logger on demand. It is the value
// stashed into a context.Context by WithLogger.
type LoggerFactory func(module string) Logger

// GetContextLoggerFunc resolves a Logger for a given context, typically
// returned by Module.
type GetContextLoggerFunc func(ctx context.Context) Logger

type contextKeyType int

const loggerFactoryKey contextKeyType = iota

// WithLogger returns a context carrying f as the active LoggerFactory,
// replacing any previously attached factory.
func WithLogger(ctx context.Context, f LoggerFactory) context.Context {
	return context.WithValue(ctx, loggerFactoryKey, f)
}

// WithAdditionalLogger returns a context that broadcasts to both the
// currently active factory and f. If no factory is active yet, this is
// equivalent to WithLogger.
func WithAdditionalLogger(ctx context.Context, f LoggerFactory) context.Context {
	existing, ok := ctx.Value(loggerFactoryKey).(LoggerFactory)
	if !ok {
		return WithLogger(ctx, f)
	}

	return WithLogger(ctx, func(module string) Logger {
		return Broadcast(existing(module), f(module))
	})
}

// Module returns a GetContextLoggerFunc bound to the given module name: it
// resolves whatever LoggerFactory is active on the context it is handed
// and asks it for a Logger scoped to name. With no factory attached, it
// returns a null Logger that discards everything.
func Module(name string) GetContextLoggerFunc {
	return func(ctx context.Context) Logger {
		f, ok := ctx.Value(loggerFactoryKey).(LoggerFactory)
		if !ok {
			return nullLogger{}
		}

		return f(name)
	}
}

// ToWriter returns a LoggerFactory whose loggers render plain lines
// ("message\n", or "message\t{json-fields}\n" for the *w variants)
// directly to w, ignoring the module name. It is meant for CLI tools and
// tests, not production services.
func ToWriter(w io.Writer) LoggerFactory {
	return func(string) Logger {
		return writerLogger{w: w}
	}
}

type writerLogger struct {
	w io.Writer
}

func (l writerLogger) line(msg string) {
	fmt.Fprintln(l.w, msg) //nolint:errcheck
}

// lineKV renders fields in insertion order, not sorted, so repeated calls
// with the same arguments produce identical output.
func (l writerLogger) lineKV(msg string, kv []interface{}) {
	if len(kv) == 0 {
		l.line(msg)
		return
	}

	var b strings.Builder

	b.WriteByte('{')

	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteString(", ")
		}

		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}

		fmt.Fprintf(&b, "%q: %s", key, formatLogValue(kv[i+1]))
	}

	b.WriteByte('}')

	fmt.Fprintf(l.w, "%s\t%s\n", msg, b.String()) //nolint:errcheck
}

func formatLogValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}

	return fmt.Sprint(v)
}

func (l writerLogger) Debug(args ...interface{}) { l.line(fmt.Sprint(args...)) }
func (l writerLogger) Info(args ...interface{})  { l.line(fmt.Sprint(args...)) }
func (l writerLogger) Warn(args ...interface{})  { l.line(fmt.Sprint(args...)) }
func (l writerLogger) Error(args ...interface{}) { l.line(fmt.Sprint(args...)) }

func (l writerLogger) Debugf(msg string, args ...interface{}) { l.line(fmt.Sprintf(msg, args...)) }
func (l writerLogger) Infof(msg string, args ...interface{})  { l.line(fmt.Sprintf(msg, args...)) }
func (l writerLogger) Warnf(msg string, args ...interface{})  { l.line(fmt.Sprintf(msg, args...)) }
func (l writerLogger) Errorf(msg string, args ...interface{}) { l.line(fmt.Sprintf(msg, args...)) }

func (l writerLogger) Debugw(msg string, kv ...interface{}) { l.lineKV(msg, kv) }
func (l writerLogger) Infow(msg string, kv ...interface{})  { l.lineKV(msg, kv) }
func (l writerLogger) Warnw(msg string, kv ...interface{})  { l.lineKV(msg, kv) }
func (l writerLogger) Errorw(msg string, kv ...interface{}) { l.lineKV(msg, kv) }

type nullLogger struct{}

func (nullLogger) Debug(args ...interface{})              {}
func (nullLogger) Debugf(msg string, args ...interface{}) {}
func (nullLogger) Debugw(msg string, kv ...interface{})   {}
func (nullLogger) Info(args ...interface{})               {}
func (nullLogger) Infof(msg string, args ...interface{})  {}
func (nullLogger) Infow(msg string, kv ...interface{})    {}
func (nullLogger) Warn(args ...interface{})               {}
func (nullLogger) Warnf(msg string, args ...interface{})  {}
func (nullLogger) Warnw(msg string, kv ...interface{})    {}
func (nullLogger) Error(args ...interface{})              {}
func (nullLogger) Errorf(msg string, args ...interface{}) {}
func (nullLogger) Errorw(msg string, kv ...interface{})   {}

// broadcastLogger fans every call out to all of its members, in order.
type broadcastLogger struct {
	loggers []Logger
}

// Broadcast returns a Logger that forwards every call to each of loggers
// in order.
func Broadcast(loggers ...Logger) Logger {
	return broadcastLogger{loggers: loggers}
}

func (b broadcastLogger) Debug(args ...interface{}) {
	for _, l := range b.loggers {
		l.Debug(args...)
	}
}

func (b broadcastLogger) Debugf(msg string, args ...interface{}) {
	for _, l := range b.loggers {
		l.Debugf(msg, args...)
	}
}

func (b broadcastLogger) Debugw(msg string, kv ...interface{}) {
	for _, l := range b.loggers {
		l.Debugw(msg, kv...)
	}
}

func (b broadcastLogger) Info(args ...interface{}) {
	for _, l := range b.loggers {
		l.Info(args...)
	}
}

func (b broadcastLogger) Infof(msg string, args ...interface{}) {
	for _, l := range b.loggers {
		l.Infof(msg, args...)
	}
}

func (b broadcastLogger) Infow(msg string, kv ...interface{}) {
	for _, l := range b.loggers {
		l.Infow(msg, kv...)
	}
}

func (b broadcastLogger) Warn(args ...interface{}) {
	for _, l := range b.loggers {
		l.Warn(args...)
	}
}

func (b broadcastLogger) Warnf(msg string, args ...interface{}) {
	for _, l := range b.loggers {
		l.Warnf(msg, args...)
	}
}

func (b broadcastLogger) Warnw(msg string, kv ...interface{}) {
	for _, l := range b.loggers {
		l.Warnw(msg, kv...)
	}
}

func (b broadcastLogger) Error(args ...interface{}) {
	for _, l := range b.loggers {
		l.Error(args...)
	}
}

func (b broadcastLogger) Errorf(msg string, args ...interface{}) {
	for _, l := range b.loggers {
		l.Errorf(msg, args...)
	}
}

func (b broadcastLogger) Errorw(msg string, kv ...interface{}) {
	for _, l := range b.loggers {
		l.Errorw(msg, kv...)
	}
}
