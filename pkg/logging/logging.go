// Package logging provides the diagnostics capability consumed by the
// record-access layer: leveled sinks keyed by a context name. A context
// with no registered sink is not an error; calls no-op and report
// non-success.
package logging

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// Logger is the sink capability. Each call reports whether a sink actually
// handled the message.
type Logger interface {
	Debug(msg string, ctx map[string]interface{}) bool
	Info(msg string, ctx map[string]interface{}) bool
	Warning(msg string, ctx map[string]interface{}) bool
	Error(msg string, ctx map[string]interface{}) bool
	Fatal(msg string, ctx map[string]interface{}) bool
}

// Registry maps context names to sinks. It is explicitly passed to
// consumers instead of living in process-wide state.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Logger
}

func NewRegistry() *Registry {
	return &Registry{sinks: map[string]Logger{}}
}

// Register attaches a sink to a context name, replacing any previous one.
func (r *Registry) Register(context string, sink Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[context] = sink
}

// For returns the sink for a context, or a no-op sink when none is
// registered.
func (r *Registry) For(context string) Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sink, ok := r.sinks[context]; ok {
		return sink
	}
	return Nop{}
}

// Nop is a sink that drops everything and reports non-success.
type Nop struct{}

func (Nop) Debug(string, map[string]interface{}) bool   { return false }
func (Nop) Info(string, map[string]interface{}) bool    { return false }
func (Nop) Warning(string, map[string]interface{}) bool { return false }
func (Nop) Error(string, map[string]interface{}) bool   { return false }
func (Nop) Fatal(string, map[string]interface{}) bool   { return false }

// slogSink adapts a *slog.Logger to the Logger capability.
type slogSink struct {
	logger *slog.Logger
}

// NewSlog wraps a slog logger as a sink.
func NewSlog(logger *slog.Logger) Logger {
	return &slogSink{logger: logger}
}

// NewStderr builds a text-handler sink at the given level
// ("debug", "info", "warn", "error").
func NewStderr(level string) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	return NewSlog(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *slogSink) log(level slog.Level, msg string, ctx map[string]interface{}) bool {
	args := make([]interface{}, 0, 2*len(ctx))
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k, ctx[k])
	}
	s.logger.Log(context.Background(), level, msg, args...)
	return true
}

func (s *slogSink) Debug(msg string, ctx map[string]interface{}) bool {
	return s.log(slog.LevelDebug, msg, ctx)
}

func (s *slogSink) Info(msg string, ctx map[string]interface{}) bool {
	return s.log(slog.LevelInfo, msg, ctx)
}

func (s *slogSink) Warning(msg string, ctx map[string]interface{}) bool {
	return s.log(slog.LevelWarn, msg, ctx)
}

func (s *slogSink) Error(msg string, ctx map[string]interface{}) bool {
	return s.log(slog.LevelError, msg, ctx)
}

// Fatal logs at error level with a fatal marker; exiting the process is
// the caller's decision.
func (s *slogSink) Fatal(msg string, ctx map[string]interface{}) bool {
	args := []interface{}{"fatal", true}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k, ctx[k])
	}
	s.logger.Log(context.Background(), slog.LevelError, msg, args...)
	return true
}
