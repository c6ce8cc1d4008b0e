package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopReportsNonSuccess(t *testing.T) {
	var l Logger = Nop{}
	assert.False(t, l.Debug("x", nil))
	assert.False(t, l.Info("x", nil))
	assert.False(t, l.Warning("x", nil))
	assert.False(t, l.Error("x", nil))
	assert.False(t, l.Fatal("x", nil))
}

func TestRegistryFallsBackToNop(t *testing.T) {
	r := NewRegistry()
	l := r.For("unregistered")
	assert.False(t, l.Info("dropped", nil))
}

func TestRegistryRegisterAndReplace(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry()
	r.Register("dao", NewSlog(slog.New(slog.NewTextHandler(&buf, nil))))

	assert.True(t, r.For("dao").Info("hello", nil))
	assert.Contains(t, buf.String(), "hello")

	r.Register("dao", Nop{})
	assert.False(t, r.For("dao").Info("replaced", nil))
}

func TestSlogSinkContextOrdering(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlog(slog.New(slog.NewTextHandler(&buf, nil)))

	ok := l.Info("select", map[string]interface{}{
		"store": "users",
		"rows":  3,
		"limit": 10,
	})
	require.True(t, ok)

	line := buf.String()
	assert.Contains(t, line, "store=users")
	assert.Contains(t, line, "rows=3")
	// Context keys are emitted sorted.
	assert.Less(t, strings.Index(line, "limit=10"), strings.Index(line, "rows=3"))
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	l := NewSlog(slog.New(slog.NewTextHandler(&buf, opts)))

	l.Debug("quiet", nil)
	l.Info("quiet", nil)
	assert.Empty(t, buf.String())

	l.Warning("loud", nil)
	assert.Contains(t, buf.String(), "loud")
}

func TestFatalCarriesMarker(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlog(slog.New(slog.NewTextHandler(&buf, nil)))

	require.True(t, l.Fatal("boom", map[string]interface{}{"store": "users"}))
	line := buf.String()
	assert.Contains(t, line, "fatal=true")
	assert.Contains(t, line, "level=ERROR")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}
