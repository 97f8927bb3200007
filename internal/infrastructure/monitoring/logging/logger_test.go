package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newObservedLogger returns a Logger whose entries are captured in memory so
// tests can assert on messages, levels, and fields.
func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestNewLoggerDefaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, l)

	// Unknown values fall back to defaults instead of failing.
	l, err = NewLogger(LogConfig{Level: "verbose", Format: "xml"})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNewLoggerConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNewLoggerInvalidOutputPath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir-3f9a/out.log"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"WARNING": zapcore.InfoLevel, // only canonical spellings are accepted
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, logs := newObservedLogger(zapcore.WarnLevel)

	l.Debug("debug entry")
	l.Info("info entry")
	l.Warn("warn entry")
	l.Error("error entry")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "warn entry", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "error entry", entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestFieldsAppearInOutput(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Info("processed",
		String("lot_id", "LOT-42"),
		Int("items", 3),
		Int64("bytes", 1024),
		Float64("height_cm", 97.5),
		Bool("manual_review", false),
		Duration("elapsed", 250*time.Millisecond),
	)

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "LOT-42", ctx["lot_id"])
	assert.Equal(t, int64(3), ctx["items"])
	assert.Equal(t, int64(1024), ctx["bytes"])
	assert.Equal(t, 97.5, ctx["height_cm"])
	assert.Equal(t, false, ctx["manual_review"])
	assert.Equal(t, 250*time.Millisecond, ctx["elapsed"])
}

func TestErrField(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Error("failed", Err(errors.New("boom")))
	l.Info("ok", Err(nil))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])
	assert.Equal(t, "<nil>", logs.All()[1].ContextMap()["error"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	parent, logs := newObservedLogger(zapcore.DebugLevel)

	child := parent.With(String("component", "resolver"))
	child.Info("first")
	child.Info("second", Int("attempt", 2))
	parent.Info("bare")

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "resolver", entries[0].ContextMap()["component"])
	assert.Equal(t, "resolver", entries[1].ContextMap()["component"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["attempt"])

	// Parent is not mutated by With.
	_, ok := entries[2].ContextMap()["component"]
	assert.False(t, ok)
}

func TestNamedAppendsLoggerName(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Named("http").Named("handler").Info("request")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "http.handler", logs.All()[0].LoggerName)
}

func TestNopLoggerIsInert(t *testing.T) {
	l := NewNopLogger()

	assert.NotPanics(t, func() {
		l.Debug("debug")
		l.Info("info")
		l.Warn("warn")
		l.Error("error", Err(errors.New("ignored")))
		l.With(String("k", "v")).Named("child").Info("chained")
	})
}

func TestZapFieldConversionFallsBackToAny(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Info("typed", Field{Key: "raw", Value: []int{1, 2}})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, []int{1, 2}, logs.All()[0].ContextMap()["raw"])
}
