package telemetry

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, slog.LevelWarn)
	t.Cleanup(func() { logger = nil })

	Infof("hidden %d", 1)
	assert.Empty(t, buf.String())

	Warnf("margin sum %.3f", 1.125)
	L().With("match", "abc").Error("boom", "minute", 12)

	out := buf.String()
	assert.Contains(t, out, "WARN: margin sum 1.125")
	assert.Contains(t, out, "ERROR: boom match=abc minute=12")
}

func TestLatencyTracker(t *testing.T) {
	lt := NewLatencyTracker(5)
	assert.Zero(t, lt.P50())

	for i := 1; i <= 10; i++ {
		lt.Record(time.Duration(i) * time.Millisecond)
	}
	require.Equal(t, 5, lt.Count())
	assert.Equal(t, 8*time.Millisecond, lt.P50())
	assert.Equal(t, 9*time.Millisecond, lt.P99())
}

func TestGauge(t *testing.T) {
	var g Gauge
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, int64(1), g.Value())
	g.Set(7)
	assert.Equal(t, int64(7), g.Value())
}
