package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, "info")
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")

	logger.InfoContext(ctx, "feedback created", "feedback_id", 7)
	logger.DebugContext(ctx, "hidden")

	out := buf.String()
	assert.Contains(t, out, "feedback created")
	assert.Contains(t, out, "request_id=req-123")
	assert.Contains(t, out, "feedback_id=7")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "trace_id")
}
