package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: level, Format: "json", Output: "discard"})
	opts := &slog.HandlerOptions{Level: levels[level]}
	l.Logger = slog.New(slog.NewJSONHandler(&buf, opts))
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_CommitError(t *testing.T) {
	// Arrange
	l, buf := bufferLogger("info")

	// Act
	l.WithComponent("batch_committer").CommitError("Record write failed", errors.New("HTTP 409"), "site/page/wp", slog.Int("attempt", 1))

	// Assert
	entry := decodeLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "commit", entry["subsystem"])
	assert.Equal(t, "batch_committer", entry["component"])
	assert.Equal(t, "site/page/wp", entry["record_key"])
	assert.Equal(t, "HTTP 409", entry["error"])
	assert.EqualValues(t, 1, entry["attempt"])
}

func TestLogger_Performance(t *testing.T) {
	l, buf := bufferLogger("info")

	l.Performance("batch_commit", 1500*time.Millisecond, slog.Int("records", 3))

	entry := decodeLine(t, buf)
	assert.Equal(t, "performance", entry["msg"])
	assert.EqualValues(t, 1500, entry["duration_ms"])
	assert.EqualValues(t, 3, entry["records"])
}

func TestLogger_GraphIsDebugOnly(t *testing.T) {
	l, buf := bufferLogger("info")

	l.Graph("Graph request", "status", 200)

	assert.Zero(t, buf.Len())
}

func TestLogger_WithRequest(t *testing.T) {
	l, buf := bufferLogger("info")
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

	l.WithRequest(ctx).Warn("Ad-hoc request failed")
	assert.Equal(t, "req-42", decodeLine(t, buf)["request_id"])

	assert.Same(t, l, l.WithRequest(context.Background()))
}

func TestNewLogger_UnknownValuesFallBack(t *testing.T) {
	l := NewLogger(&Config{Level: "chatty", Format: "yaml", Output: "printer"})

	assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))
}
