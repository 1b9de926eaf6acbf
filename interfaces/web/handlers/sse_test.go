package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spoadmin/domain/records"
)

func newTestSSEManager(t *testing.T) *SSEManager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewSSEManager(ctx)
}

func TestSSEManager_AddAndRemoveClient(t *testing.T) {
	manager := newTestSSEManager(t)
	rec := httptest.NewRecorder()

	client := manager.AddClient("c1", rec)

	require.NotNil(t, client)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, manager.ClientCount())
	assert.Contains(t, rec.Body.String(), ": Connected client c1")

	manager.RemoveClient("c1")
	manager.RemoveClient("c1")
	assert.Zero(t, manager.ClientCount())
}

func TestSSEManager_BroadcastEvents(t *testing.T) {
	// Arrange
	manager := newTestSSEManager(t)
	rec := httptest.NewRecorder()
	manager.AddClient("c1", rec)

	// Act
	manager.BroadcastRecordUpdate("site|home|a", true)
	manager.BroadcastRecordsUpdate()
	manager.BroadcastToast("Saved <1>", "success")
	manager.BroadcastCommitLog(records.CommitResult{
		RunID:     "run-1",
		Entries:   []records.CommitEntry{{Success: true, Message: "saved"}},
		Succeeded: 1,
	})

	// Assert
	body := rec.Body.String()
	assert.Contains(t, body, "event: record-updated\ndata: {\"key\":\"site|home|a\",\"dirty\":true}\n\n")
	assert.Contains(t, body, "event: records-updated\n")
	assert.Contains(t, body, "event: toast\ndata: ")
	assert.NotContains(t, body, "Saved <1>")
	assert.Contains(t, body, "event: commit-log\ndata: ")
	assert.Contains(t, body, `data-run-id="run-1"`)

	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		for _, line := range strings.Split(block, "\n") {
			assert.True(t, strings.HasPrefix(line, "event: ") || strings.HasPrefix(line, "data: ") || strings.HasPrefix(line, ": "), line)
		}
	}
}

func TestSSEManager_ClosedClientIsDropped(t *testing.T) {
	manager := newTestSSEManager(t)
	client := manager.AddClient("c1", httptest.NewRecorder())
	client.close()

	manager.BroadcastRecordsUpdate()

	assert.Zero(t, manager.ClientCount())
}

func TestSSEManager_CloseAll(t *testing.T) {
	manager := newTestSSEManager(t)
	a := manager.AddClient("a", httptest.NewRecorder())
	manager.AddClient("b", httptest.NewRecorder())

	manager.CloseAll()

	assert.Zero(t, manager.ClientCount())
	select {
	case <-a.done:
	default:
		t.Fatal("client a was not closed")
	}
}

func TestSSEManager_DropIdle(t *testing.T) {
	manager := newTestSSEManager(t)
	manager.AddClient("quiet", httptest.NewRecorder())

	manager.dropIdle(time.Now().Add(time.Minute))

	assert.Zero(t, manager.ClientCount())
}

func TestSSEManager_ReconnectReplacesClient(t *testing.T) {
	manager := newTestSSEManager(t)
	first := manager.AddClient("c1", httptest.NewRecorder())

	manager.AddClient("c1", httptest.NewRecorder())

	assert.Equal(t, 1, manager.ClientCount())
	select {
	case <-first.done:
	default:
		t.Fatal("previous stream was not closed")
	}
}
