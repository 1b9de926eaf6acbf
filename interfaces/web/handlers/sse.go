package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/sjson"

	"spoadmin/domain/records"
	"spoadmin/interfaces/web/presenters"
	"spoadmin/logging"
)

// SSE event names the page listens for.
const (
	EventRecordsUpdated = "records-updated"
	EventRecordUpdated  = "record-updated"
	EventCommitLog      = "commit-log"
	EventToast          = "toast"
)

const (
	keepAliveInterval = 30 * time.Second
	staleAfter        = 2 * time.Minute
)

var errClientClosed = errors.New("sse client closed")

// SSEClient is one open event stream.
type SSEClient struct {
	id        string
	writer    http.ResponseWriter
	flusher   http.Flusher
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	lastSent  time.Time
}

func (c *SSEClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// write emits one frame. Comment frames keep the connection warm without firing htmx triggers.
func (c *SSEClient) write(event, data string, comment bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	var err error
	if comment {
		_, err = fmt.Fprintf(c.writer, ": %s\n\n", data)
	} else {
		_, err = fmt.Fprintf(c.writer, "event: %s\ndata: %s\n\n", event, data)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", event, err)
	}
	c.flusher.Flush()
	c.lastSent = time.Now()
	return nil
}

func (c *SSEClient) idleSince(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSent.Before(t)
}

// SSEManager fans record, commit and toast updates out to every open console.
type SSEManager struct {
	clients        map[string]*SSEClient
	mu             sync.RWMutex
	logger         *logging.Logger
	toastPresenter *presenters.ToastPresenter
}

// NewSSEManager starts the keep-alive loop, which stops with ctx.
func NewSSEManager(ctx context.Context) *SSEManager {
	m := &SSEManager{
		clients:        make(map[string]*SSEClient),
		logger:         logging.Default().WithComponent("sse_manager"),
		toastPresenter: presenters.NewToastPresenter(),
	}
	go m.keepAlive(ctx)
	return m
}

// AddClient registers w as an event stream. It returns nil when w cannot flush.
func (s *SSEManager) AddClient(clientID string, w http.ResponseWriter) *SSEClient {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("Response writer does not support flushing", "client_id", clientID)
		return nil
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	flusher.Flush()

	client := &SSEClient{id: clientID, writer: w, flusher: flusher, done: make(chan struct{}), lastSent: time.Now()}

	s.mu.Lock()
	if old, ok := s.clients[clientID]; ok {
		old.close()
	}
	s.clients[clientID] = client
	total := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("SSE client connected", "client_id", clientID, "total_clients", total)
	_ = client.write("connected", "Connected client "+clientID, true)
	return client
}

// RemoveClient closes and forgets a client. Unknown ids are ignored.
func (s *SSEManager) RemoveClient(clientID string) {
	s.mu.RLock()
	client, ok := s.clients[clientID]
	s.mu.RUnlock()
	if ok {
		s.detach(client)
	}
}

// detach removes client only while it is still the registered stream for its id,
// so a stale stream never evicts the reconnect that replaced it.
func (s *SSEManager) detach(client *SSEClient) {
	s.mu.Lock()
	current, ok := s.clients[client.id]
	if ok && current == client {
		delete(s.clients, client.id)
	}
	s.mu.Unlock()

	client.close()
	if ok && current == client {
		s.logger.Info("SSE client disconnected", "client_id", client.id)
	}
}

// ClientCount returns the number of connected clients.
func (s *SSEManager) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// CloseAll disconnects every client on shutdown.
func (s *SSEManager) CloseAll() {
	for _, c := range s.snapshot() {
		s.detach(c)
	}
}

func (s *SSEManager) snapshot() []*SSEClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*SSEClient, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

// broadcast writes one frame to every client outside the manager lock and drops clients that fail.
func (s *SSEManager) broadcast(event, data string, comment bool) (sent, failed int) {
	for _, c := range s.snapshot() {
		if err := c.write(event, data, comment); err != nil {
			s.logger.Warn("Dropping SSE client", "client_id", c.id, "event", event, "error", err)
			s.detach(c)
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

// BroadcastRecordUpdate tells clients that one record changed.
func (s *SSEManager) BroadcastRecordUpdate(key string, dirty bool) {
	payload, _ := sjson.Set(`{}`, "key", key)
	payload, _ = sjson.Set(payload, "dirty", dirty)
	sent, failed := s.broadcast(EventRecordUpdated, payload, false)
	s.logger.Debug("Broadcast record update", "key", key, "dirty", dirty, "sent", sent, "failed", failed)
}

// BroadcastRecordsUpdate tells clients to reload the records table.
func (s *SSEManager) BroadcastRecordsUpdate() {
	payload, _ := sjson.Set(`{"action":"refresh"}`, "timestamp", time.Now().Format(time.RFC3339))
	sent, failed := s.broadcast(EventRecordsUpdated, payload, false)
	s.logger.Info("Broadcast records update", "sent", sent, "failed", failed)
}

// BroadcastCommitLog pushes the per-record outcome of a commit run.
func (s *SSEManager) BroadcastCommitLog(result records.CommitResult) {
	html, err := s.toastPresenter.FormatCommitLog(result)
	if err != nil {
		s.logger.Error("Failed to format commit log", "error", err, "run_id", result.RunID)
		return
	}
	sent, failed := s.broadcast(EventCommitLog, html, false)
	s.logger.Info("Broadcast commit log", "run_id", result.RunID, "succeeded", result.Succeeded,
		"failed_records", result.Failed, "sent", sent, "failed", failed)
}

// BroadcastToast shows a toast of the given type on every console.
func (s *SSEManager) BroadcastToast(message, toastType string) {
	html, err := s.toastPresenter.FormatToastNotification(message, toastType)
	if err != nil {
		s.logger.Error("Failed to format toast", "error", err)
		return
	}
	sent, failed := s.broadcast(EventToast, html, false)
	s.logger.Info("Broadcast toast", "type", toastType, "sent", sent, "failed", failed)
}

// keepAlive pings every client and drops the ones that have gone quiet.
func (s *SSEManager) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.broadcast("keepalive", now.Format(time.RFC3339), true)
			s.dropIdle(now.Add(-staleAfter))
		}
	}
}

func (s *SSEManager) dropIdle(cutoff time.Time) {
	for _, c := range s.snapshot() {
		if c.idleSince(cutoff) {
			s.logger.Info("Removing stale SSE client", "client_id", c.id)
			s.detach(c)
		}
	}
}

// HandleSSEConnection serves GET /events until the browser or the manager closes the stream.
func (s *SSEManager) HandleSSEConnection(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = ulid.Make().String()
	}

	client := s.AddClient(clientID, w)
	if client == nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	select {
	case <-r.Context().Done():
	case <-client.done:
	}
	s.detach(client)
}
