package devbackend

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cubectl/pkg/logging"
)

const (
	clientBuffer = 256
	writeWait    = 5 * time.Second
)

// logHub fans log lines out to every connected stream client. A client
// that cannot keep up loses lines rather than slowing the others.
type logHub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	dropped uint64
	done    chan struct{}
	once    sync.Once
}

func newLogHub() *logHub {
	return &logHub{clients: make(map[chan string]struct{}), done: make(chan struct{})}
}

// close ends every stream. Hijacked connections outlive http.Server.Shutdown.
func (h *logHub) close() {
	h.once.Do(func() { close(h.done) })
}

func (h *logHub) subscribe() chan string {
	ch := make(chan string, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *logHub) unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *logHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *logHub) publish(format string, args ...interface{}) {
	line := time.Now().UTC().Format(time.RFC3339) + " " + fmt.Sprintf(format, args...)
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- line:
		default:
			h.dropped++
		}
	}
}

// heartbeat publishes a line every interval until ctx ends.
func (h *logHub) heartbeat(ctx context.Context, interval time.Duration, describe func() string) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.publish("INFO heartbeat %s", describe())
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveStream upgrades the request and writes one text frame per line.
func (h *logHub) serveStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("DevBackend", "Log stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	lines := h.subscribe()
	defer h.unsubscribe(lines)
	logging.Debug("DevBackend", "Log stream client connected from %s", r.RemoteAddr)

	// The read side only detects the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			logging.Debug("DevBackend", "Log stream client %s disconnected", r.RemoteAddr)
			return
		case <-h.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
			return
		case line := <-lines:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	}
}
