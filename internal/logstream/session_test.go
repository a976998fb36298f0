package logstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/wait"
)

// streamServer sends the configured lines on every connection and then
// either holds the connection open or drops it.
type streamServer struct {
	srv         *httptest.Server
	connections atomic.Int32
	active      atomic.Int32
}

func newStreamServer(t *testing.T, lines []string, hold bool) *streamServer {
	t.Helper()
	ss := &streamServer{}
	upgrader := websocket.Upgrader{}
	ss.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ss.connections.Add(1)
		ss.active.Add(1)
		defer ss.active.Add(-1)
		defer conn.Close()

		for _, line := range lines {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
		if !hold {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ss.srv.Close)
	return ss
}

func (ss *streamServer) url() string {
	return "ws" + strings.TrimPrefix(ss.srv.URL, "http")
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, 3*time.Second, 5*time.Millisecond,
		"state %s never reached, last %s", want, s.State())
}

func waitForLines(t *testing.T, s *Session, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.Lines()) >= n }, 3*time.Second, 5*time.Millisecond)
}

func TestLinesArriveInOrder(t *testing.T) {
	ss := newStreamServer(t, []string{"a", "b", "c"}, true)
	s := NewSession(Config{URL: ss.url()})
	defer s.Close()

	s.Open(context.Background())
	waitForState(t, s, StateOpen)
	waitForLines(t, s, 3)
	assert.Equal(t, []string{"a", "b", "c"}, s.Lines())
}

func TestEachFrameIsOneLineUnmodified(t *testing.T) {
	ss := newStreamServer(t, []string{"a\nb", "c\r\n", "  d  "}, true)
	s := NewSession(Config{URL: ss.url()})
	defer s.Close()

	s.Open(context.Background())
	waitForLines(t, s, 3)
	assert.Equal(t, []string{"a\nb", "c\r\n", "  d  "}, s.Lines())
}

func TestReopenStartsFreshAndKeepsSingleConnection(t *testing.T) {
	ss := newStreamServer(t, []string{"x", "y"}, true)
	s := NewSession(Config{URL: ss.url()})
	defer s.Close()

	s.Open(context.Background())
	waitForLines(t, s, 2)

	s.Open(context.Background())
	waitForState(t, s, StateOpen)
	waitForLines(t, s, 2)
	assert.Equal(t, []string{"x", "y"}, s.Lines(), "reopen does not carry over old lines")

	require.Eventually(t, func() bool { return ss.active.Load() == 1 }, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), ss.connections.Load())
}

func TestClearKeepsConnection(t *testing.T) {
	ss := newStreamServer(t, []string{"a", "b"}, true)
	s := NewSession(Config{URL: ss.url()})
	defer s.Close()

	s.Open(context.Background())
	waitForLines(t, s, 2)

	s.Clear()
	assert.Empty(t, s.Lines())
	assert.Equal(t, StateOpen, s.State())
}

func TestCloseIsIdempotentAndReleasesConnection(t *testing.T) {
	ss := newStreamServer(t, []string{"a"}, true)
	s := NewSession(Config{URL: ss.url()})

	s.Open(context.Background())
	waitForState(t, s, StateOpen)

	s.Close()
	s.Close()
	assert.Equal(t, StateClosed, s.State())
	require.Eventually(t, func() bool { return ss.active.Load() == 0 }, 3*time.Second, 5*time.Millisecond)

	// Lines survive close until the next open.
	assert.Equal(t, []string{"a"}, s.Lines())
}

func TestServerDropWithoutReconnectEndsClosed(t *testing.T) {
	ss := newStreamServer(t, []string{"last words"}, false)
	s := NewSession(Config{URL: ss.url()})
	defer s.Close()

	s.Open(context.Background())
	waitForState(t, s, StateClosed)
	assert.Error(t, s.LastError())
	assert.Equal(t, int32(1), ss.connections.Load())
	assert.Equal(t, []string{"last words"}, s.Lines())
}

func TestDialFailureEndsClosedWithError(t *testing.T) {
	ss := newStreamServer(t, nil, true)
	url := ss.url()
	ss.srv.Close()

	s := NewSession(Config{URL: url})
	defer s.Close()
	signals, stop := s.Watch()
	defer stop()

	s.Open(context.Background())
	waitForState(t, s, StateClosed)
	select {
	case <-signals:
	default:
		t.Fatal("watcher was not signalled")
	}
	assert.Error(t, s.LastError())
	assert.Empty(t, s.Lines())
}

func TestReconnectPolicy(t *testing.T) {
	ss := newStreamServer(t, []string{"hello"}, false)
	s := NewSession(Config{
		URL: ss.url(),
		Reconnect: ReconnectPolicy{
			Enabled: true,
			Backoff: wait.Backoff{Duration: 10 * time.Millisecond, Factor: 1, Steps: 2},
		},
	})
	defer s.Close()

	s.Open(context.Background())
	require.Eventually(t, func() bool { return ss.connections.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
	assert.Contains(t, s.Lines(), "hello")
}

func TestSetVisibleTogglesSession(t *testing.T) {
	ss := newStreamServer(t, []string{"a"}, true)
	s := NewSession(Config{URL: ss.url()})
	defer s.Close()
	ctx := context.Background()

	s.SetVisible(ctx, true)
	assert.True(t, s.Visible())
	waitForState(t, s, StateOpen)

	// Showing an already open panel does not reconnect.
	s.SetVisible(ctx, true)
	assert.Equal(t, int32(1), ss.connections.Load())

	s.SetVisible(ctx, false)
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, s.Visible())
}

func TestBufferIsBounded(t *testing.T) {
	lines := make([]string, 25)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	ss := newStreamServer(t, lines, true)
	s := NewSession(Config{URL: ss.url(), BufferLines: 10})
	defer s.Close()

	s.Open(context.Background())
	require.Eventually(t, func() bool { return s.Dropped() == 15 }, 3*time.Second, 5*time.Millisecond)

	got := s.Lines()
	require.Len(t, got, 10)
	assert.Equal(t, "line 15", got[0])
	assert.Equal(t, "line 24", got[9])
}

func TestContextCancelClosesSession(t *testing.T) {
	ss := newStreamServer(t, nil, true)
	s := NewSession(Config{URL: ss.url()})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s.Open(ctx)
	waitForState(t, s, StateOpen)

	cancel()
	waitForState(t, s, StateClosed)
	assert.NoError(t, s.LastError())
}
