// Package logstream manages the single live log-streaming session of the
// dashboard.
//
// A Session owns at most one websocket connection. Its lifetime follows
// the log panel's visibility: SetVisible(true) opens it, SetVisible(false)
// and Close release it. Incoming frames are appended, in arrival order, to
// a bounded line buffer, one entry per frame, that only Clear empties.
//
// Transport errors never reach the user as notices; they are logged and
// move the session to erroring and then closed. An opt-in reconnect
// policy retries with exponential backoff instead of closing.
package logstream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"k8s.io/apimachinery/pkg/util/wait"

	"cubectl/pkg/logging"
)

// DefaultURL is the log stream of a locally running backend.
const DefaultURL = "ws://localhost:8080/api/logs/stream"

// State is the connection state of a session.
type State string

const (
	StateClosed     State = "closed"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateErroring   State = "erroring"
)

// ReconnectPolicy controls automatic reconnection after a transport error.
type ReconnectPolicy struct {
	Enabled bool
	// Backoff is copied for every outage; Steps bounds the attempts.
	Backoff wait.Backoff
}

// DefaultReconnectBackoff is used when reconnect is enabled without an
// explicit backoff.
var DefaultReconnectBackoff = wait.Backoff{
	Duration: 500 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
	Steps:    6,
	Cap:      30 * time.Second,
}

// Config holds the settings of a Session.
type Config struct {
	URL         string
	BufferLines int
	Reconnect   ReconnectPolicy
	// Dialer overrides the websocket dialer, mostly for tests.
	Dialer *websocket.Dialer
}

// Session is one log-streaming session. All methods are safe for
// concurrent use.
type Session struct {
	cfg    Config
	dialer *websocket.Dialer

	mu      sync.Mutex
	state   State
	visible bool
	ring    *lineRing
	conn    *websocket.Conn
	cancel  context.CancelFunc
	// gen increments whenever the current connection is abandoned, so a
	// reader goroutine can tell it has been superseded.
	gen      uint64
	lastErr  error
	watchers map[chan struct{}]struct{}
	// done is closed when the current reader goroutine exits.
	done chan struct{}
}

// NewSession creates a closed session.
func NewSession(cfg Config) *Session {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.BufferLines <= 0 {
		cfg.BufferLines = DefaultBufferLines
	}
	if cfg.Reconnect.Enabled && cfg.Reconnect.Backoff.Steps == 0 {
		cfg.Reconnect.Backoff = DefaultReconnectBackoff
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return &Session{
		cfg:      cfg,
		dialer:   dialer,
		state:    StateClosed,
		ring:     newLineRing(cfg.BufferLines),
		watchers: make(map[chan struct{}]struct{}),
	}
}

// URL returns the stream endpoint.
func (s *Session) URL() string { return s.cfg.URL }

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Visible reports whether the log panel is shown.
func (s *Session) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// LastError returns the most recent transport error, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Lines returns a copy of the buffered lines, oldest first.
func (s *Session) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.snapshot()
}

// Dropped returns how many lines were evicted from the full buffer since
// the session was opened or cleared.
func (s *Session) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.dropped
}

// Clear empties the buffer. The connection state is unchanged.
func (s *Session) Clear() {
	s.mu.Lock()
	s.ring.reset()
	s.notifyLocked()
	s.mu.Unlock()
}

// SetVisible is the log panel toggle: showing the panel opens a session
// unless one is already open or connecting, hiding it closes the session.
func (s *Session) SetVisible(ctx context.Context, visible bool) {
	s.mu.Lock()
	s.visible = visible
	active := s.state == StateOpen || s.state == StateConnecting
	s.mu.Unlock()

	switch {
	case visible && !active:
		s.Open(ctx)
	case !visible:
		s.Close()
	}
}

// Open starts a new connection with a fresh buffer, closing any previous
// one first. Connecting happens in the background; observe progress with
// State or Watch.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abandonLocked()
	connCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.ring.reset()
	s.lastErr = nil
	s.setStateLocked(StateConnecting)

	done := make(chan struct{})
	s.done = done
	go s.run(connCtx, s.gen, done)
}

// Close releases the connection and waits for the reader to exit. It is
// idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	done := s.abandonLocked()
	s.setStateLocked(StateClosed)
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// abandonLocked detaches the current connection, if any, and closes it.
// It returns the done channel of the abandoned reader.
func (s *Session) abandonLocked() chan struct{} {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = s.conn.Close()
		s.conn = nil
	}
	done := s.done
	s.done = nil
	return done
}

// Watch returns a channel that receives a signal after state or buffer
// changes. Signals are coalesced; read Lines and State after each one.
// Call the returned function to stop watching.
func (s *Session) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Session) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	backoff := s.cfg.Reconnect.Backoff
	for {
		opened, err := s.connectAndRead(ctx, gen)
		if err == nil || !s.current(gen) {
			return
		}
		if opened {
			backoff = s.cfg.Reconnect.Backoff
		}

		logging.Warn("LogStream", "Log stream %s failed: %v", s.cfg.URL, err)
		s.mu.Lock()
		s.lastErr = err
		s.setStateLocked(StateErroring)
		s.mu.Unlock()

		if !s.cfg.Reconnect.Enabled || backoff.Steps < 1 {
			s.finish(gen)
			return
		}

		delay := backoff.Step()
		logging.Debug("LogStream", "Reconnecting in %s", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.finish(gen)
			return
		case <-timer.C:
		}

		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.setStateLocked(StateConnecting)
		s.mu.Unlock()
	}
}

// connectAndRead dials and reads until the connection fails or the
// session moves on. It returns a nil error only when the session was
// closed or its context ended.
func (s *Session) connectAndRead(ctx context.Context, gen uint64) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		if ctx.Err() != nil {
			s.finish(gen)
			return false, nil
		}
		return false, err
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		_ = conn.Close()
		return false, nil
	}
	s.conn = conn
	s.setStateLocked(StateOpen)
	s.mu.Unlock()
	logging.Info("LogStream", "Connected to %s", s.cfg.URL)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			superseded := s.gen != gen
			if !superseded && s.conn == conn {
				s.conn = nil
			}
			s.mu.Unlock()
			_ = conn.Close()

			switch {
			case superseded:
				return true, nil
			case ctx.Err() != nil:
				s.finish(gen)
				return true, nil
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				return true, errors.New("stream closed by server")
			default:
				return true, err
			}
		}
		s.appendFrame(gen, string(data))
	}
}

// appendFrame stores one frame as one line, unmodified.
func (s *Session) appendFrame(gen uint64, frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.ring.append(frame)
	s.notifyLocked()
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.setStateLocked(StateClosed)
}

func (s *Session) setStateLocked(state State) {
	if s.state == state {
		return
	}
	logging.Debug("LogStream", "State %s -> %s", s.state, state)
	s.state = state
	s.notifyLocked()
}

func (s *Session) notifyLocked() {
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
