package app

import (
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/wait"

	"cubectl/internal/backend"
	"cubectl/internal/config"
	"cubectl/internal/logstream"
	"cubectl/internal/orchestrator"
	"cubectl/internal/session"
	"cubectl/internal/store"
	"cubectl/pkg/logging"
)

// Services holds everything the dashboard, the CLI commands and the MCP
// server share.
type Services struct {
	Config      config.CubectlConfig
	Backend     *backend.Client
	Store       *store.Store
	Coordinator *orchestrator.Coordinator
	Logs        *logstream.Session
	Selection   *session.Context
	Notices     *NoticeRelay
}

// InitializeServices builds the service graph from a loaded configuration.
func InitializeServices(cfg config.CubectlConfig) (*Services, error) {
	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.RequestTimeout,
		QPS:     cfg.Backend.QPS,
		Burst:   cfg.Backend.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	streamURL, err := cfg.Backend.EffectiveStreamURL()
	if err != nil {
		return nil, err
	}

	st := store.New()
	notices := &NoticeRelay{}

	return &Services{
		Config:      cfg,
		Backend:     client,
		Store:       st,
		Coordinator: orchestrator.NewCoordinator(client, st, notices),
		Logs:        logstream.NewSession(LogSessionConfig(cfg, streamURL)),
		Selection:   session.NewContext(openSelectionStore(cfg.Session.Path)),
		Notices:     notices,
	}, nil
}

// LogSessionConfig maps the logStream section onto a session config.
func LogSessionConfig(cfg config.CubectlConfig, streamURL string) logstream.Config {
	rc := cfg.LogStream.Reconnect
	return logstream.Config{
		URL:         streamURL,
		BufferLines: cfg.LogStream.BufferLines,
		Reconnect: logstream.ReconnectPolicy{
			Enabled: rc.Enabled,
			Backoff: wait.Backoff{
				Duration: rc.InitialDelay,
				Factor:   rc.Factor,
				Jitter:   0.1,
				Steps:    rc.Steps,
				Cap:      rc.MaxDelay,
			},
		},
	}
}

// openSelectionStore opens the selection file, falling back to memory when
// it cannot be read so a damaged file never blocks the dashboard.
func openSelectionStore(path string) session.Store {
	if path == "" {
		return session.NewMemoryStore()
	}
	fs, err := session.OpenFileStore(path)
	if err != nil {
		logging.Warn("Bootstrap", "Selection file %s unusable, starting with an empty selection: %v", path, err)
		return session.NewMemoryStore()
	}
	return fs
}

// Close releases the log session.
func (s *Services) Close() {
	if s.Logs != nil {
		s.Logs.Close()
	}
}

// NoticeRelay logs every notice and forwards it to the current sink.
type NoticeRelay struct {
	mu   sync.Mutex
	sink func(orchestrator.Notice)
}

// Notify implements orchestrator.Notifier.
func (r *NoticeRelay) Notify(n orchestrator.Notice) {
	if n.Level == orchestrator.NoticeError {
		logging.Error("Notice", n.Err, "%s %s: %s", n.Target, n.Action, n.Message)
	} else {
		logging.Info("Notice", "%s", n.Message)
	}

	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()
	if sink != nil {
		sink(n)
	}
}

// SetSink routes notices to fn as well; nil stops forwarding.
func (r *NoticeRelay) SetSink(fn func(orchestrator.Notice)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = fn
}
