package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CubectlConfig is the top-level configuration structure for cubectl.
type CubectlConfig struct {
	Backend    BackendConfig    `yaml:"backend"`
	LogStream  LogStreamConfig  `yaml:"logStream"`
	Session    SessionConfig    `yaml:"session"`
	UI         UIConfig         `yaml:"ui"`
	MCP        MCPConfig        `yaml:"mcp"`
	DevBackend DevBackendConfig `yaml:"devBackend"`
}

// BackendConfig points the client at the container-management backend.
type BackendConfig struct {
	BaseURL        string        `yaml:"baseURL"`
	StreamURL      string        `yaml:"streamURL,omitempty"` // derived from BaseURL when empty
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	QPS            float32       `yaml:"qps"`   // client-side pacing, 0 disables
	Burst          int           `yaml:"burst"` // token bucket size
}

// LogStreamConfig configures the live log session.
type LogStreamConfig struct {
	BufferLines int             `yaml:"bufferLines"`
	Reconnect   ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig is the opt-in reconnect policy of the log session.
type ReconnectConfig struct {
	Enabled      bool          `yaml:"enabled"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
	Factor       float64       `yaml:"factor"`
	Steps        int           `yaml:"steps"`
}

// SessionConfig locates the persisted navigation selection.
type SessionConfig struct {
	Path string `yaml:"path,omitempty"` // defaults to ~/.config/cubectl/session.yaml
}

// UIConfig holds dashboard settings.
type UIConfig struct {
	RefreshInterval time.Duration `yaml:"refreshInterval"` // 0 disables periodic refresh
}

// MCPConfig holds settings of the MCP stdio server.
type MCPConfig struct {
	Name string `yaml:"name"`
}

// DevBackendConfig holds settings of the in-memory development backend.
type DevBackendConfig struct {
	Listen         string        `yaml:"listen"`
	SeedWorkspaces int           `yaml:"seedWorkspaces"`
	LogInterval    time.Duration `yaml:"logInterval"`
}

// EffectiveStreamURL returns StreamURL, or the stream endpoint under
// BaseURL with the matching websocket scheme.
func (b BackendConfig) EffectiveStreamURL() (string, error) {
	if b.StreamURL != "" {
		return b.StreamURL, nil
	}
	u, err := url.Parse(b.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend.baseURL %q: %w", b.BaseURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/logs/stream"
	return u.String(), nil
}

// Validate checks settings that would otherwise fail much later.
func (c CubectlConfig) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.baseURL must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.StreamURL != "" {
		su, err := url.Parse(c.Backend.StreamURL)
		if err != nil || (su.Scheme != "ws" && su.Scheme != "wss") {
			return fmt.Errorf("backend.streamURL must be a ws(s) URL, got %q", c.Backend.StreamURL)
		}
	}
	if c.Backend.QPS < 0 || c.Backend.Burst < 0 {
		return fmt.Errorf("backend.qps and backend.burst must not be negative")
	}
	if c.LogStream.BufferLines <= 0 {
		return fmt.Errorf("logStream.bufferLines must be positive, got %d", c.LogStream.BufferLines)
	}
	if r := c.LogStream.Reconnect; r.Enabled && (r.InitialDelay <= 0 || r.Steps <= 0 || r.Factor < 1) {
		return fmt.Errorf("logStream.reconnect needs initialDelay > 0, steps > 0 and factor >= 1")
	}
	if c.UI.RefreshInterval < 0 {
		return fmt.Errorf("ui.refreshInterval must not be negative")
	}
	return nil
}
