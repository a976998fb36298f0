package config

import "time"

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() CubectlConfig {
	return CubectlConfig{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080/api",
			RequestTimeout: 30 * time.Second,
			QPS:            20,
			Burst:          40,
		},
		LogStream: LogStreamConfig{
			BufferLines: 5000,
			Reconnect: ReconnectConfig{
				Enabled:      false,
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     30 * time.Second,
				Factor:       2,
				Steps:        6,
			},
		},
		UI: UIConfig{
			RefreshInterval: 10 * time.Second,
		},
		MCP: MCPConfig{
			Name: "cubectl",
		},
		DevBackend: DevBackendConfig{
			Listen:         "127.0.0.1:8080",
			SeedWorkspaces: 2,
			LogInterval:    time.Second,
		},
	}
}
