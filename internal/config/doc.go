// Package config provides configuration management for cubectl.
//
// Configuration is layered. Each layer is decoded on top of the previous
// one, so a file only needs the keys it changes:
//
//  1. Default configuration (compiled in)
//  2. User configuration (~/.config/cubectl/config.yaml)
//  3. Project configuration (./.cubectl/config.yaml)
//
// An explicit --config file replaces layers 2 and 3.
//
// # Configuration Structure
//
//	backend:
//	  baseURL: "http://localhost:8080/api"
//	  streamURL: "ws://localhost:8080/api/logs/stream"
//	  requestTimeout: 30s
//	  qps: 20
//	  burst: 40
//
//	logStream:
//	  bufferLines: 5000
//	  reconnect:
//	    enabled: false
//	    initialDelay: 500ms
//	    maxDelay: 30s
//	    factor: 2
//	    steps: 6
//
//	session:
//	  path: "~/.config/cubectl/session.yaml"
//
//	ui:
//	  refreshInterval: 10s
//
//	mcp:
//	  name: "cubectl"
//
//	devBackend:
//	  listen: "127.0.0.1:8080"
//	  seedWorkspaces: 2
//	  logInterval: 1s
//
// String values may reference environment variables as ${VAR} or
// ${VAR:-default}; they are expanded before parsing.
package config
