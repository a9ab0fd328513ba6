// Package main runs the facade frame server.
//
// The server hosts one frame runtime per websocket connection on
// /facade/ws. Each runtime renders a repository basket as a navigable
// directory listing that follows the host page's address bar hash.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CONFIG_FILE: YAML or TOML file applied over the environment
//   - CLI flags (override both)
//
// Usage:
//
//	./server -port 8000 -api http://localhost:8080 -ref HEAD
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
