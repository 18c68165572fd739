// Package logging provides structured logging for taskgate.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the logging section of the config document:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting gateway", "port", 8000)
//	logger.Error("failed to bind", "error", err)
//
// # Security
//
// Never log bearer tokens, broker passwords, or command output that may
// contain secrets. Log identities and sizes instead of raw values.
package logging
