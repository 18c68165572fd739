// Package api implements the HTTP gateway: one GET route per configured
// action, plus system endpoints and a live execution event stream.
//
// This package provides:
//   - Action routes that run configured commands and return their output
//   - Static bearer-token authentication (when enabled)
//   - /healthz liveness and /metrics runtime snapshot endpoints
//   - /history listing recorded executions (when the store is enabled)
//   - /events/stream WebSocket broadcasting execution events
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The server wires the immutable route table to the shell executor.
// Requests execute synchronously: the response is written when the
// command completes, however long that takes. Telemetry (history rows,
// broker events, metrics points, hub broadcasts) fans out after the
// execution and never delays or fails a response.
//
// # Security
//
// Authentication is a static bearer-token table from the configuration
// file. /healthz and /metrics stay open for supervisors and monitoring;
// everything else requires a token when auth_enabled is true.
//
// # Graceful Degradation
//
// History, events and metrics are optional dependencies: when absent,
// their endpoints and side effects simply do not exist. Command
// execution never depends on telemetry.
package api
