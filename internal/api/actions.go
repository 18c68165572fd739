package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/taskgate/taskgate/internal/action"
	"github.com/taskgate/taskgate/internal/executor"
	"github.com/taskgate/taskgate/internal/history"
	"github.com/taskgate/taskgate/internal/infrastructure/mqtt"
)

// historyChanSize is the buffer for pending history records. Writes
// beyond the buffer are dropped with a warning rather than slowing a
// response down.
const historyChanSize = 256

// executionEventType is the hub event type for execution broadcasts.
const executionEventType = "execution"

// ExecutionResponse is the body returned for every completed execution,
// successful or not. Failure is reported inside the payload; the HTTP
// status stays 200 either way.
type ExecutionResponse struct {
	Output string `json:"output"`
}

// ExecutionEvent is the telemetry record published after each completed
// execution, shared by the WebSocket stream and the MQTT topic. It
// carries metadata only, never command output.
type ExecutionEvent struct {
	Action     string `json:"action"`
	Path       string `json:"path"`
	Identity   string `json:"identity,omitempty"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	RequestID  string `json:"request_id,omitempty"`
	Timestamp  string `json:"ts"`
}

// actionHandler returns the handler for a single action route.
//
// The route is passed by value so each handler closes over its own
// copy; every endpoint stays pinned to the entry it was registered
// with.
func (s *Server) actionHandler(route action.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Detach from the request context: a client disconnect must not
		// kill a command mid-flight. Context values (request ID,
		// identity) remain readable.
		result, err := s.shell.Run(context.WithoutCancel(r.Context()), route.Command)
		if err != nil {
			s.logger.Error("command failed to start",
				"action", route.Name,
				"error", err,
				"request_id", requestIDFrom(r.Context()),
			)
			s.execTotal.Add(1)
			s.execFailed.Add(1)
			writeInternalError(w, "failed to execute command")
			return
		}

		s.execTotal.Add(1)
		if result.Failed {
			s.execFailed.Add(1)
		}

		s.afterExecution(r, route, result)

		writeJSON(w, http.StatusOK, ExecutionResponse{Output: result.Output})
	}
}

// afterExecution fans a completed execution out to the history store,
// the WebSocket hub, the metrics backend and the broker. Recording is
// best-effort: the HTTP response never waits on telemetry and never
// fails because of it.
func (s *Server) afterExecution(r *http.Request, route action.Route, result executor.Result) {
	identity := identityFrom(r.Context())

	event := ExecutionEvent{
		Action:     route.Name,
		Path:       route.Path,
		Identity:   identity,
		ExitCode:   result.ExitCode,
		DurationMS: result.Duration.Milliseconds(),
		RequestID:  requestIDFrom(r.Context()),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	s.recordExecution(route, result, identity)

	s.hub.Broadcast(executionEventType, event)

	if s.metrics != nil {
		s.metrics.WriteExecution(route.Name, result.ExitCode, result.Duration)
	}

	if s.events != nil {
		// Publish can block for the publish timeout on a slow broker;
		// keep it off the request path.
		go s.publishExecutionEvent(event)
	}
}

// recordExecution enqueues a history record for the background writer.
// A full queue drops the record; command execution outranks bookkeeping.
func (s *Server) recordExecution(route action.Route, result executor.Result, identity string) {
	if s.historyCh == nil {
		return
	}

	exec := &history.Execution{
		Action:      route.Name,
		Path:        route.Path,
		Identity:    identity,
		ExitCode:    result.ExitCode,
		DurationMS:  result.Duration.Milliseconds(),
		OutputBytes: len(result.Output),
	}

	select {
	case s.historyCh <- exec:
	default:
		s.logger.Warn("history queue full, dropping record", "action", route.Name)
	}
}

// drainHistory writes queued history records serially. A single writer
// suits SQLite and keeps insert ordering close to execution ordering.
// On shutdown it flushes whatever is still queued before returning.
func (s *Server) drainHistory(ctx context.Context) {
	for {
		select {
		case exec := <-s.historyCh:
			s.writeHistory(exec)
		case <-ctx.Done():
			for {
				select {
				case exec := <-s.historyCh:
					s.writeHistory(exec)
				default:
					return
				}
			}
		}
	}
}

func (s *Server) writeHistory(exec *history.Execution) {
	// Fresh context: the record must land even while shutting down.
	if err := s.history.Record(context.Background(), exec); err != nil {
		s.logger.Error("history write failed", "action", exec.Action, "error", err)
	}
}

// publishExecutionEvent publishes one event to the broker. Runs in its
// own goroutine; failures are logged and forgotten.
func (s *Server) publishExecutionEvent(event ExecutionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal execution event", "error", err)
		return
	}

	topic := mqtt.Topics{}.Execution(event.Path)
	if err := s.events.PublishEvent(topic, payload); err != nil {
		s.logger.Warn("failed to publish execution event",
			"topic", topic,
			"error", err,
		)
	}
}
