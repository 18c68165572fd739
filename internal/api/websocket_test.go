package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsURL rewrites an httptest server URL for the events stream.
func wsURL(ts string) string {
	return "ws" + strings.TrimPrefix(ts, "http") + "/events/stream"
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub(testLogger())

	client := &WSClient{hub: h, send: make(chan []byte, 1)}
	h.Register(client)
	if got := h.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1", got)
	}

	h.Unregister(client)
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("ClientCount() = %d, want 0", got)
	}

	// A second unregister must not close the channel twice.
	h.Unregister(client)
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(testLogger())

	a := &WSClient{hub: h, send: make(chan []byte, 4)}
	b := &WSClient{hub: h, send: make(chan []byte, 4)}
	h.Register(a)
	h.Register(b)

	event := ExecutionEvent{Action: "say hello", Path: "/say_hello", ExitCode: 0}
	h.Broadcast(executionEventType, event)

	for name, client := range map[string]*WSClient{"a": a, "b": b} {
		select {
		case data := <-client.send:
			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("client %s: unmarshal: %v", name, err)
			}
			if msg.Type != WSTypeEvent {
				t.Errorf("client %s: Type = %q, want %q", name, msg.Type, WSTypeEvent)
			}
			if msg.EventType != executionEventType {
				t.Errorf("client %s: EventType = %q, want %q", name, msg.EventType, executionEventType)
			}
			if msg.Timestamp == "" {
				t.Errorf("client %s: Timestamp empty", name)
			}
		default:
			t.Fatalf("client %s received nothing", name)
		}
	}
}

func TestHub_BroadcastSkipsFullBuffers(t *testing.T) {
	h := NewHub(testLogger())

	client := &WSClient{hub: h, send: make(chan []byte, 1)}
	client.send <- []byte("stale")
	h.Register(client)

	// Must not block on the full buffer.
	h.Broadcast(executionEventType, ExecutionEvent{Action: "x"})

	if got := string(<-client.send); got != "stale" {
		t.Errorf("buffered message = %q, want %q", got, "stale")
	}
	select {
	case data := <-client.send:
		t.Errorf("unexpected extra message %q", data)
	default:
	}
}

func TestHub_RunClosesClients(t *testing.T) {
	h := NewHub(testLogger())
	client := &WSClient{hub: h, send: make(chan []byte, 1)}
	h.Register(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount() after Run = %d, want 0", got)
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel still open after shutdown")
	}
}

func TestEventsStream_ReceivesExecutionEvents(t *testing.T) {
	s := newTestServer(t, testConfig())
	ts := newTestHTTP(t, s)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return s.hub.ClientCount() == 1 }, "client never registered")

	resp, err := http.Get(ts.URL + "/broken")
	if err != nil {
		t.Fatalf("GET /broken: %v", err)
	}
	resp.Body.Close()

	//nolint:errcheck // Deadline keeps the test bounded either way
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != WSTypeEvent || msg.EventType != executionEventType {
		t.Fatalf("message envelope = %q/%q, want %q/%q", msg.Type, msg.EventType, WSTypeEvent, executionEventType)
	}

	payload, ok := msg.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T, want object", msg.Payload)
	}
	if payload["action"] != "broken" {
		t.Errorf("action = %v, want %q", payload["action"], "broken")
	}
	if payload["path"] != "/broken" {
		t.Errorf("path = %v, want %q", payload["path"], "/broken")
	}
	if payload["exit_code"] != float64(3) {
		t.Errorf("exit_code = %v, want 3", payload["exit_code"])
	}
	if _, present := payload["output"]; present {
		t.Error("event carries command output; it must stay metadata-only")
	}
}

func TestEventsStream_AuthRequired(t *testing.T) {
	s := newTestServer(t, authedConfig())
	ts := newTestHTTP(t, s)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	if err == nil {
		t.Fatal("Dial() without credentials succeeded, want handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake response = %+v, want status %d", resp, http.StatusUnauthorized)
	}

	header := http.Header{"Authorization": []string{"Bearer s3cret"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), header)
	if err != nil {
		t.Fatalf("Dial() with token error = %v", err)
	}
	conn.Close()
}
