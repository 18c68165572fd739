package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/taskgate/taskgate/internal/infrastructure/config"
)

// authedConfig returns a configuration with auth enabled and one token.
func authedConfig() *config.Config {
	cfg := testConfig()
	cfg.AuthEnabled = true
	cfg.Tokens = map[string]string{"s3cret": "ops-team"}
	return cfg
}

// doGet fires a GET with an optional Authorization header.
func doGet(t *testing.T, url, authorization string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestBearerAuth_Required(t *testing.T) {
	ts := newTestHTTP(t, newTestServer(t, authedConfig()))

	tests := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"bare token", "s3cret"},
		{"unknown token", "Bearer nope"},
		{"empty token", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, ts.URL+"/say_hello", tt.authorization)

			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
			if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
			}

			var apiErr Error
			if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if apiErr.Code != ErrCodeUnauthorized {
				t.Errorf("error code = %q, want %q", apiErr.Code, ErrCodeUnauthorized)
			}
		})
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	ts := newTestHTTP(t, newTestServer(t, authedConfig()))

	resp := doGet(t, ts.URL+"/say_hello", "Bearer s3cret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body ExecutionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Output != "hello\n" {
		t.Errorf("output = %q, want %q", body.Output, "hello\n")
	}
}

func TestBearerAuth_SchemeCaseInsensitive(t *testing.T) {
	ts := newTestHTTP(t, newTestServer(t, authedConfig()))

	resp := doGet(t, ts.URL+"/say_hello", "bearer s3cret")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestBearerAuth_SystemEndpointsOpen(t *testing.T) {
	ts := newTestHTTP(t, newTestServer(t, authedConfig()))

	// Liveness and monitoring stay reachable without credentials even
	// when action routes are locked down.
	for _, path := range []string{"/healthz", "/metrics"} {
		resp := doGet(t, ts.URL+path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestBearerAuth_DisabledIgnoresHeader(t *testing.T) {
	ts := newTestHTTP(t, newTestServer(t, testConfig()))

	// With auth disabled, any Authorization header is simply ignored.
	resp := doGet(t, ts.URL+"/say_hello", "Bearer whatever")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestHTTP(t, newTestServer(t, testConfig()))

	resp := doGet(t, ts.URL+"/healthz", "")
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("X-Request-ID header missing from response")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	ts := newTestHTTP(t, newTestServer(t, testConfig()))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("X-Request-ID", "client-chosen-id")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "client-chosen-id" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-chosen-id")
	}
}

func TestGenerateRequestID(t *testing.T) {
	a := generateRequestID()
	b := generateRequestID()

	if len(a) != requestIDBytes*2 {
		t.Errorf("length = %d, want %d hex chars", len(a), requestIDBytes*2)
	}
	if a == b {
		t.Error("two generated IDs are identical")
	}
}
