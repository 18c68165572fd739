package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// loadFromString writes content to a temp file and loads it.
func loadFromString(t *testing.T, content string) (*Config, error) {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	return Load(configPath)
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
port: 8000
actions:
  - name: "Show Uptime"
    cmd: "uptime"
  - name: "List Files"
    cmd: "ls -la /tmp"
auth_enabled: true
tokens:
  "s3cret-token": "alice"
  "other-token": "bob"
`
	cfg, err := loadFromString(t, content)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want %d", cfg.Port, 8000)
	}
	if len(cfg.Actions) != 2 {
		t.Fatalf("len(Actions) = %d, want 2", len(cfg.Actions))
	}
	if cfg.Actions[0].Name != "Show Uptime" || cfg.Actions[0].Cmd != "uptime" {
		t.Errorf("Actions[0] = %+v, want {Show Uptime uptime}", cfg.Actions[0])
	}
	if !cfg.AuthEnabled {
		t.Error("AuthEnabled = false, want true")
	}
	if got := cfg.Tokens["s3cret-token"]; got != "alice" {
		t.Errorf("Tokens[s3cret-token] = %q, want %q", got, "alice")
	}
}

func TestLoad_MinimalConfigUsesDefaults(t *testing.T) {
	content := `
port: 9090
actions:
  - name: ping
    cmd: "echo pong"
`
	cfg, err := loadFromString(t, content)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AuthEnabled {
		t.Error("AuthEnabled = true, want false by default")
	}
	if cfg.Tokens != nil {
		t.Errorf("Tokens = %v, want nil when auth disabled", cfg.Tokens)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json defaults", cfg.Logging)
	}
	if cfg.History.Enabled || cfg.Events.Enabled || cfg.Metrics.Enabled {
		t.Error("optional components should default to disabled")
	}
	if cfg.Events.Broker.Port != 1883 {
		t.Errorf("Events.Broker.Port = %d, want 1883", cfg.Events.Broker.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := loadFromString(t, "port: [8000\nactions")
	if err == nil {
		t.Fatal("Load() expected error for malformed YAML, got nil")
	}
	if !errors.Is(err, ErrParse) {
		t.Errorf("Load() error = %v, want ErrParse", err)
	}
}

func TestLoad_WrongFieldType(t *testing.T) {
	content := `
port: "not-a-number"
actions:
  - name: ping
    cmd: "echo pong"
`
	_, err := loadFromString(t, content)
	if err == nil {
		t.Fatal("Load() expected error for non-integer port, got nil")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestLoad_ActionsAbsent(t *testing.T) {
	_, err := loadFromString(t, "port: 8000\n")
	if !errors.Is(err, ErrActionsNotConfigured) {
		t.Errorf("Load() error = %v, want ErrActionsNotConfigured", err)
	}
}

func TestLoad_ActionsNull(t *testing.T) {
	_, err := loadFromString(t, "port: 8000\nactions:\n")
	if !errors.Is(err, ErrActionsNotConfigured) {
		t.Errorf("Load() error = %v, want ErrActionsNotConfigured", err)
	}
}

func TestLoad_ActionsEmpty(t *testing.T) {
	_, err := loadFromString(t, "port: 8000\nactions: []\n")
	if !errors.Is(err, ErrActionsEmpty) {
		t.Errorf("Load() error = %v, want ErrActionsEmpty", err)
	}
	// The empty list must not be reported as unconfigured.
	if errors.Is(err, ErrActionsNotConfigured) {
		t.Error("empty actions reported as ErrActionsNotConfigured")
	}
}

func TestLoad_EmptyDocument(t *testing.T) {
	_, err := loadFromString(t, "")
	if !errors.Is(err, ErrActionsNotConfigured) {
		t.Errorf("Load() error = %v, want ErrActionsNotConfigured", err)
	}
}

func TestLoad_ActionShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "actions is a scalar",
			content: "port: 8000\nactions: \"uptime\"\n",
		},
		{
			name:    "actions is a mapping",
			content: "port: 8000\nactions:\n  name: ping\n",
		},
		{
			name:    "entry is a scalar",
			content: "port: 8000\nactions:\n  - \"uptime\"\n",
		},
		{
			name:    "entry missing cmd",
			content: "port: 8000\nactions:\n  - name: ping\n",
		},
		{
			name:    "entry missing name",
			content: "port: 8000\nactions:\n  - cmd: uptime\n",
		},
		{
			name:    "entry with numeric name",
			content: "port: 8000\nactions:\n  - name: 42\n    cmd: uptime\n",
		},
		{
			name:    "entry with empty cmd",
			content: "port: 8000\nactions:\n  - name: ping\n    cmd: \"\"\n",
		},
		{
			name: "one bad entry rejects the rest",
			content: `
port: 8000
actions:
  - name: good
    cmd: uptime
  - name: bad
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromString(t, tt.content)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_TokenErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "auth enabled without tokens",
			content: `
port: 8000
actions:
  - name: ping
    cmd: uptime
auth_enabled: true
`,
		},
		{
			name: "tokens is a sequence",
			content: `
port: 8000
actions:
  - name: ping
    cmd: uptime
auth_enabled: true
tokens:
  - "abc"
`,
		},
		{
			name: "token maps to a number",
			content: `
port: 8000
actions:
  - name: ping
    cmd: uptime
auth_enabled: true
tokens:
  "abc": 42
`,
		},
		{
			name: "token maps to empty identity",
			content: `
port: 8000
actions:
  - name: ping
    cmd: uptime
auth_enabled: true
tokens:
  "abc": ""
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromString(t, tt.content)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_TokensWithoutAuthAccepted(t *testing.T) {
	content := `
port: 8000
actions:
  - name: ping
    cmd: uptime
tokens:
  "abc": "alice"
`
	cfg, err := loadFromString(t, content)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AuthEnabled {
		t.Error("AuthEnabled = true, want false")
	}
	if cfg.Tokens["abc"] != "alice" {
		t.Errorf("Tokens[abc] = %q, want %q", cfg.Tokens["abc"], "alice")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKGATE_PORT", "9999")
	t.Setenv("TASKGATE_LOG_LEVEL", "debug")

	content := `
port: 8000
actions:
  - name: ping
    cmd: uptime
`
	cfg, err := loadFromString(t, content)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999 from TASKGATE_PORT", cfg.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestParse_IsPure(t *testing.T) {
	t.Setenv("TASKGATE_PORT", "9999")

	cfg, err := Parse([]byte("port: 8000\nactions:\n  - name: ping\n    cmd: uptime\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000; Parse must ignore the environment", cfg.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	validActions := []Action{{Name: "ping", Cmd: "echo pong"}}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Port:    8000,
				Actions: validActions,
			},
			wantErr: false,
		},
		{
			name: "missing port",
			config: &Config{
				Actions: validActions,
			},
			wantErr: true,
		},
		{
			name: "port too large",
			config: &Config{
				Port:    70000,
				Actions: validActions,
			},
			wantErr: true,
		},
		{
			name: "negative port",
			config: &Config{
				Port:    -1,
				Actions: validActions,
			},
			wantErr: true,
		},
		{
			name: "history enabled without path",
			config: &Config{
				Port:    8000,
				Actions: validActions,
				History: HistoryConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "events enabled without broker host",
			config: &Config{
				Port:    8000,
				Actions: validActions,
				Events: EventsConfig{
					Enabled: true,
					Broker:  EventsBrokerConfig{Port: 1883, ClientID: "taskgate"},
				},
			},
			wantErr: true,
		},
		{
			name: "events qos out of range",
			config: &Config{
				Port:    8000,
				Actions: validActions,
				Events:  EventsConfig{QoS: 3},
			},
			wantErr: true,
		},
		{
			name: "metrics enabled without bucket",
			config: &Config{
				Port:    8000,
				Actions: validActions,
				Metrics: MetricsConfig{
					Enabled:       true,
					URL:           "http://localhost:8086",
					Token:         "tok",
					Org:           "org",
					BatchSize:     100,
					FlushInterval: 10,
				},
			},
			wantErr: true,
		},
		{
			name: "metrics fully configured",
			config: &Config{
				Port:    8000,
				Actions: validActions,
				Metrics: MetricsConfig{
					Enabled:       true,
					URL:           "http://localhost:8086",
					Token:         "tok",
					Org:           "org",
					Bucket:        "taskgate",
					BatchSize:     100,
					FlushInterval: 10,
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestConfig_ListenAddr(t *testing.T) {
	cfg := &Config{Port: 8000}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8000" {
		t.Errorf("ListenAddr() = %q, want %q", got, "0.0.0.0:8000")
	}
}
