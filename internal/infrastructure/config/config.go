package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the validated runtime configuration for taskgate.
// It is built once at startup from a YAML document plus environment
// variable overrides; the process never mutates it afterwards.
type Config struct {
	// Port is the TCP port the gateway listens on. Required, 1-65535.
	Port int

	// Actions is the ordered list of configured actions. Validation
	// guarantees at least one entry with non-empty name and cmd.
	Actions []Action

	// AuthEnabled guards every action route behind bearer-token
	// authentication when true.
	AuthEnabled bool

	// Tokens maps bearer token -> identity. Non-nil whenever
	// AuthEnabled is true.
	Tokens map[string]string

	Logging LoggingConfig
	History HistoryConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

// Action is one operator-defined command exposed as an HTTP route.
type Action struct {
	Name string
	Cmd  string
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HistoryConfig contains execution history store settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// EventsConfig contains MQTT execution event publishing settings.
type EventsConfig struct {
	Enabled   bool                  `yaml:"enabled"`
	Broker    EventsBrokerConfig    `yaml:"broker"`
	Auth      EventsAuthConfig      `yaml:"auth"`
	QoS       int                   `yaml:"qos"`
	Reconnect EventsReconnectConfig `yaml:"reconnect"`
}

// EventsBrokerConfig contains MQTT broker connection details.
type EventsBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// EventsAuthConfig contains MQTT authentication credentials.
type EventsAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// EventsReconnectConfig contains MQTT reconnection settings in seconds.
type EventsReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MetricsConfig contains InfluxDB execution metrics settings.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// fileConfig mirrors the YAML document before strict validation.
//
// actions and tokens are decoded loosely so that shape problems
// surface as structural validation errors with useful messages rather
// than opaque decode failures, and so that an absent or null actions
// key stays distinguishable from a present-but-empty one.
type fileConfig struct {
	Port        int           `yaml:"port"`
	Actions     any           `yaml:"actions"`
	AuthEnabled bool          `yaml:"auth_enabled"`
	Tokens      any           `yaml:"tokens"`
	Logging     LoggingConfig `yaml:"logging"`
	History     HistoryConfig `yaml:"history"`
	Events      EventsConfig  `yaml:"events"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TASKGATE_SECTION_KEY
// For example: TASKGATE_PORT, TASKGATE_HISTORY_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails.
//     Failures carry one of the package sentinels (ErrParse, ErrInvalid,
//     ErrActionsNotConfigured, ErrActionsEmpty) so callers can map them
//     to distinct exit statuses.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parse(data, true)
}

// Parse builds a validated Config from raw YAML bytes. It is a pure
// function: no filesystem or environment access.
func Parse(data []byte) (*Config, error) {
	return parse(data, false)
}

func parse(data []byte, envOverrides bool) (*Config, error) {
	raw := defaultFileConfig()

	if err := yaml.Unmarshal(data, &raw); err != nil {
		// yaml.v3 reports type mismatches on well-formed documents
		// separately from syntax errors; keep the two classes apart.
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(typeErr.Errors, "; "))
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	cfg := &Config{
		Port:        raw.Port,
		AuthEnabled: raw.AuthEnabled,
		Logging:     raw.Logging,
		History:     raw.History,
		Events:      raw.Events,
		Metrics:     raw.Metrics,
	}

	var err error
	if cfg.Actions, err = buildActions(raw.Actions); err != nil {
		return nil, err
	}
	if cfg.Tokens, err = buildTokens(raw.Tokens, raw.AuthEnabled); err != nil {
		return nil, err
	}

	if envOverrides {
		applyEnvOverrides(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultFileConfig returns the document defaults. Port is deliberately
// left zero: it is a required field and validation rejects its absence.
func defaultFileConfig() fileConfig {
	return fileConfig{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		History: HistoryConfig{
			Enabled:     false,
			Path:        "./data/taskgate.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Events: EventsConfig{
			Enabled: false,
			Broker: EventsBrokerConfig{
				Port:     1883,
				ClientID: "taskgate",
			},
			QoS: 1,
			Reconnect: EventsReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// buildActions converts the loosely decoded actions value into typed
// entries. The whole list is rejected if any single entry is malformed.
func buildActions(v any) ([]Action, error) {
	if v == nil {
		return nil, ErrActionsNotConfigured
	}

	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: actions must be a sequence of name/cmd mappings", ErrInvalid)
	}
	if len(list) == 0 {
		return nil, ErrActionsEmpty
	}

	actions := make([]Action, 0, len(list))
	var errs []string
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("actions[%d] must be a mapping with name and cmd", i))
			continue
		}

		name, nameOK := m["name"].(string)
		cmd, cmdOK := m["cmd"].(string)
		if !nameOK || name == "" {
			errs = append(errs, fmt.Sprintf("actions[%d].name must be a non-empty string", i))
		}
		if !cmdOK || cmd == "" {
			errs = append(errs, fmt.Sprintf("actions[%d].cmd must be a non-empty string", i))
		}
		actions = append(actions, Action{Name: name, Cmd: cmd})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return actions, nil
}

// buildTokens converts the loosely decoded tokens value into the
// token -> identity table. A nil table is acceptable only while
// authentication is disabled.
func buildTokens(v any, authEnabled bool) (map[string]string, error) {
	if v == nil {
		if authEnabled {
			return nil, fmt.Errorf("%w: tokens are required when auth_enabled is true", ErrInvalid)
		}
		return nil, nil
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: tokens must be a mapping of token to identity", ErrInvalid)
	}

	tokens := make(map[string]string, len(m))
	var errs []string
	for token, identity := range m {
		if token == "" {
			errs = append(errs, "tokens contains an empty token")
			continue
		}
		s, ok := identity.(string)
		if !ok || s == "" {
			errs = append(errs, fmt.Sprintf("tokens[%q] must map to a non-empty identity", token))
			continue
		}
		tokens[token] = s
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return tokens, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// TASKGATE_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TASKGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}

	if v := os.Getenv("TASKGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("TASKGATE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	if v := os.Getenv("TASKGATE_EVENTS_BROKER_HOST"); v != "" {
		cfg.Events.Broker.Host = v
	}
	if v := os.Getenv("TASKGATE_EVENTS_PASSWORD"); v != "" {
		cfg.Events.Auth.Password = v
	}

	if v := os.Getenv("TASKGATE_METRICS_TOKEN"); v != "" {
		cfg.Metrics.Token = v
	}
}

// Validate checks the typed configuration for errors.
//
// Validation is all-or-nothing: any problem rejects the whole
// configuration, it is never partially accepted.
//
// Returns:
//   - error: Description of every validation failure wrapped in
//     ErrInvalid, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Port == 0 {
		errs = append(errs, "port is required")
	} else if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.History.Enabled {
		if c.History.Path == "" {
			errs = append(errs, "history.path is required when history is enabled")
		}
		if c.History.BusyTimeout < 0 {
			errs = append(errs, "history.busy_timeout must not be negative")
		}
	}

	if c.Events.Enabled {
		if c.Events.Broker.Host == "" {
			errs = append(errs, "events.broker.host is required when events are enabled")
		}
		if c.Events.Broker.Port < 1 || c.Events.Broker.Port > 65535 {
			errs = append(errs, "events.broker.port must be between 1 and 65535")
		}
		if c.Events.Broker.ClientID == "" {
			errs = append(errs, "events.broker.client_id is required when events are enabled")
		}
	}
	if c.Events.QoS < 0 || c.Events.QoS > 2 {
		errs = append(errs, "events.qos must be 0, 1, or 2")
	}

	if c.Metrics.Enabled {
		if c.Metrics.URL == "" {
			errs = append(errs, "metrics.url is required when metrics are enabled")
		}
		if c.Metrics.Token == "" {
			errs = append(errs, "metrics.token is required when metrics are enabled")
		}
		if c.Metrics.Org == "" {
			errs = append(errs, "metrics.org is required when metrics are enabled")
		}
		if c.Metrics.Bucket == "" {
			errs = append(errs, "metrics.bucket is required when metrics are enabled")
		}
		if c.Metrics.BatchSize < 1 {
			errs = append(errs, "metrics.batch_size must be at least 1")
		}
		if c.Metrics.FlushInterval < 1 {
			errs = append(errs, "metrics.flush_interval must be at least 1 second")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}

	return nil
}

// ListenAddr returns the address the gateway binds. The listen host is
// fixed: the gateway always serves on all interfaces.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// InitialReconnectDelay returns the initial MQTT reconnect delay as a Duration.
func (c EventsConfig) InitialReconnectDelay() time.Duration {
	return time.Duration(c.Reconnect.InitialDelay) * time.Second
}

// MaxReconnectDelay returns the maximum MQTT reconnect delay as a Duration.
func (c EventsConfig) MaxReconnectDelay() time.Duration {
	return time.Duration(c.Reconnect.MaxDelay) * time.Second
}

// FlushIntervalDuration returns the metrics flush interval as a Duration.
func (c MetricsConfig) FlushIntervalDuration() time.Duration {
	return time.Duration(c.FlushInterval) * time.Second
}
