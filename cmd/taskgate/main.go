// taskgate - config-driven command gateway
//
// This is the main entry point for the taskgate daemon. taskgate maps
// configured shell commands onto HTTP endpoints so that operators,
// cron jobs, and monitoring systems can trigger them remotely:
//   - One GET route per configured action
//   - Optional static bearer-token authentication
//   - Optional execution history, MQTT events, and InfluxDB metrics
//
// The process communicates failure through its exit status so service
// supervisors can distinguish a broken configuration from a runtime
// fault.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/taskgate/taskgate/migrations"

	"github.com/taskgate/taskgate/internal/action"
	"github.com/taskgate/taskgate/internal/api"
	"github.com/taskgate/taskgate/internal/executor"
	"github.com/taskgate/taskgate/internal/history"
	"github.com/taskgate/taskgate/internal/infrastructure/config"
	"github.com/taskgate/taskgate/internal/infrastructure/database"
	"github.com/taskgate/taskgate/internal/infrastructure/influxdb"
	"github.com/taskgate/taskgate/internal/infrastructure/logging"
	"github.com/taskgate/taskgate/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path, overridable via TASKGATE_CONFIG or
// the -config flag.
const (
	defaultConfigPath = "/etc/taskgate.yaml"
	configEnvVar      = "TASKGATE_CONFIG"
)

// Exit statuses. Supervisors key restart policy off these: a config
// problem will not heal by restarting, a runtime fault might.
const (
	exitOK       = 0 // clean shutdown
	exitRuntime  = 1 // runtime failure (bind, broker, database)
	exitConfig   = 2 // configuration unreadable or invalid
	exitNotReady = 3 // actions absent or empty; nothing to serve
)

// errConfig marks failures caused by the configuration file rather
// than the runtime environment.
var errConfig = errors.New("configuration error")

func main() {
	configFlag := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("taskgate %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run() failure to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrActionsNotConfigured),
		errors.Is(err, config.ErrActionsEmpty):
		return exitNotReady
	case errors.Is(err, errConfig):
		return exitConfig
	default:
		return exitRuntime
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configFlag: -config flag value, "" when not given
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configFlag string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting taskgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := resolveConfigPath(configFlag)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%w: loading %s: %w", errConfig, configPath, err)
	}
	log.Info("configuration loaded", "path", configPath, "actions", len(cfg.Actions))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Build the route table. Collisions between actions, or with the
	// gateway's own endpoints, reject the whole configuration.
	table, err := action.BuildTable(cfg.Actions, api.ReservedPaths())
	if err != nil {
		return fmt.Errorf("%w: building routes: %w", errConfig, err)
	}
	for _, route := range table.Routes() {
		log.Debug("route registered", "path", route.Path, "action", route.Name)
	}

	if cfg.AuthEnabled && len(cfg.Tokens) == 0 {
		log.Warn("auth enabled with an empty token table; every action request will be rejected")
	}

	shell := executor.NewShell()
	shell.SetLogger(log)

	deps := api.Deps{
		Config:  cfg,
		Logger:  log,
		Table:   table,
		Shell:   shell,
		Version: version,
	}

	// Execution history store (optional)
	if cfg.History.Enabled {
		db, err := database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("history store ready", "path", cfg.History.Path)

		deps.History = history.NewSQLiteRepository(db.DB)
		deps.DB = db
	} else {
		log.Info("history store disabled")
	}

	// Execution event publishing (optional)
	if cfg.Events.Enabled {
		events, err := mqtt.Connect(cfg.Events)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := events.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		events.SetLogger(log)
		events.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		events.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Events.Broker.Host, cfg.Events.Broker.Port),
			"client_id", cfg.Events.Broker.ClientID,
		)
		deps.Events = events
	} else {
		log.Info("event publishing disabled")
	}

	// Metrics backend (optional)
	if cfg.Metrics.Enabled {
		metrics, err := influxdb.Connect(cfg.Metrics)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := metrics.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		metrics.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.Metrics.URL,
			"org", cfg.Metrics.Org,
			"bucket", cfg.Metrics.Bucket,
		)
		deps.Metrics = metrics
	} else {
		log.Info("metrics backend disabled")
	}

	// Start the gateway
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing gateway", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, deps); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Gateway (drains in-flight requests)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. History database (if enabled)

	log.Info("taskgate stopped")
	return nil
}

// resolveConfigPath returns the configuration file path. The -config
// flag wins over TASKGATE_CONFIG, which wins over the default.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the configured infrastructure connections.
// Optional components that are disabled are skipped.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - deps: Gateway dependency set; nil members are skipped
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, deps api.Deps) error {
	if deps.DB != nil {
		if err := deps.DB.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if deps.Events != nil {
		if err := deps.Events.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if deps.Metrics != nil {
		if err := deps.Metrics.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
