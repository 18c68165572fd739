package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/taskgate/taskgate/internal/action"
	"github.com/taskgate/taskgate/internal/auth"
	"github.com/taskgate/taskgate/internal/executor"
	"github.com/taskgate/taskgate/internal/history"
	"github.com/taskgate/taskgate/internal/infrastructure/config"
	"github.com/taskgate/taskgate/internal/infrastructure/database"
	"github.com/taskgate/taskgate/internal/infrastructure/influxdb"
	"github.com/taskgate/taskgate/internal/infrastructure/logging"
	"github.com/taskgate/taskgate/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HTTP server timeouts. Read and write deadlines stay unset: a response
// is not written until its command finishes, however long that takes.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// ReservedPaths returns the paths the gateway claims for its own
// endpoints. Pass the result to action.BuildTable so no action route can
// shadow them.
func ReservedPaths() []string {
	return []string{"/healthz", "/metrics", "/history", "/events/stream"}
}

// Deps holds the dependencies required by the API server.
//
// Config, Logger, Table and Shell are required. The rest are optional:
// a nil History leaves /history unregistered, a nil Events or Metrics
// skips the corresponding telemetry, a nil DB omits pool statistics
// from /metrics.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	Table   *action.Table
	Shell   *executor.Shell
	History history.Repository
	DB      *database.DB
	Events  *mqtt.Client
	Metrics *influxdb.Client
	Version string
}

// Server is the HTTP gateway.
//
// It manages the HTTP listener, the action routes, middleware, and the
// WebSocket hub. The server is created with New() and started with
// Start(); nothing is bound to the network until Start() is called.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	table    *action.Table
	shell    *executor.Shell
	history  history.Repository
	db       *database.DB
	events   *mqtt.Client
	metrics  *influxdb.Client
	version  string
	verifier *auth.Verifier

	server    *http.Server
	hub       *Hub
	historyCh chan *history.Execution
	cancel    context.CancelFunc
	addr      atomic.Value
	startTime time.Time

	execTotal  atomic.Uint64
	execFailed atomic.Uint64
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, route table, executor)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Table == nil {
		return nil, fmt.Errorf("route table is required")
	}
	if deps.Shell == nil {
		return nil, fmt.Errorf("executor is required")
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		table:     deps.Table,
		shell:     deps.Shell,
		history:   deps.History,
		db:        deps.DB,
		events:    deps.Events,
		metrics:   deps.Metrics,
		version:   deps.Version,
		verifier:  auth.NewVerifier(deps.Config.Tokens),
		hub:       NewHub(deps.Logger),
		startTime: time.Now(),
	}

	if deps.History != nil {
		s.historyCh = make(chan *history.Execution, historyChanSize)
	}

	return s, nil
}

// Start binds the listener and begins serving HTTP connections.
//
// The listener is created synchronously so a bind failure (port already
// in use, privileged port) surfaces as a returned error rather than a
// log line from a goroutine. Request serving then proceeds in the
// background; the server is stopped with Close().
//
// Parameters:
//   - ctx: Context for cancelling background goroutines
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	if s.historyCh != nil {
		go s.drainHistory(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.cfg.ListenAddr(), err)
	}
	s.addr.Store(ln.Addr().String())

	s.logger.Info("gateway listening",
		"address", ln.Addr().String(),
		"actions", s.table.Len(),
		"auth_enabled", s.cfg.AuthEnabled,
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start().
// When the configured port is 0 this is the kernel-assigned address.
func (s *Server) Addr() string {
	addr, _ := s.addr.Load().(string)
	return addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop background goroutines (hub, history drain)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("gateway shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down gateway: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("gateway not started")
	}

	return nil
}
