package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	Executions    ExecutionMetrics `json:"executions"`
	Actions       int              `json:"actions"`
	WebSocket     WSMetrics        `json:"websocket"`
	History       HistoryMetrics   `json:"history"`
	Events        EventsMetrics    `json:"events"`
	Influx        InfluxMetrics    `json:"influxdb"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// ExecutionMetrics contains execution counters since process start.
type ExecutionMetrics struct {
	Total  uint64 `json:"total"`
	Failed uint64 `json:"failed"`
}

// WSMetrics contains event stream hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// HistoryMetrics reports whether the execution history store is active.
type HistoryMetrics struct {
	Enabled bool `json:"enabled"`
}

// EventsMetrics contains broker connection state.
type EventsMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// InfluxMetrics contains metrics backend connection state.
type InfluxMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns a runtime snapshot of the gateway.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Executions: ExecutionMetrics{
			Total:  s.execTotal.Load(),
			Failed: s.execFailed.Load(),
		},
		Actions: s.table.Len(),
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		History: HistoryMetrics{
			Enabled: s.history != nil,
		},
		Events: EventsMetrics{
			Enabled: s.events != nil,
		},
		Influx: InfluxMetrics{
			Enabled: s.metrics != nil,
		},
	}

	if s.events != nil {
		metrics.Events.Connected = s.events.IsConnected()
	}
	if s.metrics != nil {
		metrics.Influx.Connected = s.metrics.IsConnected()
	}

	// Database stats (if available)
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
