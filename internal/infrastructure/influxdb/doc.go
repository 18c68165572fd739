// Package influxdb exports command execution metrics to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched writes and health monitoring.
//
// # Purpose
//
// Every command execution produces one point in the "executions"
// measurement, tagged by action, carrying duration, exit code and a
// success flag. This gives operators per-action latency and failure
// rates without the gateway storing any command output.
//
// # Usage
//
//	cfg := config.MetricsConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "taskgate",
//	    Bucket: "metrics",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteExecution("Show Uptime", 0, 23*time.Millisecond)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via
// a callback. Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size,
// flush_interval). A slow or absent metrics backend never delays an
// HTTP response.
package influxdb
