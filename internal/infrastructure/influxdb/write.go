package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteExecution records a single command execution measurement.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Only execution metadata is recorded, never command output.
//
// Parameters:
//   - action: The action name as configured (e.g., "Show Uptime")
//   - exitCode: The shell exit status of the command
//   - duration: Wall-clock time the command took to run
//
// Example:
//
//	client.WriteExecution("Show Uptime", 0, 23*time.Millisecond)
func (c *Client) WriteExecution(action string, exitCode int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"executions",
		map[string]string{
			"action": action,
		},
		map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
			"exit_code":   int64(exitCode),
			"success":     exitCode == 0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
