// Package mqtt publishes gateway lifecycle and execution events to an
// MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Execution event publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The gateway is a pure publisher on the bus. Every command execution
// produces one event message, and retained online/offline status is
// kept on the system topic so consumers always know whether the
// gateway is up:
//
//	taskgate → MQTT Broker → monitoring / automation consumers
//
// There is no subscription surface: nothing on the bus can drive the
// gateway, only observe it.
//
// # Security Considerations
//
//   - TLS is recommended for production deployments (events.broker.tls)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Event payloads never include command output, only metadata
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff bounded by events.reconnect settings
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Events)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish an execution event
//	topic := mqtt.Topics{}.Execution("/show_uptime")
//	client.PublishEvent(topic, []byte(`{"exit_code":0}`))
package mqtt
