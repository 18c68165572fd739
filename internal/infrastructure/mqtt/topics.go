package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the taskgate event hierarchy.
//
// All topics live under a single root: taskgate/{category}/...
// Consumers subscribe to the patterns below; the gateway only publishes.
const (
	// TopicPrefix is the base for all taskgate topics.
	TopicPrefix = "taskgate"

	// TopicPrefixSystem is the base for gateway lifecycle topics.
	TopicPrefixSystem = "taskgate/system"

	// TopicPrefixEvent is the base for execution event topics.
	TopicPrefixEvent = "taskgate/event"
)

// Topics provides builders for taskgate MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.Execution("/show_uptime")
//	// Returns: "taskgate/event/execution/show_uptime"
type Topics struct{}

// SystemStatus returns the gateway status topic.
//
// Online/offline messages are published here retained, including the
// Last Will and Testament for crash detection.
//
// Example: taskgate/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// Execution returns the topic for execution events of a single action.
//
// The route's leading slash is stripped so the route slug becomes the
// final topic segment.
//
// Example: taskgate/event/execution/show_uptime
func (Topics) Execution(route string) string {
	return fmt.Sprintf("%s/execution/%s", TopicPrefixEvent, strings.TrimPrefix(route, "/"))
}

// AllExecutions returns a pattern matching execution events for every
// action. Intended for consumers subscribing to the full event stream.
//
// Pattern: taskgate/event/execution/+
func (Topics) AllExecutions() string {
	return fmt.Sprintf("%s/execution/+", TopicPrefixEvent)
}
