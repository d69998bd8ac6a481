package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "home"

// Topics builds Hearth topic names under a common prefix.
//
//	topics := mqtt.NewTopics("home")
//	topics.Device("fan")    // "home/fan"
//	topics.SystemStatus()   // "home/system/status"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for the given prefix. Leading and trailing
// slashes are trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Device returns the state topic for a device.
//
// Example: home/fan
func (t Topics) Device(name string) string {
	return fmt.Sprintf("%s/%s", t.prefix, name)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: home/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}

// DeviceFromTopic returns the last path segment of a topic, which names the
// device on inbound state messages.
func DeviceFromTopic(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
