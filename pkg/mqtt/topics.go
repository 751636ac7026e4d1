package mqtt

import (
	"fmt"
	"strings"
)

// Topic layout of the appliance
const (
	TopicPrefix = "solarium"

	// Control commands (input)
	TopicCommands = "solarium/command/+"

	// Raw climate sensor readings (input)
	TopicRawClimate = "solarium/raw/climate/+"

	// Virtual clock configuration (input, test mode only)
	TopicTimeConfig = "solarium/test/time_config"

	// Appliance state (output)
	TopicStatus   = "solarium/status"
	TopicSchedule = "solarium/schedule"
	TopicClimate  = "solarium/climate"

	AvailabilityTopic   = "solarium/availability"
	AvailabilityOnline  = "online"
	AvailabilityOffline = "offline"
)

// CommandTopic constructs the command topic for a target
// Pattern: solarium/command/{target}
func CommandTopic(target string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, target)
}

// DriverTopic constructs the topic a peripheral driver listens on
// Pattern: solarium/driver/{channel}
func DriverTopic(channel string) string {
	return fmt.Sprintf("%s/driver/%s", TopicPrefix, channel)
}

// RawClimateTopic constructs a raw climate topic for a sensor
// Pattern: solarium/raw/climate/{sensor}
func RawClimateTopic(sensor string) string {
	return fmt.Sprintf("%s/raw/climate/%s", TopicPrefix, sensor)
}

// LastSegment returns the final segment of a topic, e.g. the command target
func LastSegment(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
