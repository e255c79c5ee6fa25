package mqtt

import "fmt"

// Topic prefixes for the Mizan MQTT hierarchy.
//
// Device topics use the scheme: mizan/{masjid_id}/device/{device_id}/{channel}
// so a broker ACL can scope a MizanTV installation to its own masjid subtree.
const (
	// TopicPrefix is the base for all Mizan topics.
	TopicPrefix = "mizan"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "mizan/system"
)

// Topics provides builders for Mizan MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.DeviceStatus("msj-1a2b3c4d", "dev-9f8e7d6c")
//	// Returns: "mizan/msj-1a2b3c4d/device/dev-9f8e7d6c/status"
type Topics struct{}

// DeviceStatus returns the topic a device publishes heartbeats and
// status transitions on.
//
// Example: mizan/msj-1a2b3c4d/device/dev-9f8e7d6c/status
func (Topics) DeviceStatus(masjidID, deviceID string) string {
	return fmt.Sprintf("%s/%s/device/%s/status", TopicPrefix, masjidID, deviceID)
}

// DeviceConfig returns the topic Core publishes resolved display config
// changes on, so a connected device can apply them without polling.
//
// Example: mizan/msj-1a2b3c4d/device/dev-9f8e7d6c/config
func (Topics) DeviceConfig(masjidID, deviceID string) string {
	return fmt.Sprintf("%s/%s/device/%s/config", TopicPrefix, masjidID, deviceID)
}

// DeviceCommand returns the topic Core publishes commands on
// (reload, restart, identify).
//
// Example: mizan/msj-1a2b3c4d/device/dev-9f8e7d6c/command
func (Topics) DeviceCommand(masjidID, deviceID string) string {
	return fmt.Sprintf("%s/%s/device/%s/command", TopicPrefix, masjidID, deviceID)
}

// MasjidEvent returns the topic for masjid-scoped change events
// (content updated, slide set changed).
//
// Example: mizan/msj-1a2b3c4d/event/content_updated
func (Topics) MasjidEvent(masjidID, eventType string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefix, masjidID, eventType)
}

// SystemStatus returns the Core availability topic. Core publishes
// "online" here on connect and the broker publishes "offline" via LWT.
//
// Example: mizan/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceStatuses returns a pattern matching status publishes from
// every device across every masjid.
//
// Pattern: mizan/+/device/+/status
func (Topics) AllDeviceStatuses() string {
	return fmt.Sprintf("%s/+/device/+/status", TopicPrefix)
}

// MasjidDeviceStatuses returns a pattern matching status publishes from
// every device of one masjid.
//
// Pattern: mizan/msj-1a2b3c4d/device/+/status
func (Topics) MasjidDeviceStatuses(masjidID string) string {
	return fmt.Sprintf("%s/%s/device/+/status", TopicPrefix, masjidID)
}

// AllMasjidEvents returns a pattern matching every masjid-scoped event.
//
// Pattern: mizan/+/event/+
func (Topics) AllMasjidEvents() string {
	return fmt.Sprintf("%s/+/event/+", TopicPrefix)
}

// AllTopics returns a pattern matching all Mizan topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: mizan/#
func (Topics) AllTopics() string {
	return "mizan/#"
}
