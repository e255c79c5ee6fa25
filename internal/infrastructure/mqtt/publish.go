package mqtt

import "fmt"

// maxPayloadSize caps outbound payloads at 1 MiB, in line with common
// broker limits. Heartbeats and commands are a few hundred bytes.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker acknowledgment.
//
// Retained messages are for state topics (device status, system status)
// where a late subscriber should see the current value; commands and
// events should not be retained.
//
//	topic := mqtt.Topics{}.DeviceCommand("msj-1a2b3c4d", "dev-9f8e7d6c")
//	err := client.Publish(topic, []byte(`{"action":"reload"}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message at the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
