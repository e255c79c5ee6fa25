// Package mqtt wraps the paho client for the optional signage heartbeat
// channel.
//
// MizanTV displays on unreliable masjid Wi-Fi publish heartbeats over
// MQTT instead of HTTP. The broker rides out brief outages and its Last
// Will marks a device offline when the connection drops entirely. Topics
// follow mizan/{masjid_id}/device/{device_id}/{channel} so broker ACLs
// can confine each installation to its own masjid subtree.
//
// The client auto-reconnects with exponential backoff, restores tracked
// subscriptions after a reconnect, and announces its own availability on
// mizan/system/status (retained, with an offline LWT).
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceStatuses(), 1,
//	    func(topic string, payload []byte) error {
//	        return ingest(topic, payload)
//	    })
//
// TLS and broker credentials come from the mqtt section of config.yaml;
// anonymous plaintext is for local development only.
package mqtt
