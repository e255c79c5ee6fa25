package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/XolifyDev/mizan-core/internal/device"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/mqtt"
)

// mqttHeartbeat is the JSON payload devices publish to their status
// topic. A broker LWT publishes the same shape with status "offline".
type mqttHeartbeat struct {
	Status             string  `json:"status"`
	NetworkStatus      string  `json:"network_status,omitempty"`
	DisplayedContentID *string `json:"displayed_content_id,omitempty"`
}

// subscribeHeartbeats subscribes to device status topics and applies
// the same heartbeat semantics as the HTTP status endpoint.
//
// Topic scheme: mizan/{masjid_id}/device/{device_id}/status. Fleets
// behind NAT report over MQTT instead of HTTP; LWT messages mark
// unexpected disconnects immediately rather than waiting for the reaper.
func (s *Server) subscribeHeartbeats() error {
	if s.mqtt == nil {
		return nil // MQTT not configured; HTTP heartbeats only
	}

	topic := (mqtt.Topics{}).AllDeviceStatuses()
	s.logger.Info("subscribing to device heartbeats", "topic", topic)

	return s.mqtt.Subscribe(topic, 1, func(t string, payload []byte) error {
		deviceID, ok := deviceIDFromStatusTopic(t)
		if !ok {
			s.logger.Warn("heartbeat on malformed topic", "topic", t)
			return nil
		}

		var hb mqttHeartbeat
		if err := json.Unmarshal(payload, &hb); err != nil {
			s.logger.Warn("failed to parse heartbeat payload", "topic", t, "error", err)
			return nil
		}

		ctx := context.Background()
		change, err := s.registry.ApplyHeartbeat(ctx, deviceID, device.HeartbeatUpdate{
			Status:             device.Status(hb.Status),
			NetworkStatus:      hb.NetworkStatus,
			DisplayedContentID: hb.DisplayedContentID,
		})
		if err != nil {
			// Unknown devices and invalid statuses are the device's
			// problem; it re-registers or corrects on its next beat.
			s.logger.Debug("mqtt heartbeat rejected", "device_id", deviceID, "error", err)
			return nil
		}

		s.recordStatusChange(ctx, change, device.StatusHistorySourceMQTT)

		if s.tsdb != nil && change != nil {
			s.tsdb.WriteHeartbeat(change.MasjidID, change.DeviceID)
			if change.OldStatus != change.NewStatus {
				s.tsdb.WriteDeviceStatus(change.MasjidID, change.DeviceID, string(change.NewStatus))
			}
		}

		return nil
	})
}

// publishConfig pushes a resolved config to the device's config topic so
// a connected display applies it without polling. No-op without MQTT.
func (s *Server) publishConfig(masjidID, deviceID string, cfg device.ResolvedConfig) {
	if s.mqtt == nil {
		return
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		s.logger.Error("failed to marshal config for publish", "device_id", deviceID, "error", err)
		return
	}

	topic := (mqtt.Topics{}).DeviceConfig(masjidID, deviceID)
	if err := s.mqtt.Publish(topic, payload, 1, true); err != nil {
		s.logger.Warn("config publish failed", "topic", topic, "error", err)
	}
}

// deviceIDFromStatusTopic extracts the device ID from a status topic.
// Expected shape: mizan/{masjid_id}/device/{device_id}/status.
func deviceIDFromStatusTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != mqtt.TopicPrefix || parts[2] != "device" || parts[4] != "status" {
		return "", false
	}
	if parts[3] == "" {
		return "", false
	}
	return parts[3], true
}
