package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceStatus records a device status transition. The numeric
// online field lets dashboards compute uptime ratios directly.
func (c *Client) WriteDeviceStatus(masjidID, deviceID, status string) {
	online := 0
	if status == "online" {
		online = 1
	}

	c.WritePoint("device_status",
		map[string]string{
			"masjid_id": masjidID,
			"device_id": deviceID,
			"status":    status,
		},
		map[string]interface{}{"online": online},
	)
}

// WriteHeartbeat records one device heartbeat. The gap between
// consecutive points shows when a display dropped off the network.
func (c *Client) WriteHeartbeat(masjidID, deviceID string) {
	c.WritePoint("device_heartbeat",
		map[string]string{
			"masjid_id": masjidID,
			"device_id": deviceID,
		},
		map[string]interface{}{"count": 1},
	)
}

// WriteDonation records a donation amount, in minor currency units, for
// dashboard aggregates.
func (c *Client) WriteDonation(masjidID, category string, amountCents int64) {
	c.WritePoint("donations",
		map[string]string{
			"masjid_id": masjidID,
			"category":  category,
		},
		map[string]interface{}{"amount_cents": amountCents},
	)
}

// WritePoint writes a custom measurement stamped with the current time.
// Tags index the point and should stay low cardinality; fields carry the
// values.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime is WritePoint with an explicit timestamp, for data
// that arrives late. Points written while disconnected are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
