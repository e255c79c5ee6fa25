// Package influxdb stores fleet telemetry as time series: signage
// device status transitions, heartbeat counts, and donation totals for
// dashboards.
//
// It wraps influxdb-client-go v2 behind a small client. Writes go
// through the non-blocking batched API, so a burst of heartbeats never
// stalls request handling; batch failures surface through the SetOnError
// callback rather than return values. Batch size and flush interval come
// from the influxdb section of config.yaml.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceStatus("msj-1a2b3c4d", "dev-9f8e7d6c", "online")
//
// All methods are safe for concurrent use.
package influxdb
