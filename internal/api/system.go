package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	MQTT          MQTTMetrics    `json:"mqtt"`
	InfluxDB      InfluxMetrics  `json:"influxdb"`
	Fleet         FleetMetrics   `json:"fleet"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// InfluxMetrics contains telemetry writer statistics.
type InfluxMetrics struct {
	Connected bool `json:"connected"`
}

// FleetMetrics contains device registry statistics.
type FleetMetrics struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByMasjid   map[string]int `json:"by_masjid"`
	ByPlatform map[string]int `json:"by_platform"`
}

// handleMetrics returns process and fleet metrics for monitoring.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if s.hub != nil {
		metrics.WebSocket = WSMetrics{ConnectedClients: s.hub.ClientCount()}
	}
	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{Connected: s.mqtt.IsConnected()}
	}
	if s.tsdb != nil {
		metrics.InfluxDB = InfluxMetrics{Connected: s.tsdb.IsConnected()}
	}

	stats := s.registry.GetStats()
	metrics.Fleet = FleetMetrics{
		Total:      stats.TotalDevices,
		ByStatus:   make(map[string]int, len(stats.ByStatus)),
		ByMasjid:   stats.ByMasjid,
		ByPlatform: stats.ByPlatform,
	}
	for status, count := range stats.ByStatus {
		metrics.Fleet.ByStatus[string(status)] = count
	}

	writeJSON(w, http.StatusOK, metrics)
}
