// Package api provides the HTTP REST API and WebSocket server for Mizan Core.
//
// It exposes the masjid tenant registry, MizanTV device fleet operations
// (registration, heartbeats, config, slide resolution), content, donation,
// event and kiosk product management, and a per-masjid WebSocket relay for
// dashboards and displays.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
