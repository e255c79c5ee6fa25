// Package device provides the MizanTV fleet registry for Mizan Core.
//
// The fleet registry is the central catalogue of every display and
// donation kiosk registered to a masjid. It manages the device
// lifecycle (registration, heartbeats, the offline reaper), display
// configuration, and provides query operations for the REST API and
// WebSocket relay.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│                           Fleet Registry                                 │
//	│                                                                          │
//	│  ┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐   │
//	│  │     Registry     │    │    Repository    │    │    Validation    │   │
//	│  │   (registry.go)  │───▶│  (repository.go) │    │ (validation.go)  │   │
//	│  │                  │    │                  │    │                  │   │
//	│  │ • Register/reap  │    │ • SQLite upsert  │    │ • Status checks  │   │
//	│  │ • In-memory cache│    │ • Reap UPDATE    │    │ • Config bounds  │   │
//	│  │ • Thread safety  │    │ • JSON config    │    │ • ID generation  │   │
//	│  └──────────────────┘    └──────────────────┘    └──────────────────┘   │
//	│           │                       │                                      │
//	└───────────│───────────────────────│──────────────────────────────────────┘
//	            │                       │
//	            ▼                       ▼
//	┌──────────────────────┐   ┌──────────────────────┐
//	│       REST API       │   │   SQLite Database    │
//	│  • /devices/register │   │   (devices table)    │
//	│  • /devices/{id}/... │   └──────────────────────┘
//	│  • WebSocket events  │
//	└──────────────────────┘
//
// # Key Types
//
//   - Device: A single MizanTV display or kiosk tied to one masjid
//   - Status: Fleet status (online, offline, restarting, stopped, error)
//   - DisplayConfig: Sparse per-device settings merged with server defaults
//   - StatusChange: A persisted transition, fed into history and broadcasts
//
// # Usage
//
//	// Create repository and registry
//	repo := device.NewSQLiteRepository(db)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	// Load devices into cache on startup
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	// Register a display (upsert; re-registration keeps registered_at)
//	dev := &device.Device{
//	    ID:       "dev-lobby-1",
//	    MasjidID: "msj-a1b2c3d4",
//	    Name:     "Lobby Display",
//	    Platform: "android",
//	}
//	if err := registry.Register(ctx, dev); err != nil {
//	    return err
//	}
//
//	// Apply a heartbeat
//	change, _ := registry.ApplyHeartbeat(ctx, dev.ID, device.HeartbeatUpdate{
//	    Status:        device.StatusOnline,
//	    NetworkStatus: "wifi",
//	})
//
//	// Reap displays that stopped sending heartbeats
//	changes, _ := registry.ReapOffline(ctx, time.Now().Add(-2*time.Minute))
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected by
// a read-write mutex. The Repository implementation must also be thread-safe.
package device
