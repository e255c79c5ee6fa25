package device_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/XolifyDev/mizan-core/internal/device"
)

// setupIntegrationDB creates an in-memory SQLite database with the full
// fleet schema. This mirrors the production migration
// (20260301_000000_initial_schema.up.sql).
func setupIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE masjids (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE content (
			id TEXT PRIMARY KEY,
			masjid_id TEXT NOT NULL REFERENCES masjids(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '{}',
			active INTEGER NOT NULL DEFAULT 1,
			start_date TEXT,
			end_date TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			masjid_id TEXT NOT NULL REFERENCES masjids(id) ON DELETE CASCADE,
			name TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			platform TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			os_version TEXT NOT NULL DEFAULT '',
			app_version TEXT NOT NULL DEFAULT '',
			installed_app_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'online',
			network_status TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL DEFAULT '{}',
			assigned_content_id TEXT REFERENCES content(id) ON DELETE SET NULL,
			displayed_content_id TEXT,
			last_seen TEXT NOT NULL,
			registered_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX idx_devices_masjid ON devices(masjid_id);
		CREATE INDEX idx_devices_status_seen ON devices(status, last_seen);

		CREATE TABLE device_status_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			old_status TEXT NOT NULL,
			new_status TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT 'heartbeat',
			changed_at TEXT NOT NULL
		);

		INSERT INTO masjids (id, name, created_at, updated_at) VALUES
			('msj-alnoor', 'Masjid Al-Noor', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z');
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// TestIntegration_FullDeviceLifecycle exercises the complete path:
// SQLiteRepository → Registry → cache → heartbeats → reaper → delete.
// This is the flow that main.go relies on at startup.
func TestIntegration_FullDeviceLifecycle(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	// Wire up exactly as main.go does
	repo := device.NewSQLiteRepository(db)
	registry := device.NewRegistry(repo)
	history := device.NewSQLiteStatusHistoryRepository(db)

	// RefreshCache on empty database should succeed
	if err := registry.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() on empty DB: %v", err)
	}
	if registry.GetDeviceCount() != 0 {
		t.Fatalf("expected 0 devices after refresh, got %d", registry.GetDeviceCount())
	}

	// Register a lobby display
	dev := &device.Device{
		MasjidID:   "msj-alnoor",
		Name:       "Lobby Display",
		Location:   "Main entrance",
		Platform:   "android",
		AppVersion: "1.4.2",
	}
	if err := registry.Register(ctx, dev); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if dev.ID == "" {
		t.Fatal("expected ID to be generated")
	}
	if dev.Status != device.StatusOnline {
		t.Errorf("Status = %q, want online", dev.Status)
	}

	deviceID := dev.ID

	// Verify in-cache retrieval
	got, err := registry.GetDevice(ctx, deviceID)
	if err != nil {
		t.Fatalf("GetDevice() error: %v", err)
	}
	if got.Name != "Lobby Display" {
		t.Errorf("Name = %q, want %q", got.Name, "Lobby Display")
	}

	// Simulate what the heartbeat handler does: apply + record history
	change, err := registry.ApplyHeartbeat(ctx, deviceID, device.HeartbeatUpdate{
		Status:        device.StatusRestarting,
		NetworkStatus: "wifi",
	})
	if err != nil {
		t.Fatalf("ApplyHeartbeat() error: %v", err)
	}
	if recErr := history.RecordTransition(ctx, *change, device.StatusHistorySourceHeartbeat); recErr != nil {
		t.Fatalf("RecordTransition() error: %v", recErr)
	}

	got, _ = registry.GetDevice(ctx, deviceID)
	if got.Status != device.StatusRestarting {
		t.Errorf("Status = %q, want restarting", got.Status)
	}
	if time.Since(got.LastSeen) > 5*time.Second {
		t.Error("LastSeen seems too old after heartbeat")
	}

	entries, err := history.GetHistory(ctx, deviceID, 0)
	if err != nil {
		t.Fatalf("GetHistory() error: %v", err)
	}
	if len(entries) != 1 || entries[0].NewStatus != device.StatusRestarting {
		t.Errorf("history = %+v, want one restarting transition", entries)
	}

	// Verify persistence: a fresh registry from the same DB sees the device
	registry2 := device.NewRegistry(repo)
	if refreshErr := registry2.RefreshCache(ctx); refreshErr != nil {
		t.Fatalf("RefreshCache() on second registry: %v", refreshErr)
	}
	if registry2.GetDeviceCount() != 1 {
		t.Fatalf("expected 1 device after refresh, got %d", registry2.GetDeviceCount())
	}

	got2, err := registry2.GetDevice(ctx, deviceID)
	if err != nil {
		t.Fatalf("GetDevice() from second registry: %v", err)
	}
	if got2.Status != device.StatusRestarting {
		t.Errorf("persisted Status = %q, want restarting", got2.Status)
	}
	if !got2.RegisteredAt.Equal(dev.RegisteredAt) {
		t.Errorf("persisted RegisteredAt = %v, want %v", got2.RegisteredAt, dev.RegisteredAt)
	}

	// Delete device
	if delErr := registry.DeleteDevice(ctx, deviceID); delErr != nil {
		t.Fatalf("DeleteDevice() error: %v", delErr)
	}
	if registry.GetDeviceCount() != 0 {
		t.Errorf("expected 0 devices after delete, got %d", registry.GetDeviceCount())
	}

	// Verify deletion persisted
	_, err = registry.GetDevice(ctx, deviceID)
	if !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound after delete, got: %v", err)
	}
}

// TestIntegration_ReRegistrationIsUpsert verifies the device bootstrap
// path: an app that wipes its storage re-registers with the same ID and
// must not lose its registration date or duplicate its row.
func TestIntegration_ReRegistrationIsUpsert(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	repo := device.NewSQLiteRepository(db)
	registry := device.NewRegistry(repo)

	first := &device.Device{
		ID:       "dev-kiosk-1",
		MasjidID: "msj-alnoor",
		Name:     "Donation Kiosk",
		Platform: "ios",
	}
	if err := registry.Register(ctx, first); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}
	originalRegisteredAt := first.RegisteredAt

	second := &device.Device{
		ID:       "dev-kiosk-1",
		MasjidID: "msj-alnoor",
		Name:     "Donation Kiosk",
		Platform: "android", // hardware swapped
	}
	if err := registry.Register(ctx, second); err != nil {
		t.Fatalf("second Register() error: %v", err)
	}

	if !second.RegisteredAt.Equal(originalRegisteredAt) {
		t.Errorf("RegisteredAt = %v, want original %v", second.RegisteredAt, originalRegisteredAt)
	}
	if second.Platform != "android" {
		t.Errorf("Platform = %q, want android (second call wins)", second.Platform)
	}
	if registry.GetDeviceCount() != 1 {
		t.Errorf("device count = %d, want 1", registry.GetDeviceCount())
	}
}

// TestIntegration_ReaperFlow simulates the cron-triggered reap: stale
// online devices flip to offline, transitions land in the history log,
// and a second pass is a no-op.
func TestIntegration_ReaperFlow(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	repo := device.NewSQLiteRepository(db)
	registry := device.NewRegistry(repo)
	history := device.NewSQLiteStatusHistoryRepository(db)

	stale := &device.Device{ID: "dev-stale", MasjidID: "msj-alnoor", Name: "Stale Display"}
	fresh := &device.Device{ID: "dev-fresh", MasjidID: "msj-alnoor", Name: "Fresh Display"}
	for _, d := range []*device.Device{stale, fresh} {
		if err := registry.Register(ctx, d); err != nil {
			t.Fatalf("Register(%s) error: %v", d.ID, err)
		}
	}

	// Backdate the stale device's last_seen past the reap window.
	backdated := time.Now().UTC().Add(-10 * time.Minute).Format(time.RFC3339)
	if _, err := db.Exec("UPDATE devices SET last_seen = ? WHERE id = 'dev-stale'", backdated); err != nil {
		t.Fatalf("backdating device: %v", err)
	}

	cutoff := time.Now().UTC().Add(-2 * time.Minute)
	changes, err := registry.ReapOffline(ctx, cutoff)
	if err != nil {
		t.Fatalf("ReapOffline() error: %v", err)
	}
	if len(changes) != 1 || changes[0].DeviceID != "dev-stale" {
		t.Fatalf("changes = %+v, want only dev-stale", changes)
	}
	for _, c := range changes {
		if recErr := history.RecordTransition(ctx, c, device.StatusHistorySourceReaper); recErr != nil {
			t.Fatalf("RecordTransition() error: %v", recErr)
		}
	}

	got, _ := registry.GetDevice(ctx, "dev-stale")
	if got.Status != device.StatusOffline {
		t.Errorf("stale device Status = %q, want offline", got.Status)
	}
	got, _ = registry.GetDevice(ctx, "dev-fresh")
	if got.Status != device.StatusOnline {
		t.Errorf("fresh device Status = %q, want online", got.Status)
	}

	entries, _ := history.GetHistory(ctx, "dev-stale", 0)
	if len(entries) != 1 || entries[0].Source != device.StatusHistorySourceReaper {
		t.Errorf("history = %+v, want one reaper transition", entries)
	}

	// Second pass finds nothing
	changes, err = registry.ReapOffline(ctx, cutoff)
	if err != nil {
		t.Fatalf("second ReapOffline() error: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("second reap should be a no-op, got %+v", changes)
	}
}

// TestIntegration_ConfigPersistence verifies that display config written
// through the registry survives an application restart.
func TestIntegration_ConfigPersistence(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	repo := device.NewSQLiteRepository(db)

	// Session 1: register and configure
	r1 := device.NewRegistry(repo)
	dev := &device.Device{ID: "dev-cfg", MasjidID: "msj-alnoor", Name: "Configured Display"}
	if err := r1.Register(ctx, dev); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	duration := 25
	theme := "geometric"
	if err := r1.SetConfig(ctx, "dev-cfg", device.DisplayConfig{
		SlideDuration: &duration,
		Theme:         &theme,
	}); err != nil {
		t.Fatalf("SetConfig() error: %v", err)
	}

	// Session 2: fresh registry from same database (simulates restart)
	r2 := device.NewRegistry(repo)
	if err := r2.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() session 2: %v", err)
	}

	got, err := r2.GetDevice(ctx, "dev-cfg")
	if err != nil {
		t.Fatalf("GetDevice() session 2: %v", err)
	}
	if got.Config.SlideDuration == nil || *got.Config.SlideDuration != 25 {
		t.Errorf("persisted SlideDuration = %v, want 25", got.Config.SlideDuration)
	}
	if got.Config.Theme == nil || *got.Config.Theme != "geometric" {
		t.Errorf("persisted Theme = %v, want geometric", got.Config.Theme)
	}

	resolved := got.Config.Resolve(device.ConfigDefaults{SlideDuration: 15, Theme: "classic"})
	if resolved.SlideDuration != 25 || resolved.Theme != "geometric" {
		t.Errorf("resolved config = %+v, want stored values to win", resolved)
	}
}
