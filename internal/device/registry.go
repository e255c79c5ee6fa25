package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides fleet management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups,
// which matters for the slides endpoint every display polls.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // Cached devices by ID
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	// Clear and rebuild cache with deep copies
	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.DeepCopy()
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// Register upserts a device and refreshes the cache entry.
// The device struct is replaced with the stored row, so callers see the
// preserved registered_at on re-registration.
func (r *Registry) Register(ctx context.Context, d *Device) error {
	if err := r.repo.Register(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[d.ID] = d.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device registered", "id", d.ID, "masjid_id", d.MasjidID, "platform", d.Platform)
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	// Try cache first
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		// Return a deep copy to prevent external mutation of cache
		return cached.DeepCopy(), nil
	}

	// Fall back to repository (might be a new device not yet cached)
	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Cache for future lookups (store a deep copy)
	r.cacheMu.Lock()
	r.cache[id] = d.DeepCopy()
	r.cacheMu.Unlock()

	return d, nil
}

// ListDevices retrieves all devices.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	// Return from cache if populated
	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			// Deep copy to prevent external mutation of cache
			devices = append(devices, *d.DeepCopy())
		}
		return devices, nil
	}

	// Fall back to repository
	return r.repo.List(ctx)
}

// GetDevicesByMasjid retrieves all devices belonging to a masjid.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) GetDevicesByMasjid(ctx context.Context, masjidID string) ([]Device, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	// Filter from cache if populated
	if len(r.cache) > 0 {
		var devices []Device
		for _, d := range r.cache {
			if d.MasjidID == masjidID {
				// Deep copy to prevent external mutation of cache
				devices = append(devices, *d.DeepCopy())
			}
		}
		return devices, nil
	}

	return r.repo.ListByMasjid(ctx, masjidID)
}

// GetDevicesByStatus retrieves all devices with a specific status.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) GetDevicesByStatus(ctx context.Context, status Status) ([]Device, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	var devices []Device
	for _, d := range r.cache {
		if d.Status == status {
			// Deep copy to prevent external mutation of cache
			devices = append(devices, *d.DeepCopy())
		}
	}
	return devices, nil
}

// ApplyHeartbeat persists a status update and keeps the cache in sync.
// Returns the transition so callers can record history and broadcast.
func (r *Registry) ApplyHeartbeat(ctx context.Context, id string, hb HeartbeatUpdate) (*StatusChange, error) {
	change, err := r.repo.UpdateStatus(ctx, id, hb)
	if err != nil {
		return nil, err
	}

	// Update cache using deep copy to prevent race conditions
	now := time.Now().UTC()
	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		updated := cached.DeepCopy()
		updated.Status = hb.Status
		updated.NetworkStatus = hb.NetworkStatus
		updated.DisplayedContentID = copyStringPtr(hb.DisplayedContentID)
		updated.LastSeen = now
		updated.UpdatedAt = now
		r.cache[id] = updated
	}
	r.cacheMu.Unlock()

	r.logger.Debug("device heartbeat applied", "id", id, "status", hb.Status)
	return change, nil
}

// SetConfig replaces the stored display config for a device.
func (r *Registry) SetConfig(ctx context.Context, id string, cfg DisplayConfig) error {
	if err := r.repo.UpdateConfig(ctx, id, cfg); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		updated := cached.DeepCopy()
		updated.Config = cfg.DeepCopy()
		updated.UpdatedAt = time.Now().UTC()
		r.cache[id] = updated
	}
	r.cacheMu.Unlock()

	r.logger.Info("device config updated", "id", id)
	return nil
}

// AssignContent pins (or with nil unpins) content to a device.
func (r *Registry) AssignContent(ctx context.Context, id string, contentID *string) error {
	if err := r.repo.SetAssignedContent(ctx, id, contentID); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		updated := cached.DeepCopy()
		updated.AssignedContentID = copyStringPtr(contentID)
		updated.UpdatedAt = time.Now().UTC()
		r.cache[id] = updated
	}
	r.cacheMu.Unlock()

	r.logger.Info("device content assignment changed", "id", id)
	return nil
}

// ReapOffline flips stale online devices to offline and syncs the cache.
// Returns the transitions so callers can record history and broadcast.
func (r *Registry) ReapOffline(ctx context.Context, cutoff time.Time) ([]StatusChange, error) {
	changes, err := r.repo.ReapOffline(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		now := time.Now().UTC()
		r.cacheMu.Lock()
		for _, c := range changes {
			if cached, ok := r.cache[c.DeviceID]; ok {
				updated := cached.DeepCopy()
				updated.Status = StatusOffline
				updated.UpdatedAt = now
				r.cache[c.DeviceID] = updated
			}
		}
		r.cacheMu.Unlock()

		r.logger.Info("stale devices reaped", "count", len(changes))
	}

	return changes, nil
}

// DeleteDevice removes a device.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Update cache
	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("device deleted", "id", id)
	return nil
}

// GetDeviceCount returns the number of cached devices.
func (r *Registry) GetDeviceCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	TotalDevices int
	ByStatus     map[Status]int
	ByMasjid     map[string]int
	ByPlatform   map[string]int
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.cache),
		ByStatus:     make(map[Status]int),
		ByMasjid:     make(map[string]int),
		ByPlatform:   make(map[string]int),
	}

	for _, d := range r.cache {
		stats.ByStatus[d.Status]++
		stats.ByMasjid[d.MasjidID]++
		if d.Platform != "" {
			stats.ByPlatform[d.Platform]++
		}
	}

	return stats
}
