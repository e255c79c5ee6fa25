package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/device"
)

// handleRegisterDevice upserts a device by its identifier.
//
// MizanTV installs call this on every app start, so an existing device
// keeps its registered_at, config and assigned content while the
// metadata it reports (platform, versions, masjid association) wins.
// The endpoint is unauthenticated: displays carry no credentials, only
// their masjid association.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var dev device.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.Register(r.Context(), &dev); err != nil {
		if errors.Is(err, device.ErrMasjidRequired) || errors.Is(err, device.ErrInvalidName) || errors.Is(err, device.ErrInvalidDevice) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("device registration failed", "device_id", dev.ID, "error", err)
		writeInternalError(w, "failed to register device")
		return
	}

	s.logger.Info("device registered",
		"device_id", dev.ID,
		"masjid_id", dev.MasjidID,
		"platform", dev.Platform,
	)

	if s.hub != nil {
		s.hub.Broadcast(dev.MasjidID, EventDeviceRegistered, &dev)
	}
	if s.tsdb != nil {
		s.tsdb.WriteDeviceStatus(dev.MasjidID, dev.ID, string(dev.Status))
	}

	writeJSON(w, http.StatusCreated, &dev)
}

// handleListDevices returns the caller's device fleet, with an optional
// status query filter. Owners see every masjid unless they scope with
// ?masjid_id=...
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	masjidID := effectiveMasjidID(r)

	var (
		devices []device.Device
		err     error
	)

	switch {
	case masjidID != "":
		devices, err = s.registry.GetDevicesByMasjid(ctx, masjidID)
	case r.URL.Query().Get("status") != "":
		devices, err = s.registry.GetDevicesByStatus(ctx, device.Status(r.URL.Query().Get("status")))
	default:
		devices, err = s.registry.ListDevices(ctx)
	}
	if err != nil {
		s.logger.Error("list devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	// Apply the status filter on top of a masjid scope.
	if status := r.URL.Query().Get("status"); status != "" && masjidID != "" {
		filtered := devices[:0]
		for _, d := range devices {
			if d.Status == device.Status(status) {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes a device from the fleet. Fleet flows never
// delete devices; this is the explicit admin removal.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	if err := s.registry.DeleteDevice(r.Context(), dev.ID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("delete device failed", "device_id", dev.ID, "error", err)
		writeInternalError(w, "failed to delete device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": dev.ID})
}

// deviceStatusResponse is the body for GET /devices/{id}/status.
type deviceStatusResponse struct {
	ID                 string        `json:"id"`
	MasjidID           string        `json:"masjid_id"`
	Status             device.Status `json:"status"`
	NetworkStatus      string        `json:"network_status,omitempty"`
	DisplayedContentID *string       `json:"displayed_content_id,omitempty"`
	LastSeen           time.Time     `json:"last_seen"`
}

// handleGetDeviceStatus returns the current status fields for a device.
func (s *Server) handleGetDeviceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, deviceStatusResponse{
		ID:                 dev.ID,
		MasjidID:           dev.MasjidID,
		Status:             dev.Status,
		NetworkStatus:      dev.NetworkStatus,
		DisplayedContentID: dev.DisplayedContentID,
		LastSeen:           dev.LastSeen,
	})
}

// handlePostDeviceStatus applies a heartbeat from a device.
//
// An out-of-enumeration status is rejected with 400 and the stored
// status is left untouched. Transitions are appended to the history log
// and broadcast to the masjid room.
func (s *Server) handlePostDeviceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var hb device.HeartbeatUpdate
	if err := json.NewDecoder(r.Body).Decode(&hb); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	change, err := s.registry.ApplyHeartbeat(r.Context(), id, hb)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidStatus):
			writeBadRequest(w, err.Error())
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		default:
			s.logger.Error("heartbeat failed", "device_id", id, "error", err)
			writeInternalError(w, "failed to apply heartbeat")
		}
		return
	}

	s.recordStatusChange(r.Context(), change, device.StatusHistorySourceHeartbeat)

	if s.tsdb != nil && change != nil {
		s.tsdb.WriteHeartbeat(change.MasjidID, change.DeviceID)
		if change.OldStatus != change.NewStatus {
			s.tsdb.WriteDeviceStatus(change.MasjidID, change.DeviceID, string(change.NewStatus))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    hb.Status,
		"device_id": id,
	})
}

// handleGetDeviceConfig returns the device's config merged with server
// defaults, the same view the slides endpoint embeds.
func (s *Server) handleGetDeviceConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev.Config.Resolve(s.configDefaults()))
}

// handlePutDeviceConfig merges the provided fields onto the stored
// config. Fields the caller omits keep their stored values; nothing is
// cleared implicitly.
func (s *Server) handlePutDeviceConfig(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	var patch device.DisplayConfig
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	merged := dev.Config.Merge(patch)
	if err := s.registry.SetConfig(r.Context(), dev.ID, merged); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("config update failed", "device_id", dev.ID, "error", err)
		writeInternalError(w, "failed to update config")
		return
	}

	resolved := merged.Resolve(s.configDefaults())

	// Push the new config to a connected display so it applies without
	// waiting for its next poll.
	s.publishConfig(dev.MasjidID, dev.ID, resolved)
	if s.hub != nil {
		s.hub.Broadcast(dev.MasjidID, EventReload, map[string]string{"device_id": dev.ID})
	}

	writeJSON(w, http.StatusOK, resolved)
}

// assignContentRequest is the body for PUT /devices/{id}/content.
// A null content_id unpins the device back to masjid-wide rotation.
type assignContentRequest struct {
	ContentID *string `json:"content_id"`
}

// handleAssignContent pins content to a device or clears the pin.
func (s *Server) handleAssignContent(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	var req assignContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.ContentID != nil {
		if _, err := s.contentRepo.Get(r.Context(), *req.ContentID); err != nil {
			writeBadRequest(w, "content not found: "+*req.ContentID)
			return
		}
	}

	if err := s.registry.AssignContent(r.Context(), dev.ID, req.ContentID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("content assignment failed", "device_id", dev.ID, "error", err)
		writeInternalError(w, "failed to assign content")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(dev.MasjidID, EventReload, map[string]string{"device_id": dev.ID})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":  dev.ID,
		"content_id": req.ContentID,
	})
}

// handleGetSlides resolves the slide deck a device should display right
// now. Assigned content wins; otherwise the masjid's rotation applies.
// Recomputed per request, never cached.
func (s *Server) handleGetSlides(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	deck, err := s.resolver.Resolve(r.Context(), dev, time.Now().UTC())
	if err != nil {
		s.logger.Error("slide resolution failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to resolve slides")
		return
	}

	writeJSON(w, http.StatusOK, deck)
}

// reapResponse is the body for POST /devices/reap.
type reapResponse struct {
	Reaped  int       `json:"reaped"`
	Cutoff  time.Time `json:"cutoff"`
	Devices []string  `json:"devices,omitempty"`
}

// handleReapOffline transitions online devices that have not been seen
// within the inactivity window to offline. Invoked by an external cron;
// idempotent, so overlapping invocations are harmless.
func (s *Server) handleReapOffline(w http.ResponseWriter, r *http.Request) {
	window := time.Duration(s.sigCfg.OfflineAfterSeconds) * time.Second
	if window <= 0 {
		window = 2 * time.Minute
	}
	cutoff := time.Now().UTC().Add(-window)

	changes, err := s.registry.ReapOffline(r.Context(), cutoff)
	if err != nil {
		s.logger.Error("reap failed", "error", err)
		writeInternalError(w, "failed to reap offline devices")
		return
	}

	resp := reapResponse{Reaped: len(changes), Cutoff: cutoff}
	for i := range changes {
		change := changes[i]
		resp.Devices = append(resp.Devices, change.DeviceID)
		s.recordStatusChange(r.Context(), &change, device.StatusHistorySourceReaper)
		if s.tsdb != nil {
			s.tsdb.WriteDeviceStatus(change.MasjidID, change.DeviceID, string(change.NewStatus))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDeviceHistory returns recent status transitions for a device,
// newest first.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	if s.statusHistory == nil {
		writeJSON(w, http.StatusOK, map[string]any{"history": []device.StatusHistoryEntry{}, "count": 0})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v) //nolint:errcheck // bad values fall back to the default limit
	}

	entries, err := s.statusHistory.GetHistory(r.Context(), dev.ID, limit)
	if err != nil {
		s.logger.Error("history query failed", "device_id", dev.ID, "error", err)
		writeInternalError(w, "failed to load status history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries, "count": len(entries)})
}

// handleDeviceStats returns fleet statistics from the registry cache.
func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()

	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":       stats.TotalDevices,
		"by_status":   byStatus,
		"by_masjid":   stats.ByMasjid,
		"by_platform": stats.ByPlatform,
	})
}

// loadScopedDevice fetches the device from the URL and enforces tenant
// access. Writes the error response and returns false on failure.
func (s *Server) loadScopedDevice(w http.ResponseWriter, r *http.Request) (*device.Device, bool) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return nil, false
		}
		s.logger.Error("get device failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to get device")
		return nil, false
	}

	if claims := claimsFromContext(r.Context()); claims != nil && !canAccessMasjid(claims, dev.MasjidID) {
		writeForbidden(w, "device belongs to another masjid")
		return nil, false
	}

	return dev, true
}

// recordStatusChange appends a real transition to the history log and
// broadcasts it to the masjid room. Same-status heartbeats are skipped.
func (s *Server) recordStatusChange(ctx context.Context, change *device.StatusChange, source string) {
	if change == nil || change.OldStatus == change.NewStatus {
		return
	}

	if s.statusHistory != nil {
		if err := s.statusHistory.RecordTransition(ctx, *change, source); err != nil {
			s.logger.Warn("status history write failed", "device_id", change.DeviceID, "error", err)
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(change.MasjidID, EventDeviceStatusChanged, change)
	}
}
