package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/masjid"
)

// handleListMasjids returns the tenants visible to the caller. Owners
// see every masjid; scoped users see only their own.
func (s *Server) handleListMasjids(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	if claims != nil && !claims.Role.CrossesMasjids() {
		m, err := s.masjidRepo.Get(r.Context(), claims.MasjidID)
		if err != nil {
			if errors.Is(err, masjid.ErrNotFound) {
				writeJSON(w, http.StatusOK, map[string]any{"masjids": []masjid.Masjid{}, "count": 0})
				return
			}
			s.logger.Error("get masjid failed", "masjid_id", claims.MasjidID, "error", err)
			writeInternalError(w, "failed to list masjids")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"masjids": []masjid.Masjid{*m}, "count": 1})
		return
	}

	masjids, err := s.masjidRepo.List(r.Context())
	if err != nil {
		s.logger.Error("list masjids failed", "error", err)
		writeInternalError(w, "failed to list masjids")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"masjids": masjids, "count": len(masjids)})
}

// handleCreateMasjid provisions a new tenant. Owner only (enforced by
// route middleware).
func (s *Server) handleCreateMasjid(w http.ResponseWriter, r *http.Request) {
	var m masjid.Masjid
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.masjidRepo.Create(r.Context(), &m); err != nil {
		switch {
		case errors.Is(err, masjid.ErrSlugTaken):
			writeConflict(w, "slug already in use")
		case errors.Is(err, masjid.ErrInvalidName), errors.Is(err, masjid.ErrInvalidSlug), errors.Is(err, masjid.ErrInvalidTimezone):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("create masjid failed", "error", err)
			writeInternalError(w, "failed to create masjid")
		}
		return
	}

	s.logger.Info("masjid created", "masjid_id", m.ID, "slug", m.Slug)
	writeJSON(w, http.StatusCreated, &m)
}

// handleGetMasjid returns a single masjid by ID.
func (s *Server) handleGetMasjid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if claims := claimsFromContext(r.Context()); claims != nil && !canAccessMasjid(claims, id) {
		writeForbidden(w, "masjid access denied")
		return
	}

	m, err := s.masjidRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, masjid.ErrNotFound) {
			writeNotFound(w, "masjid not found")
			return
		}
		s.logger.Error("get masjid failed", "masjid_id", id, "error", err)
		writeInternalError(w, "failed to get masjid")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// updateMasjidRequest patches a masjid's mutable fields. Slug is fixed
// at creation; it is the tenant's stable public handle.
type updateMasjidRequest struct {
	Name         *string  `json:"name,omitempty"`
	Address      *string  `json:"address,omitempty"`
	City         *string  `json:"city,omitempty"`
	Country      *string  `json:"country,omitempty"`
	Timezone     *string  `json:"timezone,omitempty"`
	ContactEmail *string  `json:"contact_email,omitempty"`
	Website      *string  `json:"website,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Active       *bool    `json:"active,omitempty"`
}

// handleUpdateMasjid modifies a masjid's mutable fields.
func (s *Server) handleUpdateMasjid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if claims := claimsFromContext(r.Context()); claims != nil && !canAccessMasjid(claims, id) {
		writeForbidden(w, "masjid access denied")
		return
	}

	var req updateMasjidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	m, err := s.masjidRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, masjid.ErrNotFound) {
			writeNotFound(w, "masjid not found")
			return
		}
		s.logger.Error("get masjid for update failed", "masjid_id", id, "error", err)
		writeInternalError(w, "failed to update masjid")
		return
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Address != nil {
		m.Address = *req.Address
	}
	if req.City != nil {
		m.City = *req.City
	}
	if req.Country != nil {
		m.Country = *req.Country
	}
	if req.Timezone != nil {
		m.Timezone = *req.Timezone
	}
	if req.ContactEmail != nil {
		m.ContactEmail = *req.ContactEmail
	}
	if req.Website != nil {
		m.Website = *req.Website
	}
	if req.Latitude != nil {
		m.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		m.Longitude = req.Longitude
	}
	if req.Active != nil {
		m.Active = *req.Active
	}

	if err := s.masjidRepo.Update(r.Context(), m); err != nil {
		switch {
		case errors.Is(err, masjid.ErrInvalidName), errors.Is(err, masjid.ErrInvalidTimezone):
			writeBadRequest(w, err.Error())
		case errors.Is(err, masjid.ErrNotFound):
			writeNotFound(w, "masjid not found")
		default:
			s.logger.Error("update masjid failed", "masjid_id", id, "error", err)
			writeInternalError(w, "failed to update masjid")
		}
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// handleDeleteMasjid removes a tenant and, through FK cascades, its
// devices, content, donations, events and users. Owner only.
func (s *Server) handleDeleteMasjid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.masjidRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, masjid.ErrNotFound) {
			writeNotFound(w, "masjid not found")
			return
		}
		s.logger.Error("delete masjid failed", "masjid_id", id, "error", err)
		writeInternalError(w, "failed to delete masjid")
		return
	}

	// Device rows are gone from the DB; resync the registry cache.
	if err := s.registry.RefreshCache(r.Context()); err != nil {
		s.logger.Warn("device cache refresh after masjid delete failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
