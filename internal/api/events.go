package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/event"
)

// handleListEvents returns all of a masjid's events.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	masjidID := effectiveMasjidID(r)
	if masjidID == "" {
		writeBadRequest(w, "masjid_id is required")
		return
	}

	events, err := s.eventRepo.ListByMasjid(r.Context(), masjidID)
	if err != nil {
		s.logger.Error("list events failed", "masjid_id", masjidID, "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handleUpcomingEvents returns events that have not yet ended, soonest
// first, for calendar widgets and display footers.
func (s *Server) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	masjidID := effectiveMasjidID(r)
	if masjidID == "" {
		writeBadRequest(w, "masjid_id is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v) //nolint:errcheck // bad values fall back to the default limit
	}

	events, err := s.eventRepo.ListUpcoming(r.Context(), masjidID, time.Now().UTC(), limit)
	if err != nil {
		s.logger.Error("list upcoming events failed", "masjid_id", masjidID, "error", err)
		writeInternalError(w, "failed to list upcoming events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handleCreateEvent stores a new calendar event.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var e event.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if claims := claimsFromContext(r.Context()); claims != nil {
		if e.MasjidID == "" && !claims.Role.CrossesMasjids() {
			e.MasjidID = claims.MasjidID
		}
		if !canAccessMasjid(claims, e.MasjidID) {
			writeForbidden(w, "event belongs to another masjid")
			return
		}
	}

	if err := s.eventRepo.Create(r.Context(), &e); err != nil {
		if isEventValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("create event failed", "error", err)
		writeInternalError(w, "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, &e)
}

// handleGetEvent returns a single event by ID.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadScopedEvent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// updateEventRequest patches an event's mutable fields.
type updateEventRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Location    *string           `json:"location,omitempty"`
	StartsAt    *time.Time        `json:"starts_at,omitempty"`
	EndsAt      *time.Time        `json:"ends_at,omitempty"`
	AllDay      *bool             `json:"all_day,omitempty"`
	Recurrence  *event.Recurrence `json:"recurrence,omitempty"`
}

// handleUpdateEvent modifies an event.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadScopedEvent(w, r)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = *req.EndsAt
	}
	if req.AllDay != nil {
		e.AllDay = *req.AllDay
	}
	if req.Recurrence != nil {
		e.Recurrence = *req.Recurrence
	}

	if err := s.eventRepo.Update(r.Context(), e); err != nil {
		if isEventValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, event.ErrNotFound) {
			writeNotFound(w, "event not found")
			return
		}
		s.logger.Error("update event failed", "event_id", e.ID, "error", err)
		writeInternalError(w, "failed to update event")
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// handleDeleteEvent removes an event.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadScopedEvent(w, r)
	if !ok {
		return
	}

	if err := s.eventRepo.Delete(r.Context(), e.ID); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			writeNotFound(w, "event not found")
			return
		}
		s.logger.Error("delete event failed", "event_id", e.ID, "error", err)
		writeInternalError(w, "failed to delete event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": e.ID})
}

// loadScopedEvent fetches an event from the URL and enforces tenant
// access. Writes the error response and returns false on failure.
func (s *Server) loadScopedEvent(w http.ResponseWriter, r *http.Request) (*event.Event, bool) {
	id := chi.URLParam(r, "id")

	e, err := s.eventRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			writeNotFound(w, "event not found")
			return nil, false
		}
		s.logger.Error("get event failed", "event_id", id, "error", err)
		writeInternalError(w, "failed to get event")
		return nil, false
	}

	if claims := claimsFromContext(r.Context()); claims != nil && !canAccessMasjid(claims, e.MasjidID) {
		writeForbidden(w, "event belongs to another masjid")
		return nil, false
	}

	return e, true
}

// isEventValidationError maps event sentinel errors to 400.
func isEventValidationError(err error) bool {
	return errors.Is(err, event.ErrMasjidRequired) ||
		errors.Is(err, event.ErrInvalidTitle) ||
		errors.Is(err, event.ErrInvalidTimes) ||
		errors.Is(err, event.ErrInvalidRecurrence)
}
