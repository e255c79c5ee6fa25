package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/content"
)

// handleListContent returns a masjid's content, optionally filtered by
// type and active flag.
func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	masjidID := effectiveMasjidID(r)
	if masjidID == "" {
		writeBadRequest(w, "masjid_id is required")
		return
	}

	items, err := s.contentRepo.ListByMasjid(r.Context(), masjidID)
	if err != nil {
		s.logger.Error("list content failed", "masjid_id", masjidID, "error", err)
		writeInternalError(w, "failed to list content")
		return
	}

	if typ := r.URL.Query().Get("type"); typ != "" {
		filtered := items[:0]
		for _, c := range items {
			if c.Type == content.Type(typ) {
				filtered = append(filtered, c)
			}
		}
		items = filtered
	}
	if activeStr := r.URL.Query().Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			writeBadRequest(w, "active must be true or false")
			return
		}
		filtered := items[:0]
		for _, c := range items {
			if c.Active == active {
				filtered = append(filtered, c)
			}
		}
		items = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{"content": items, "count": len(items)})
}

// handleCreateContent stores a new piece of content and tells the
// masjid's displays to reload.
func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var c content.Content
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if claims := claimsFromContext(r.Context()); claims != nil {
		if c.MasjidID == "" && !claims.Role.CrossesMasjids() {
			c.MasjidID = claims.MasjidID
		}
		if !canAccessMasjid(claims, c.MasjidID) {
			writeForbidden(w, "content belongs to another masjid")
			return
		}
	}

	if err := s.contentRepo.Create(r.Context(), &c); err != nil {
		if isContentValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("create content failed", "error", err)
		writeInternalError(w, "failed to create content")
		return
	}

	s.broadcastContentChange(c.MasjidID, &c)
	writeJSON(w, http.StatusCreated, &c)
}

// handleGetContent returns a single piece of content by ID.
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadScopedContent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// updateContentRequest patches content fields. The owning masjid is
// fixed at creation.
type updateContentRequest struct {
	Title     *string         `json:"title,omitempty"`
	Type      *content.Type   `json:"type,omitempty"`
	Data      *map[string]any `json:"data,omitempty"`
	Active    *bool           `json:"active,omitempty"`
	StartDate json.RawMessage `json:"start_date,omitempty"`
	EndDate   json.RawMessage `json:"end_date,omitempty"`
}

// handleUpdateContent modifies content and broadcasts the change so
// displays showing it refresh.
func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadScopedContent(w, r)
	if !ok {
		return
	}

	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Type != nil {
		c.Type = *req.Type
	}
	if req.Data != nil {
		c.Data = *req.Data
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	// Date window fields distinguish "omitted" from an explicit null,
	// which clears the bound.
	if len(req.StartDate) > 0 {
		if err := json.Unmarshal(req.StartDate, &c.StartDate); err != nil {
			writeBadRequest(w, "invalid start_date")
			return
		}
	}
	if len(req.EndDate) > 0 {
		if err := json.Unmarshal(req.EndDate, &c.EndDate); err != nil {
			writeBadRequest(w, "invalid end_date")
			return
		}
	}

	if err := s.contentRepo.Update(r.Context(), c); err != nil {
		if isContentValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, content.ErrNotFound) {
			writeNotFound(w, "content not found")
			return
		}
		s.logger.Error("update content failed", "content_id", c.ID, "error", err)
		writeInternalError(w, "failed to update content")
		return
	}

	s.broadcastContentChange(c.MasjidID, c)
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteContent removes content. Devices pinned to it fall back
// to masjid-wide rotation on their next slide fetch.
func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadScopedContent(w, r)
	if !ok {
		return
	}

	if err := s.contentRepo.Delete(r.Context(), c.ID); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			writeNotFound(w, "content not found")
			return
		}
		s.logger.Error("delete content failed", "content_id", c.ID, "error", err)
		writeInternalError(w, "failed to delete content")
		return
	}

	s.broadcastContentChange(c.MasjidID, map[string]string{"id": c.ID, "deleted": "true"})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": c.ID})
}

// loadScopedContent fetches content from the URL and enforces tenant
// access. Writes the error response and returns false on failure.
func (s *Server) loadScopedContent(w http.ResponseWriter, r *http.Request) (*content.Content, bool) {
	id := chi.URLParam(r, "id")

	c, err := s.contentRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			writeNotFound(w, "content not found")
			return nil, false
		}
		s.logger.Error("get content failed", "content_id", id, "error", err)
		writeInternalError(w, "failed to get content")
		return nil, false
	}

	if claims := claimsFromContext(r.Context()); claims != nil && !canAccessMasjid(claims, c.MasjidID) {
		writeForbidden(w, "content belongs to another masjid")
		return nil, false
	}

	return c, true
}

// broadcastContentChange notifies the masjid room that the content set
// changed and nudges displays to re-fetch their slides.
func (s *Server) broadcastContentChange(masjidID string, payload any) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(masjidID, EventContentUpdated, payload)
	s.hub.Broadcast(masjidID, EventReload, nil)
}

// isContentValidationError maps content sentinel errors to 400.
func isContentValidationError(err error) bool {
	return errors.Is(err, content.ErrMasjidRequired) ||
		errors.Is(err, content.ErrInvalidTitle) ||
		errors.Is(err, content.ErrInvalidType) ||
		errors.Is(err, content.ErrInvalidWindow)
}
