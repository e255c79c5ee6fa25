package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/donation"
)

// handleListDonations returns a masjid's donations, newest first,
// optionally filtered by category and received_at window
// (?category=zakat&from=2026-01-01T00:00:00Z&to=...).
func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	masjidID := effectiveMasjidID(r)
	if masjidID == "" {
		writeBadRequest(w, "masjid_id is required")
		return
	}

	filter, err := donationFilterFromQuery(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	donations, err := s.donationRepo.ListByMasjid(r.Context(), masjidID, filter)
	if err != nil {
		s.logger.Error("list donations failed", "masjid_id", masjidID, "error", err)
		writeInternalError(w, "failed to list donations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"donations": donations, "count": len(donations)})
}

// handleCreateDonation records a donation. The ledger is append-only;
// there is no update endpoint.
func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var d donation.Donation
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if claims := claimsFromContext(r.Context()); claims != nil {
		if d.MasjidID == "" && !claims.Role.CrossesMasjids() {
			d.MasjidID = claims.MasjidID
		}
		if !canAccessMasjid(claims, d.MasjidID) {
			writeForbidden(w, "donation belongs to another masjid")
			return
		}
	}

	if err := s.donationRepo.Create(r.Context(), &d); err != nil {
		if errors.Is(err, donation.ErrMasjidRequired) ||
			errors.Is(err, donation.ErrInvalidAmount) ||
			errors.Is(err, donation.ErrInvalidCategory) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("create donation failed", "error", err)
		writeInternalError(w, "failed to record donation")
		return
	}

	if s.tsdb != nil {
		s.tsdb.WriteDonation(d.MasjidID, string(d.Category), d.AmountCents)
	}

	writeJSON(w, http.StatusCreated, &d)
}

// handleGetDonation returns a single donation by ID.
func (s *Server) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadScopedDonation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDonation removes a mistaken entry. Corrections are
// delete-and-recreate; stored donations are never edited in place.
func (s *Server) handleDeleteDonation(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadScopedDonation(w, r)
	if !ok {
		return
	}

	if err := s.donationRepo.Delete(r.Context(), d.ID); err != nil {
		if errors.Is(err, donation.ErrNotFound) {
			writeNotFound(w, "donation not found")
			return
		}
		s.logger.Error("delete donation failed", "donation_id", d.ID, "error", err)
		writeInternalError(w, "failed to delete donation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": d.ID})
}

// handleDonationSummary returns per-category totals for dashboards,
// honouring the same category/window filters as the list endpoint.
func (s *Server) handleDonationSummary(w http.ResponseWriter, r *http.Request) {
	masjidID := effectiveMasjidID(r)
	if masjidID == "" {
		writeBadRequest(w, "masjid_id is required")
		return
	}

	filter, err := donationFilterFromQuery(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	summary, err := s.donationRepo.Summarize(r.Context(), masjidID, filter)
	if err != nil {
		s.logger.Error("donation summary failed", "masjid_id", masjidID, "error", err)
		writeInternalError(w, "failed to summarise donations")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// loadScopedDonation fetches a donation from the URL and enforces
// tenant access. Writes the error response and returns false on failure.
func (s *Server) loadScopedDonation(w http.ResponseWriter, r *http.Request) (*donation.Donation, bool) {
	id := chi.URLParam(r, "id")

	d, err := s.donationRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, donation.ErrNotFound) {
			writeNotFound(w, "donation not found")
			return nil, false
		}
		s.logger.Error("get donation failed", "donation_id", id, "error", err)
		writeInternalError(w, "failed to get donation")
		return nil, false
	}

	if claims := claimsFromContext(r.Context()); claims != nil && !canAccessMasjid(claims, d.MasjidID) {
		writeForbidden(w, "donation belongs to another masjid")
		return nil, false
	}

	return d, true
}

// donationFilterFromQuery parses category/from/to query parameters.
func donationFilterFromQuery(r *http.Request) (donation.Filter, error) {
	var filter donation.Filter

	if cat := r.URL.Query().Get("category"); cat != "" {
		if err := donation.ValidateCategory(donation.Category(cat)); err != nil {
			return filter, err
		}
		filter.Category = donation.Category(cat)
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, errors.New("from must be an RFC3339 timestamp")
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, errors.New("to must be an RFC3339 timestamp")
		}
		filter.To = t
	}

	return filter, nil
}
