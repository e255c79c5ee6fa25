package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/XolifyDev/mizan-core/internal/content"
)

// createContent creates content through the API and returns its ID.
func createContent(t *testing.T, env *testEnv, token, masjidID, title, ctype string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/v1/content", token, map[string]any{
		"masjid_id": masjidID,
		"title":     title,
		"type":      ctype,
		"data":      map[string]any{"text": title},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create content failed: %d %s", rec.Code, rec.Body.String())
	}

	var c content.Content
	decodeBody(t, rec, &c)
	if c.ID == "" {
		t.Fatal("expected generated content ID")
	}
	return c.ID
}

func TestCreateContentDefaultsMasjidFromClaims(t *testing.T) {
	env := newTestServer(t)

	// Scoped staff omit masjid_id; it comes from the token.
	rec := env.do(t, http.MethodPost, "/api/v1/content", env.staff, map[string]any{
		"title": "Jumu'ah at 13:30",
		"type":  "announcement",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	var c content.Content
	decodeBody(t, rec, &c)
	if c.MasjidID != masjidAlnoor {
		t.Errorf("expected masjid from claims, got %q", c.MasjidID)
	}
	if !c.Active {
		t.Error("expected new content to default active")
	}
}

func TestCreateContentValidation(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/content", env.staff, map[string]any{
		"title": "",
		"type":  "announcement",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty title, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/content", env.staff, map[string]any{
		"title": "Something",
		"type":  "billboard",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}

	// Scoped staff cannot create content for another masjid.
	rec = env.do(t, http.MethodPost, "/api/v1/content", env.staff, map[string]any{
		"masjid_id": masjidRahma,
		"title":     "Sneaky",
		"type":      "announcement",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-masjid create, got %d", rec.Code)
	}
}

func TestListContentFilters(t *testing.T) {
	env := newTestServer(t)

	createContent(t, env, env.staff, masjidAlnoor, "Timetable", "prayer")
	createContent(t, env, env.staff, masjidAlnoor, "Eid prayer", "announcement")
	createContent(t, env, env.adminRahma, masjidRahma, "Other masjid", "announcement")

	rec := env.do(t, http.MethodGet, "/api/v1/content", env.viewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Content []content.Content `json:"content"`
		Count   int               `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 2 {
		t.Fatalf("expected 2 items for scoped viewer, got %d", body.Count)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/content?type=prayer", env.viewer, nil)
	decodeBody(t, rec, &body)
	if body.Count != 1 || body.Content[0].Type != content.TypePrayer {
		t.Errorf("expected only prayer content, got %+v", body.Content)
	}
}

func TestUpdateContentWindow(t *testing.T) {
	env := newTestServer(t)

	id := createContent(t, env, env.staff, masjidAlnoor, "Ramadan banner", "announcement")

	end := time.Now().UTC().Add(30 * 24 * time.Hour).Format(time.RFC3339)
	rec := env.do(t, http.MethodPatch, "/api/v1/content/"+id, env.staff, map[string]any{
		"end_date": end,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	var c content.Content
	decodeBody(t, rec, &c)
	if c.EndDate == nil {
		t.Fatal("expected end_date to be set")
	}

	// An explicit null clears the bound; omitting it keeps it.
	rec = env.do(t, http.MethodPatch, "/api/v1/content/"+id, env.staff, map[string]any{
		"title": "Ramadan banner v2",
	})
	decodeBody(t, rec, &c)
	if c.EndDate == nil {
		t.Fatal("expected omitted end_date to be preserved")
	}
	if c.Title != "Ramadan banner v2" {
		t.Errorf("expected title update, got %q", c.Title)
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/content/"+id, env.staff, map[string]any{
		"end_date": nil,
	})
	c = content.Content{}
	decodeBody(t, rec, &c)
	if c.EndDate != nil {
		t.Errorf("expected explicit null to clear end_date, got %v", c.EndDate)
	}
}

func TestDeleteContent(t *testing.T) {
	env := newTestServer(t)

	id := createContent(t, env, env.staff, masjidAlnoor, "Old notice", "announcement")

	rec := env.do(t, http.MethodDelete, "/api/v1/content/"+id, env.staff, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting content, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/content/"+id, env.staff, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestSlidesRotation(t *testing.T) {
	env := newTestServer(t)

	registerDevice(t, env, "dev-tv", masjidAlnoor, "Hall A")

	createContent(t, env, env.staff, masjidAlnoor, "Timetable", "prayer")
	createContent(t, env, env.staff, masjidAlnoor, "Eid prayer", "announcement")
	// Media never enters automatic rotation.
	media := createContent(t, env, env.staff, masjidAlnoor, "Fundraiser video", "media")
	// Another masjid's content never leaks into this deck.
	createContent(t, env, env.adminRahma, masjidRahma, "Other announcement", "announcement")

	rec := env.do(t, http.MethodGet, "/api/v1/devices/dev-tv/slides", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from slides, got %d", rec.Code)
	}

	var deck content.SlideDeck
	decodeBody(t, rec, &deck)
	if deck.DeviceID != "dev-tv" {
		t.Errorf("expected deck for dev-tv, got %q", deck.DeviceID)
	}
	if len(deck.Slides) != 2 {
		t.Fatalf("expected 2 rotation slides, got %d", len(deck.Slides))
	}
	for _, s := range deck.Slides {
		if s.ContentID == media {
			t.Error("media content must not enter rotation")
		}
	}
	if deck.Config.Theme != "dark" {
		t.Errorf("expected resolved config in deck, got theme %q", deck.Config.Theme)
	}

	// Pinned content short-circuits rotation entirely.
	rec = env.do(t, http.MethodPut, "/api/v1/devices/dev-tv/content", env.admin, map[string]any{
		"content_id": media,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pinning failed: %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices/dev-tv/slides", "", nil)
	decodeBody(t, rec, &deck)
	if len(deck.Slides) != 1 || deck.Slides[0].ContentID != media {
		t.Fatalf("expected single pinned slide, got %+v", deck.Slides)
	}

	// Unpinning restores rotation.
	rec = env.do(t, http.MethodPut, "/api/v1/devices/dev-tv/content", env.admin, map[string]any{
		"content_id": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unpinning failed: %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/devices/dev-tv/slides", "", nil)
	decodeBody(t, rec, &deck)
	if len(deck.Slides) != 2 {
		t.Errorf("expected rotation to resume, got %d slides", len(deck.Slides))
	}

}
