package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/XolifyDev/mizan-core/internal/auth"
	"github.com/XolifyDev/mizan-core/internal/content"
	"github.com/XolifyDev/mizan-core/internal/device"
	"github.com/XolifyDev/mizan-core/internal/donation"
	"github.com/XolifyDev/mizan-core/internal/event"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/config"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/logging"
	"github.com/XolifyDev/mizan-core/internal/masjid"
	"github.com/XolifyDev/mizan-core/internal/product"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "correct-horse-battery"

	masjidAlnoor = "msj-alnoor"
	masjidRahma  = "msj-rahma"
)

// testSchema mirrors the initial migration. Tests run against an
// in-memory database, so the embedded migration runner is bypassed.
const testSchema = `
	CREATE TABLE masjids (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		slug          TEXT NOT NULL UNIQUE,
		address       TEXT NOT NULL DEFAULT '',
		city          TEXT NOT NULL DEFAULT '',
		country       TEXT NOT NULL DEFAULT '',
		timezone      TEXT NOT NULL DEFAULT 'UTC',
		contact_email TEXT NOT NULL DEFAULT '',
		website       TEXT NOT NULL DEFAULT '',
		latitude      REAL,
		longitude     REAL,
		active        INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE users (
		id            TEXT PRIMARY KEY,
		masjid_id     TEXT REFERENCES masjids(id) ON DELETE CASCADE,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'viewer',
		active        INTEGER NOT NULL DEFAULT 1,
		created_by    TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE refresh_tokens (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		family_id   TEXT NOT NULL,
		token_hash  TEXT NOT NULL UNIQUE,
		device_info TEXT,
		expires_at  TEXT NOT NULL,
		revoked     INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE content (
		id         TEXT PRIMARY KEY,
		masjid_id  TEXT NOT NULL REFERENCES masjids(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		type       TEXT NOT NULL,
		data       TEXT NOT NULL DEFAULT '{}',
		active     INTEGER NOT NULL DEFAULT 1,
		start_date TEXT,
		end_date   TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE devices (
		id                   TEXT PRIMARY KEY,
		masjid_id            TEXT NOT NULL REFERENCES masjids(id) ON DELETE CASCADE,
		name                 TEXT NOT NULL DEFAULT '',
		location             TEXT NOT NULL DEFAULT '',
		platform             TEXT NOT NULL DEFAULT '',
		model                TEXT NOT NULL DEFAULT '',
		os_version           TEXT NOT NULL DEFAULT '',
		app_version          TEXT NOT NULL DEFAULT '',
		installed_app_id     TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL DEFAULT 'online',
		network_status       TEXT NOT NULL DEFAULT '',
		config               TEXT NOT NULL DEFAULT '{}',
		assigned_content_id  TEXT REFERENCES content(id) ON DELETE SET NULL,
		displayed_content_id TEXT,
		last_seen            TEXT NOT NULL,
		registered_at        TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	);

	CREATE TABLE device_status_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id  TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		old_status TEXT NOT NULL,
		new_status TEXT NOT NULL,
		source     TEXT NOT NULL DEFAULT 'heartbeat',
		changed_at TEXT NOT NULL
	);

	CREATE TABLE donations (
		id           TEXT PRIMARY KEY,
		masjid_id    TEXT NOT NULL REFERENCES masjids(id) ON DELETE CASCADE,
		donor_name   TEXT NOT NULL DEFAULT '',
		donor_email  TEXT NOT NULL DEFAULT '',
		amount_cents INTEGER NOT NULL,
		currency     TEXT NOT NULL DEFAULT 'USD',
		category     TEXT NOT NULL DEFAULT 'general',
		method       TEXT NOT NULL DEFAULT 'kiosk',
		note         TEXT NOT NULL DEFAULT '',
		received_at  TEXT NOT NULL,
		created_at   TEXT NOT NULL
	);

	CREATE TABLE events (
		id          TEXT PRIMARY KEY,
		masjid_id   TEXT NOT NULL REFERENCES masjids(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		starts_at   TEXT NOT NULL,
		ends_at     TEXT NOT NULL,
		all_day     INTEGER NOT NULL DEFAULT 0,
		recurrence  TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE products (
		id          TEXT PRIMARY KEY,
		masjid_id   TEXT NOT NULL REFERENCES masjids(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_cents INTEGER NOT NULL DEFAULT 0,
		currency    TEXT NOT NULL DEFAULT 'USD',
		sku         TEXT NOT NULL DEFAULT '',
		active      INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE kiosk_assignments (
		id          TEXT PRIMARY KEY,
		device_id   TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		sort_order  INTEGER NOT NULL DEFAULT 0,
		assigned_at TEXT NOT NULL,
		UNIQUE (device_id, product_id)
	);

	INSERT INTO masjids (id, name, slug, timezone, created_at, updated_at) VALUES
		('msj-alnoor', 'Masjid Al-Noor', 'al-noor', 'Europe/London', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z'),
		('msj-rahma', 'Masjid Ar-Rahma', 'ar-rahma', 'America/Chicago', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z');
`

// testEnv bundles a fully-wired server against an in-memory database
// plus pre-issued access tokens for each role tier.
type testEnv struct {
	db     *sql.DB
	server *Server
	router http.Handler

	owner  string // cross-masjid
	admin  string // admin of msj-alnoor
	staff  string // staff of msj-alnoor
	viewer string // viewer of msj-alnoor

	adminRahma string // admin of msj-rahma
}

type seedUser struct {
	id       string
	username string
	masjidID string
	role     auth.Role
}

var seedUsers = []seedUser{
	{"usr-owner", "owner", "", auth.RoleOwner},
	{"usr-admin", "admin_alnoor", masjidAlnoor, auth.RoleAdmin},
	{"usr-staff", "staff_alnoor", masjidAlnoor, auth.RoleStaff},
	{"usr-viewer", "viewer_alnoor", masjidAlnoor, auth.RoleViewer},
	{"usr-admin2", "admin_rahma", masjidRahma, auth.RoleAdmin},
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A second pool connection would see an empty in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	for _, u := range seedUsers {
		var mid any
		if u.masjidID != "" {
			mid = u.masjidID
		}
		_, err := db.Exec(`INSERT INTO users (id, masjid_id, username, email, name, password_hash, role, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`,
			u.id, mid, u.username, u.username+"@example.com", u.username, hash, string(u.role))
		if err != nil {
			t.Fatalf("failed to seed user %s: %v", u.username, err)
		}
	}

	logger := &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	registry := device.NewRegistry(device.NewSQLiteRepository(db))
	if err := registry.RefreshCache(t.Context()); err != nil {
		t.Fatalf("failed to warm registry cache: %v", err)
	}

	srv, err := New(Deps{
		Security: config.SecurityConfig{JWT: config.JWTConfig{
			Secret:          testJWTSecret,
			AccessTokenTTL:  15,
			RefreshTokenTTL: 60,
		}},
		Signage: config.SignageConfig{
			OfflineAfterSeconds:  120,
			SlideLimit:           10,
			DefaultSlideDuration: 10,
			DefaultTheme:         "dark",
		},
		Logger:        logger,
		Registry:      registry,
		StatusHistory: device.NewSQLiteStatusHistoryRepository(db),
		Masjids:       masjid.NewSQLiteRepository(db),
		Content:       content.NewSQLiteRepository(db),
		Donations:     donation.NewSQLiteRepository(db),
		Events:        event.NewSQLiteRepository(db),
		Products:      product.NewSQLiteRepository(db),
		Users:         auth.NewUserRepository(db),
		Tokens:        auth.NewTokenRepository(db),
		ExternalHub:   NewHub(config.WebSocketConfig{}, logger),
		Version:       "test",
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	env := &testEnv{
		db:     db,
		server: srv,
		router: srv.buildRouter(),
	}

	env.owner = env.mintToken(t, "usr-owner")
	env.admin = env.mintToken(t, "usr-admin")
	env.staff = env.mintToken(t, "usr-staff")
	env.viewer = env.mintToken(t, "usr-viewer")
	env.adminRahma = env.mintToken(t, "usr-admin2")

	return env
}

func (e *testEnv) mintToken(t *testing.T, userID string) string {
	t.Helper()
	for _, u := range seedUsers {
		if u.id != userID {
			continue
		}
		token, err := auth.GenerateAccessToken(&auth.User{
			ID:       u.id,
			MasjidID: u.masjidID,
			Role:     u.role,
		}, testJWTSecret, 15)
		if err != nil {
			t.Fatalf("failed to mint token for %s: %v", userID, err)
		}
		return token
	}
	t.Fatalf("unknown seed user %s", userID)
	return ""
}

// do performs a request against the router. Token may be empty for
// unauthenticated calls; body is JSON-encoded when non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("expected version test, got %v", body["version"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["version"] != "test" {
		t.Errorf("expected version test, got %v", body["version"])
	}
	if _, ok := body["fleet"]; !ok {
		t.Error("expected fleet section in metrics")
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/devices", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestPermissionDeniedForViewer(t *testing.T) {
	env := newTestServer(t)

	// Viewers can read but not manage.
	rec := env.do(t, http.MethodGet, "/api/v1/devices", env.viewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for viewer list, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/content", env.viewer, map[string]any{
		"title": "Eid announcement",
		"type":  "announcement",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer content create, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/devices/dev-x", env.staff, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff device delete, got %d", rec.Code)
	}
}
