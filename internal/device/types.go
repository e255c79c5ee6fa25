package device

import "time"

// Device represents a single MizanTV display or donation kiosk in a
// masjid's fleet. This matches the database schema in
// migrations/20260301_000000_initial_schema.up.sql.
type Device struct {
	// Identity
	ID       string `json:"id"`
	MasjidID string `json:"masjid_id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`

	// Hardware and software metadata reported at registration
	Platform       string `json:"platform,omitempty"`
	Model          string `json:"model,omitempty"`
	OSVersion      string `json:"os_version,omitempty"`
	AppVersion     string `json:"app_version,omitempty"`
	InstalledAppID string `json:"installed_app_id,omitempty"`

	// Runtime state reported by heartbeats
	Status        Status `json:"status"`
	NetworkStatus string `json:"network_status,omitempty"`

	// Display configuration; sparse fields merged with server defaults
	Config DisplayConfig `json:"config"`

	// Content pinning and playback tracking
	AssignedContentID  *string `json:"assigned_content_id,omitempty"`
	DisplayedContentID *string `json:"displayed_content_id,omitempty"`

	// Timestamps
	LastSeen     time.Time `json:"last_seen"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DeepCopy creates a complete independent copy of the Device.
// Pointer fields are cloned so modifications to the copy do not
// affect the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields

	cpy.AssignedContentID = copyStringPtr(d.AssignedContentID)
	cpy.DisplayedContentID = copyStringPtr(d.DisplayedContentID)
	cpy.Config = d.Config.DeepCopy()

	return &cpy
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyIntPtr(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyBoolPtr(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// Status represents the fleet status of a device.
type Status string

// Status constants. The enumeration is closed; heartbeats carrying any
// other value are rejected without touching the stored status.
const (
	StatusOnline     Status = "online"
	StatusOffline    Status = "offline"
	StatusRestarting Status = "restarting"
	StatusStopped    Status = "stopped"
	StatusError      Status = "error"
)

// AllStatuses returns all valid device status values.
func AllStatuses() []Status {
	return []Status{
		StatusOnline, StatusOffline, StatusRestarting, StatusStopped, StatusError,
	}
}

// DisplayConfig holds per-device display settings. All fields are
// pointers so a stored config only carries the values an admin has
// actually set; unset fields fall back to server defaults at merge time.
type DisplayConfig struct {
	SlideDuration     *int    `json:"slide_duration,omitempty"`
	Theme             *string `json:"theme,omitempty"`
	ShowClock         *bool   `json:"show_clock,omitempty"`
	ShowPrayerTimes   *bool   `json:"show_prayer_times,omitempty"`
	ShowAnnouncements *bool   `json:"show_announcements,omitempty"`
	ShowDonations     *bool   `json:"show_donations,omitempty"`
	MuteAudio         *bool   `json:"mute_audio,omitempty"`
}

// DeepCopy clones the config including its pointer fields.
func (c DisplayConfig) DeepCopy() DisplayConfig {
	return DisplayConfig{
		SlideDuration:     copyIntPtr(c.SlideDuration),
		Theme:             copyStringPtr(c.Theme),
		ShowClock:         copyBoolPtr(c.ShowClock),
		ShowPrayerTimes:   copyBoolPtr(c.ShowPrayerTimes),
		ShowAnnouncements: copyBoolPtr(c.ShowAnnouncements),
		ShowDonations:     copyBoolPtr(c.ShowDonations),
		MuteAudio:         copyBoolPtr(c.MuteAudio),
	}
}

// Merge overlays the non-nil fields of other onto a copy of c.
// Used by the config PUT handler so a partial update never clears
// fields the caller did not send.
func (c DisplayConfig) Merge(other DisplayConfig) DisplayConfig {
	merged := c.DeepCopy()
	if other.SlideDuration != nil {
		merged.SlideDuration = copyIntPtr(other.SlideDuration)
	}
	if other.Theme != nil {
		merged.Theme = copyStringPtr(other.Theme)
	}
	if other.ShowClock != nil {
		merged.ShowClock = copyBoolPtr(other.ShowClock)
	}
	if other.ShowPrayerTimes != nil {
		merged.ShowPrayerTimes = copyBoolPtr(other.ShowPrayerTimes)
	}
	if other.ShowAnnouncements != nil {
		merged.ShowAnnouncements = copyBoolPtr(other.ShowAnnouncements)
	}
	if other.ShowDonations != nil {
		merged.ShowDonations = copyBoolPtr(other.ShowDonations)
	}
	if other.MuteAudio != nil {
		merged.MuteAudio = copyBoolPtr(other.MuteAudio)
	}
	return merged
}

// ConfigDefaults are the server-side fallback values applied when a
// device config leaves a field unset. Populated from the signage
// section of the application config.
type ConfigDefaults struct {
	SlideDuration int
	Theme         string
}

// ResolvedConfig is the fully-merged view of a device config with every
// field populated. This is what devices receive from the config and
// slides endpoints.
type ResolvedConfig struct {
	SlideDuration     int    `json:"slide_duration"`
	Theme             string `json:"theme"`
	ShowClock         bool   `json:"show_clock"`
	ShowPrayerTimes   bool   `json:"show_prayer_times"`
	ShowAnnouncements bool   `json:"show_announcements"`
	ShowDonations     bool   `json:"show_donations"`
	MuteAudio         bool   `json:"mute_audio"`
}

// Resolve merges the sparse config with server defaults into a complete
// view. Toggles default to enabled except audio, which defaults muted
// because most installs run displays without speakers.
func (c DisplayConfig) Resolve(defaults ConfigDefaults) ResolvedConfig {
	out := ResolvedConfig{
		SlideDuration:     defaults.SlideDuration,
		Theme:             defaults.Theme,
		ShowClock:         true,
		ShowPrayerTimes:   true,
		ShowAnnouncements: true,
		ShowDonations:     true,
		MuteAudio:         true,
	}
	if c.SlideDuration != nil {
		out.SlideDuration = *c.SlideDuration
	}
	if c.Theme != nil {
		out.Theme = *c.Theme
	}
	if c.ShowClock != nil {
		out.ShowClock = *c.ShowClock
	}
	if c.ShowPrayerTimes != nil {
		out.ShowPrayerTimes = *c.ShowPrayerTimes
	}
	if c.ShowAnnouncements != nil {
		out.ShowAnnouncements = *c.ShowAnnouncements
	}
	if c.ShowDonations != nil {
		out.ShowDonations = *c.ShowDonations
	}
	if c.MuteAudio != nil {
		out.MuteAudio = *c.MuteAudio
	}
	return out
}
