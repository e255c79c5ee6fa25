package content

import "time"

// Content represents a piece of displayable material owned by a masjid:
// a prayer timetable, an announcement, a daily verse, or free-form media.
type Content struct {
	ID        string         `json:"id"`
	MasjidID  string         `json:"masjid_id"`
	Title     string         `json:"title"`
	Type      Type           `json:"type"`
	Data      map[string]any `json:"data"`
	Active    bool           `json:"active"`
	StartDate *time.Time     `json:"start_date,omitempty"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Type classifies content for slide resolution and layout selection.
type Type string

// Content type constants.
const (
	TypePrayer       Type = "prayer"
	TypeAnnouncement Type = "announcement"
	TypeDailyVerse   Type = "daily_verse"
	TypeDailyHadith  Type = "daily_hadith"
	TypeDailyDua     Type = "daily_dua"
	TypeMedia        Type = "media"
	TypeCustom       Type = "custom"
)

// AllTypes returns all valid content type values.
func AllTypes() []Type {
	return []Type{
		TypePrayer, TypeAnnouncement, TypeDailyVerse,
		TypeDailyHadith, TypeDailyDua, TypeMedia, TypeCustom,
	}
}

// SlideTypes returns the types eligible for automatic slide rotation.
// Media and custom content only reach a display when explicitly
// assigned to it.
func SlideTypes() []Type {
	return []Type{
		TypePrayer, TypeAnnouncement, TypeDailyVerse,
		TypeDailyHadith, TypeDailyDua,
	}
}

// VisibleAt reports whether the content is active and inside its
// optional date window at the given instant.
func (c *Content) VisibleAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	return true
}
