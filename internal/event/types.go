package event

import "time"

// Event is a calendar entry for a masjid: a class, a jumu'ah programme,
// an iftar, a fundraiser.
type Event struct {
	ID          string     `json:"id"`
	MasjidID    string     `json:"masjid_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	AllDay      bool       `json:"all_day"`
	Recurrence  Recurrence `json:"recurrence,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Recurrence describes how an event repeats. The empty value means a
// one-off event.
type Recurrence string

// Recurrence constants.
const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// AllRecurrences returns the valid non-empty recurrence values.
func AllRecurrences() []Recurrence {
	return []Recurrence{
		RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly,
	}
}
