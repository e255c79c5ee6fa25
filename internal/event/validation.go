package event

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxTitleLength = 200
)

// Pre-computed validation set for O(1) lookups.
var validRecurrences map[Recurrence]struct{}

func init() {
	validRecurrences = make(map[Recurrence]struct{}, len(AllRecurrences()))
	for _, r := range AllRecurrences() {
		validRecurrences[r] = struct{}{}
	}
}

// Validate checks an Event record before persistence.
func Validate(e *Event) error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidTitle)
	}
	if strings.TrimSpace(e.MasjidID) == "" {
		return ErrMasjidRequired
	}
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTitle)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, maxTitleLength)
	}
	if e.StartsAt.IsZero() {
		return fmt.Errorf("%w: starts_at is required", ErrInvalidTimes)
	}
	if !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		return fmt.Errorf("%w: ends_at precedes starts_at", ErrInvalidTimes)
	}
	if e.Recurrence != RecurrenceNone {
		if _, ok := validRecurrences[e.Recurrence]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidRecurrence, e.Recurrence)
		}
	}
	return nil
}

// GenerateID creates a new prefixed short ID for an event.
func GenerateID() string {
	return "evt-" + uuid.NewString()[:8]
}
