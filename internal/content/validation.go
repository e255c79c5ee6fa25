package content

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
var validTypes map[Type]struct{}

func init() {
	validTypes = make(map[Type]struct{}, len(AllTypes()))
	for _, t := range AllTypes() {
		validTypes[t] = struct{}{}
	}
}

// Validate checks a Content record before persistence.
func Validate(c *Content) error {
	if c == nil {
		return fmt.Errorf("%w: nil content", ErrInvalidTitle)
	}
	if strings.TrimSpace(c.MasjidID) == "" {
		return ErrMasjidRequired
	}
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTitle)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, maxTitleLength)
	}
	if err := ValidateType(c.Type); err != nil {
		return err
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("%w: end_date precedes start_date", ErrInvalidWindow)
	}
	return nil
}

// ValidateType checks if a content type is in the enumerated set.
func ValidateType(t Type) error {
	if _, ok := validTypes[t]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidType, t)
}

// GenerateID creates a new prefixed short ID for a content record.
func GenerateID() string {
	return "cnt-" + uuid.NewString()[:8]
}
