package donation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Pre-computed validation set for O(1) lookups.
var validCategories map[Category]struct{}

func init() {
	validCategories = make(map[Category]struct{}, len(AllCategories()))
	for _, c := range AllCategories() {
		validCategories[c] = struct{}{}
	}
}

// Validate checks a Donation record before persistence.
func Validate(d *Donation) error {
	if d == nil {
		return fmt.Errorf("%w: nil donation", ErrInvalidAmount)
	}
	if strings.TrimSpace(d.MasjidID) == "" {
		return ErrMasjidRequired
	}
	if d.AmountCents <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, d.AmountCents)
	}
	if d.Category != "" {
		if err := ValidateCategory(d.Category); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCategory checks if a category is in the enumerated set.
func ValidateCategory(c Category) error {
	if _, ok := validCategories[c]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidCategory, c)
}

// GenerateID creates a new prefixed short ID for a donation.
func GenerateID() string {
	return "don-" + uuid.NewString()[:8]
}
