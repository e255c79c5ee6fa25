package product

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength = 120
)

// Validate checks a Product record before persistence.
func Validate(p *Product) error {
	if p == nil {
		return fmt.Errorf("%w: nil product", ErrInvalidName)
	}
	if strings.TrimSpace(p.MasjidID) == "" {
		return ErrMasjidRequired
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPrice, p.PriceCents)
	}
	return nil
}

// GenerateID creates a new prefixed short ID for a product.
func GenerateID() string {
	return "prd-" + uuid.NewString()[:8]
}

// GenerateAssignmentID creates a new prefixed short ID for a kiosk
// assignment.
func GenerateAssignmentID() string {
	return "ka-" + uuid.NewString()[:8]
}
