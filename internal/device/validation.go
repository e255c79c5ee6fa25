package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength     = 100
	maxLocationLength = 100
	maxMetaLength     = 100
	maxSlideDuration  = 600 // seconds
	maxThemeLength    = 50
)

// Pre-computed validation set for O(1) lookups instead of O(n) linear search.
var validStatuses map[Status]struct{}

func init() {
	validStatuses = make(map[Status]struct{}, len(AllStatuses()))
	for _, s := range AllStatuses() {
		validStatuses[s] = struct{}{}
	}
}

// ValidateDevice performs validation on a device before persistence.
// Returns an error describing the first validation failure found.
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}

	if strings.TrimSpace(d.MasjidID) == "" {
		return ErrMasjidRequired
	}

	if err := ValidateName(d.Name); err != nil {
		return err
	}

	if len(d.Location) > maxLocationLength {
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidDevice, maxLocationLength)
	}
	for field, value := range map[string]string{
		"platform":         d.Platform,
		"model":            d.Model,
		"os_version":       d.OSVersion,
		"app_version":      d.AppVersion,
		"installed_app_id": d.InstalledAppID,
	} {
		if len(value) > maxMetaLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidDevice, field, maxMetaLength)
		}
	}

	if d.Status != "" {
		if err := ValidateStatus(d.Status); err != nil {
			return err
		}
	}

	return ValidateConfig(d.Config)
}

// ValidateName checks if a device name is valid. Empty names are
// allowed; devices register before an admin names them.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateStatus checks if a status is in the enumerated set.
// Uses O(1) map lookup for efficiency.
func ValidateStatus(status Status) error {
	if _, ok := validStatuses[status]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// ValidateConfig checks display config fields that have bounded ranges.
func ValidateConfig(cfg DisplayConfig) error {
	if cfg.SlideDuration != nil {
		if *cfg.SlideDuration <= 0 || *cfg.SlideDuration > maxSlideDuration {
			return fmt.Errorf("%w: slide_duration must be between 1 and %d seconds",
				ErrInvalidConfig, maxSlideDuration)
		}
	}
	if cfg.Theme != nil {
		theme := strings.TrimSpace(*cfg.Theme)
		if theme == "" || len(theme) > maxThemeLength {
			return fmt.Errorf("%w: theme must be 1-%d characters", ErrInvalidConfig, maxThemeLength)
		}
	}
	return nil
}

// GenerateID creates a new prefixed short ID for a device.
func GenerateID() string {
	return "dev-" + uuid.NewString()[:8]
}
