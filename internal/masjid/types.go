package masjid

import "time"

// Masjid represents a single tenant. Every device, donation, event and
// piece of content belongs to exactly one masjid.
type Masjid struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	Timezone     string    `json:"timezone"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Website      string    `json:"website,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
