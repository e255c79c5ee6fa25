package product

import "time"

// Product is a donation kiosk catalogue item: a named cause or fixed
// amount a kiosk offers for contribution. Prices are minor units.
type Product struct {
	ID          string    `json:"id"`
	MasjidID    string    `json:"masjid_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	SKU         string    `json:"sku,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KioskAssignment binds a product to a kiosk-mode device. SortOrder
// fixes the on-screen position; lower values render first.
type KioskAssignment struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	ProductID  string    `json:"product_id"`
	SortOrder  int       `json:"sort_order"`
	AssignedAt time.Time `json:"assigned_at"`
}
