package donation

import "time"

// Donation is a single recorded contribution to a masjid. Amounts are
// stored in minor units (cents) to avoid floating-point money.
type Donation struct {
	ID          string    `json:"id"`
	MasjidID    string    `json:"masjid_id"`
	DonorName   string    `json:"donor_name,omitempty"`
	DonorEmail  string    `json:"donor_email,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Category    Category  `json:"category"`
	Method      string    `json:"method"`
	Note        string    `json:"note,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category classifies a donation for reporting.
type Category string

// Donation category constants.
const (
	CategoryGeneral      Category = "general"
	CategoryZakat        Category = "zakat"
	CategorySadaqah      Category = "sadaqah"
	CategoryConstruction Category = "construction"
	CategoryOther        Category = "other"
)

// AllCategories returns all valid donation categories.
func AllCategories() []Category {
	return []Category{
		CategoryGeneral, CategoryZakat, CategorySadaqah,
		CategoryConstruction, CategoryOther,
	}
}

// Filter narrows donation listings. Zero values mean "no constraint".
type Filter struct {
	Category Category
	From     time.Time
	To       time.Time
}

// Summary aggregates donations over a window for dashboards.
type Summary struct {
	MasjidID   string             `json:"masjid_id"`
	TotalCents int64              `json:"total_cents"`
	Count      int                `json:"count"`
	ByCategory map[Category]int64 `json:"by_category"`
	From       *time.Time         `json:"from,omitempty"`
	To         *time.Time         `json:"to,omitempty"`
}
