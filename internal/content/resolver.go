package content

import (
	"context"
	"fmt"
	"time"

	"github.com/XolifyDev/mizan-core/internal/device"
)

// Slide is the derived unit of display sent to a MizanTV device. Slides
// are never persisted; they are recomputed on every resolution call.
type Slide struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Content   map[string]any `json:"content"`
	Order     int            `json:"order"`
	Layout    string         `json:"layout"`
	Theme     string         `json:"theme"`
	ContentID string         `json:"content_id"`
}

// SlideDeck is the full response for a device's slide resolution:
// the ordered slides plus the merged display config the device should
// apply while showing them.
type SlideDeck struct {
	DeviceID string                `json:"device_id"`
	Slides   []Slide               `json:"slides"`
	Config   device.ResolvedConfig `json:"config"`
}

// Resolver computes the slide deck for a device.
//
// Resolution order:
//  1. If the device has assigned content, the deck is exactly that
//     single piece of content (even if expired; pinning is explicit).
//  2. Otherwise masjid-wide visible content restricted to the rotation
//     whitelist, newest first, capped at the configured limit.
type Resolver struct {
	repo     Repository
	defaults device.ConfigDefaults
	limit    int
}

// NewResolver creates a slide resolver. limit caps rotation decks; the
// defaults fill in unset device config fields.
func NewResolver(repo Repository, defaults device.ConfigDefaults, limit int) *Resolver {
	if limit <= 0 {
		limit = 10
	}
	return &Resolver{repo: repo, defaults: defaults, limit: limit}
}

// Resolve builds the slide deck for the given device at now.
func (r *Resolver) Resolve(ctx context.Context, dev *device.Device, now time.Time) (*SlideDeck, error) {
	cfg := dev.Config.Resolve(r.defaults)
	deck := &SlideDeck{
		DeviceID: dev.ID,
		Slides:   []Slide{},
		Config:   cfg,
	}

	if dev.AssignedContentID != nil {
		c, err := r.repo.Get(ctx, *dev.AssignedContentID)
		if err != nil {
			return nil, fmt.Errorf("loading assigned content: %w", err)
		}
		deck.Slides = append(deck.Slides, toSlide(c, 0, cfg.Theme))
		return deck, nil
	}

	items, err := r.repo.ListForRotation(ctx, dev.MasjidID, SlideTypes(), now, r.limit)
	if err != nil {
		return nil, fmt.Errorf("loading rotation content: %w", err)
	}
	for i := range items {
		deck.Slides = append(deck.Slides, toSlide(&items[i], i, cfg.Theme))
	}
	return deck, nil
}

// toSlide maps a content record to a slide at the given position.
func toSlide(c *Content, order int, theme string) Slide {
	return Slide{
		ID:        fmt.Sprintf("%s-%d", c.ID, order),
		Type:      c.Type,
		Content:   c.Data,
		Order:     order,
		Layout:    layoutFor(c.Type),
		Theme:     theme,
		ContentID: c.ID,
	}
}

// layoutFor selects the display layout for a content type.
func layoutFor(t Type) string {
	switch t {
	case TypePrayer:
		return "prayer_times"
	case TypeAnnouncement:
		return "announcement"
	case TypeDailyVerse, TypeDailyHadith, TypeDailyDua:
		return "quote"
	case TypeMedia:
		return "media"
	default:
		return "custom"
	}
}
