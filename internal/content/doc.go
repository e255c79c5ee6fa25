// Package content manages displayable material for masjid signage:
// prayer timetables, announcements, daily verses, hadith, duas, and
// free-form media.
//
// Content rows carry an optional date window and an active flag; only
// rows visible at resolution time take part in automatic rotation. The
// Resolver turns a device plus the masjid's content set into an ordered
// slide deck:
//
//	resolver := content.NewResolver(repo, defaults, 10)
//	deck, err := resolver.Resolve(ctx, dev, time.Now().UTC())
//
// A device with explicitly assigned content receives only that content;
// everything else rotates through the masjid-wide whitelist returned by
// SlideTypes.
package content
