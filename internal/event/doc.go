// Package event manages masjid calendar entries and the upcoming-events
// listing used by dashboards and signage.
package event
