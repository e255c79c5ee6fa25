// Package donation records contributions to a masjid and aggregates
// them for dashboards. Amounts are minor units, records are append-only
// (delete exists only for correcting mistakes), and Summarize groups
// totals by category directly in SQL.
package donation
