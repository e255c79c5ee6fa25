// Package product manages the donation kiosk catalogue: the products a
// masjid defines and the per-device assignments that decide which a
// kiosk offers and in what order.
package product
