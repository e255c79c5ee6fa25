// Package auth provides authentication and authorisation for Mizan Core.
//
// It implements a 4-tier role model (viewer → staff → admin → owner) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - JWT access/refresh token rotation with family-based theft detection
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Every account except owner is scoped to one masjid; the masjid id
// rides in the access token claims and request handlers enforce it.
// Owners carry no masjid and operate across tenants.
package auth
