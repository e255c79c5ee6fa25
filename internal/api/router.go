package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Three access tiers:
//   - public: health, metrics, login/refresh/logout, WebSocket upgrade
//     (ticket-validated in the handler).
//   - device-facing: registration, heartbeats, config and slide fetch,
//     kiosk catalogue, reaper. Displays carry no credentials, only
//     their masjid association.
//   - dashboard: everything else, behind JWT auth with per-route
//     permission checks.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check and metrics (no auth required)
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		// WebSocket (auth via single-use ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Device-facing endpoints
		r.Post("/devices/register", s.handleRegisterDevice)
		r.Post("/devices/reap", s.handleReapOffline)
		r.Get("/devices/{id}/status", s.handleGetDeviceStatus)
		r.Post("/devices/{id}/status", s.handlePostDeviceStatus)
		r.Get("/devices/{id}/config", s.handleGetDeviceConfig)
		r.Get("/devices/{id}/slides", s.handleGetSlides)
		r.Get("/devices/{id}/products", s.handleListKioskProducts)

		// Dashboard routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)
			r.Get("/auth/me", s.handleAuthMe)

			// Fleet management
			read := s.requirePermission(auth.PermDashboardRead)
			deviceManage := s.requirePermission(auth.PermDeviceManage)

			r.With(read).Get("/devices", s.handleListDevices)
			r.With(read).Get("/devices/stats", s.handleDeviceStats)
			r.With(read).Get("/devices/{id}", s.handleGetDevice)
			r.With(read).Get("/devices/{id}/history", s.handleDeviceHistory)
			r.With(deviceManage).Delete("/devices/{id}", s.handleDeleteDevice)
			r.With(deviceManage).Put("/devices/{id}/config", s.handlePutDeviceConfig)
			r.With(deviceManage).Put("/devices/{id}/content", s.handleAssignContent)

			// Kiosk product assignment
			productManage := s.requirePermission(auth.PermProductManage)
			r.With(productManage).Post("/devices/{id}/products", s.handleAssignProduct)
			r.With(productManage).Put("/devices/{id}/products/order", s.handleReorderProducts)
			r.With(productManage).Delete("/devices/{id}/products/{productID}", s.handleUnassignProduct)

			// Masjids
			masjidManage := s.requirePermission(auth.PermMasjidManage)
			masjidCreate := s.requirePermission(auth.PermMasjidCreate)
			r.With(read).Get("/masjids", s.handleListMasjids)
			r.With(read).Get("/masjids/{id}", s.handleGetMasjid)
			r.With(masjidCreate).Post("/masjids", s.handleCreateMasjid)
			r.With(masjidManage).Patch("/masjids/{id}", s.handleUpdateMasjid)
			r.With(masjidCreate).Delete("/masjids/{id}", s.handleDeleteMasjid)

			// Content
			contentManage := s.requirePermission(auth.PermContentManage)
			r.With(read).Get("/content", s.handleListContent)
			r.With(read).Get("/content/{id}", s.handleGetContent)
			r.With(contentManage).Post("/content", s.handleCreateContent)
			r.With(contentManage).Patch("/content/{id}", s.handleUpdateContent)
			r.With(contentManage).Delete("/content/{id}", s.handleDeleteContent)

			// Donations (append-only: no update route)
			donationRecord := s.requirePermission(auth.PermDonationRecord)
			r.With(read).Get("/donations", s.handleListDonations)
			r.With(read).Get("/donations/summary", s.handleDonationSummary)
			r.With(read).Get("/donations/{id}", s.handleGetDonation)
			r.With(donationRecord).Post("/donations", s.handleCreateDonation)
			r.With(donationRecord).Delete("/donations/{id}", s.handleDeleteDonation)

			// Events
			eventManage := s.requirePermission(auth.PermEventManage)
			r.With(read).Get("/events", s.handleListEvents)
			r.With(read).Get("/events/upcoming", s.handleUpcomingEvents)
			r.With(read).Get("/events/{id}", s.handleGetEvent)
			r.With(eventManage).Post("/events", s.handleCreateEvent)
			r.With(eventManage).Patch("/events/{id}", s.handleUpdateEvent)
			r.With(eventManage).Delete("/events/{id}", s.handleDeleteEvent)

			// Products
			r.With(read).Get("/products", s.handleListProducts)
			r.With(read).Get("/products/{id}", s.handleGetProduct)
			r.With(productManage).Post("/products", s.handleCreateProduct)
			r.With(productManage).Patch("/products/{id}", s.handleUpdateProduct)
			r.With(productManage).Delete("/products/{id}", s.handleDeleteProduct)

			// Users
			userManage := s.requirePermission(auth.PermUserManage)
			r.With(userManage).Get("/users", s.handleListUsers)
			r.With(userManage).Post("/users", s.handleCreateUser)
			r.With(userManage).Get("/users/{id}", s.handleGetUser)
			r.With(userManage).Patch("/users/{id}", s.handleUpdateUser)
			r.With(userManage).Put("/users/{id}/password", s.handleChangePassword)
			r.With(userManage).Delete("/users/{id}", s.handleDeleteUser)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
