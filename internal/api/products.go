package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/product"
)

// handleListProducts returns a masjid's kiosk product catalogue.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	masjidID := effectiveMasjidID(r)
	if masjidID == "" {
		writeBadRequest(w, "masjid_id is required")
		return
	}

	products, err := s.productRepo.ListByMasjid(r.Context(), masjidID)
	if err != nil {
		s.logger.Error("list products failed", "masjid_id", masjidID, "error", err)
		writeInternalError(w, "failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

// handleCreateProduct adds a product to the catalogue. A zero price is
// valid: the kiosk prompts the donor for an amount.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if claims := claimsFromContext(r.Context()); claims != nil {
		if p.MasjidID == "" && !claims.Role.CrossesMasjids() {
			p.MasjidID = claims.MasjidID
		}
		if !canAccessMasjid(claims, p.MasjidID) {
			writeForbidden(w, "product belongs to another masjid")
			return
		}
	}

	if err := s.productRepo.Create(r.Context(), &p); err != nil {
		if isProductValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("create product failed", "error", err)
		writeInternalError(w, "failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, &p)
}

// handleGetProduct returns a single product by ID.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadScopedProduct(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// updateProductRequest patches a product's mutable fields.
type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	SKU         *string `json:"sku,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// handleUpdateProduct modifies a product. Deactivating a product hides
// it from every kiosk without touching its assignments.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadScopedProduct(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}
	if req.Currency != nil {
		p.Currency = *req.Currency
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := s.productRepo.Update(r.Context(), p); err != nil {
		if isProductValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, product.ErrNotFound) {
			writeNotFound(w, "product not found")
			return
		}
		s.logger.Error("update product failed", "product_id", p.ID, "error", err)
		writeInternalError(w, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// handleDeleteProduct removes a product and, via FK cascade, its kiosk
// assignments.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadScopedProduct(w, r)
	if !ok {
		return
	}

	if err := s.productRepo.Delete(r.Context(), p.ID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeNotFound(w, "product not found")
			return
		}
		s.logger.Error("delete product failed", "product_id", p.ID, "error", err)
		writeInternalError(w, "failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": p.ID})
}

// handleListKioskProducts returns the active products assigned to a
// kiosk-mode device, in display order. This is what the kiosk renders.
func (s *Server) handleListKioskProducts(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	products, err := s.productRepo.ListForDevice(r.Context(), dev.ID)
	if err != nil {
		s.logger.Error("list kiosk products failed", "device_id", dev.ID, "error", err)
		writeInternalError(w, "failed to list kiosk products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

// assignProductRequest is the body for POST /devices/{id}/products.
type assignProductRequest struct {
	ProductID string `json:"product_id"`
}

// handleAssignProduct appends a product to the end of a kiosk's display
// order.
func (s *Server) handleAssignProduct(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	var req assignProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		writeBadRequest(w, "product_id is required")
		return
	}

	assignment, err := s.productRepo.Assign(r.Context(), dev.ID, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrAlreadyAssigned) {
			writeConflict(w, "product already assigned to device")
			return
		}
		s.logger.Error("assign product failed", "device_id", dev.ID, "product_id", req.ProductID, "error", err)
		writeInternalError(w, "failed to assign product")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(dev.MasjidID, EventReload, map[string]string{"device_id": dev.ID})
	}

	writeJSON(w, http.StatusCreated, assignment)
}

// handleUnassignProduct removes a product from a kiosk.
func (s *Server) handleUnassignProduct(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")
	if err := s.productRepo.Unassign(r.Context(), dev.ID, productID); err != nil {
		if errors.Is(err, product.ErrAssignmentNotFound) {
			writeNotFound(w, "assignment not found")
			return
		}
		s.logger.Error("unassign product failed", "device_id", dev.ID, "product_id", productID, "error", err)
		writeInternalError(w, "failed to unassign product")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(dev.MasjidID, EventReload, map[string]string{"device_id": dev.ID})
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unassigned", "product_id": productID})
}

// reorderProductsRequest is the body for PUT /devices/{id}/products/order.
type reorderProductsRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// handleReorderProducts rewrites a kiosk's display order in one
// transaction so readers never see a half-applied ordering.
func (s *Server) handleReorderProducts(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.loadScopedDevice(w, r)
	if !ok {
		return
	}

	var req reorderProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.ProductIDs) == 0 {
		writeBadRequest(w, "product_ids is required")
		return
	}

	if err := s.productRepo.Reorder(r.Context(), dev.ID, req.ProductIDs); err != nil {
		s.logger.Error("reorder products failed", "device_id", dev.ID, "error", err)
		writeInternalError(w, "failed to reorder products")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(dev.MasjidID, EventReload, map[string]string{"device_id": dev.ID})
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "reordered", "product_ids": req.ProductIDs})
}

// loadScopedProduct fetches a product from the URL and enforces tenant
// access. Writes the error response and returns false on failure.
func (s *Server) loadScopedProduct(w http.ResponseWriter, r *http.Request) (*product.Product, bool) {
	id := chi.URLParam(r, "id")

	p, err := s.productRepo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeNotFound(w, "product not found")
			return nil, false
		}
		s.logger.Error("get product failed", "product_id", id, "error", err)
		writeInternalError(w, "failed to get product")
		return nil, false
	}

	if claims := claimsFromContext(r.Context()); claims != nil && !canAccessMasjid(claims, p.MasjidID) {
		writeForbidden(w, "product belongs to another masjid")
		return nil, false
	}

	return p, true
}

// isProductValidationError maps product sentinel errors to 400.
func isProductValidationError(err error) bool {
	return errors.Is(err, product.ErrMasjidRequired) ||
		errors.Is(err, product.ErrInvalidName) ||
		errors.Is(err, product.ErrInvalidPrice)
}
