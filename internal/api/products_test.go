package api

import (
	"net/http"
	"testing"

	"github.com/XolifyDev/mizan-core/internal/product"
)

func createProduct(t *testing.T, env *testEnv, token, name string, priceCents int64) product.Product {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{
		"name":        name,
		"price_cents": priceCents,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product failed: %d %s", rec.Code, rec.Body.String())
	}

	var p product.Product
	decodeBody(t, rec, &p)
	return p
}

func TestCreateProduct(t *testing.T) {
	env := newTestServer(t)

	// Zero price is a valid open-amount item.
	p := createProduct(t, env, env.staff, "General donation", 0)
	if p.ID == "" || p.MasjidID != masjidAlnoor {
		t.Fatalf("unexpected product: %+v", p)
	}
	if !p.Active {
		t.Error("expected new product to default active")
	}

	// Negative prices are not.
	rec := env.do(t, http.MethodPost, "/api/v1/products", env.staff, map[string]any{
		"name":        "Refund",
		"price_cents": -100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative price, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/products", env.staff, map[string]any{
		"name": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", rec.Code)
	}
}

func TestKioskAssignmentLifecycle(t *testing.T) {
	env := newTestServer(t)

	registerDevice(t, env, "dev-kiosk", masjidAlnoor, "Lobby kiosk")

	zakat := createProduct(t, env, env.staff, "Zakat", 0)
	brick := createProduct(t, env, env.staff, "Buy a brick", 5000)
	iftar := createProduct(t, env, env.staff, "Sponsor an iftar", 15000)

	assign := func(productID string) *product.KioskAssignment {
		rec := env.do(t, http.MethodPost, "/api/v1/devices/dev-kiosk/products", env.staff, map[string]any{
			"product_id": productID,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("assign failed: %d %s", rec.Code, rec.Body.String())
		}
		var a product.KioskAssignment
		decodeBody(t, rec, &a)
		return &a
	}

	a1 := assign(zakat.ID)
	a2 := assign(brick.ID)
	assign(iftar.ID)
	if a2.SortOrder <= a1.SortOrder {
		t.Errorf("expected assignments to append at the end: %d then %d", a1.SortOrder, a2.SortOrder)
	}

	// Double assignment conflicts.
	rec := env.do(t, http.MethodPost, "/api/v1/devices/dev-kiosk/products", env.staff, map[string]any{
		"product_id": zakat.ID,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate assignment, got %d", rec.Code)
	}

	// The kiosk fetches its catalogue without credentials, in order.
	var catalogue struct {
		Products []product.Product `json:"products"`
		Count    int               `json:"count"`
	}
	rec = env.do(t, http.MethodGet, "/api/v1/devices/dev-kiosk/products", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from kiosk catalogue, got %d", rec.Code)
	}
	decodeBody(t, rec, &catalogue)
	if catalogue.Count != 3 {
		t.Fatalf("expected 3 products on kiosk, got %d", catalogue.Count)
	}
	if catalogue.Products[0].ID != zakat.ID {
		t.Errorf("expected zakat first, got %s", catalogue.Products[0].Name)
	}

	// Reorder flips the display order.
	rec = env.do(t, http.MethodPut, "/api/v1/devices/dev-kiosk/products/order", env.staff, map[string]any{
		"product_ids": []string{iftar.ID, brick.ID, zakat.ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices/dev-kiosk/products", "", nil)
	decodeBody(t, rec, &catalogue)
	if catalogue.Products[0].ID != iftar.ID || catalogue.Products[2].ID != zakat.ID {
		t.Errorf("expected reordered catalogue, got %v", catalogueNames(catalogue.Products))
	}

	// Unassign removes exactly one product.
	rec = env.do(t, http.MethodDelete, "/api/v1/devices/dev-kiosk/products/"+brick.ID, env.staff, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unassign failed: %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/devices/dev-kiosk/products/"+brick.ID, env.staff, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 unassigning twice, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices/dev-kiosk/products", "", nil)
	decodeBody(t, rec, &catalogue)
	if catalogue.Count != 2 {
		t.Errorf("expected 2 products after unassign, got %d", catalogue.Count)
	}
}

func TestInactiveProductsLeaveKiosk(t *testing.T) {
	env := newTestServer(t)

	registerDevice(t, env, "dev-kiosk", masjidAlnoor, "Lobby kiosk")
	p := createProduct(t, env, env.staff, "Seasonal appeal", 2500)

	rec := env.do(t, http.MethodPost, "/api/v1/devices/dev-kiosk/products", env.staff, map[string]any{
		"product_id": p.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("assign failed: %d", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/products/"+p.ID, env.staff, map[string]any{
		"active": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate failed: %d %s", rec.Code, rec.Body.String())
	}

	// The assignment survives but the kiosk no longer offers the item.
	var catalogue struct {
		Count int `json:"count"`
	}
	rec = env.do(t, http.MethodGet, "/api/v1/devices/dev-kiosk/products", "", nil)
	decodeBody(t, rec, &catalogue)
	if catalogue.Count != 0 {
		t.Errorf("expected deactivated product to leave the kiosk, got %d items", catalogue.Count)
	}
}

func catalogueNames(products []product.Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}
