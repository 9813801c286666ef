//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/v1/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) < 2 {
		t.Fatalf("expected at least 2 products, got %d", len(products))
	}

	byID := make(map[string]productResponse, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	if _, ok := byID["p-keyboard"]; !ok {
		t.Error("seeded product p-keyboard not in list")
	}
	if novel, ok := byID["p-novel"]; !ok {
		t.Error("seeded product p-novel not in list")
	} else {
		if novel.Discount != 20 {
			t.Errorf("novel discount: got %d, want 20", novel.Discount)
		}
		if novel.Condition != "used_good" {
			t.Errorf("novel condition: got %q, want %q", novel.Condition, "used_good")
		}
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/v1/products/p-keyboard")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	p := decodeJSON[productResponse](t, resp)
	if p.Name != "Mechanical Keyboard" {
		t.Errorf("name: got %q, want %q", p.Name, "Mechanical Keyboard")
	}
	if p.OwnerID != "u-alice" {
		t.Errorf("owner: got %q, want %q", p.OwnerID, "u-alice")
	}
	if p.Status != "available" {
		t.Errorf("status: got %q, want %q", p.Status, "available")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/v1/products/p-nonexistent")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("error message is empty")
	}
}

func TestCreateProduct_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/v1/products", map[string]any{
		"name": "Unauthorized Gadget", "stock": 1, "price": "1.00",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateProduct_OwnerLifecycle(t *testing.T) {
	body := map[string]any{
		"name":        "USB Microphone",
		"description": "Cardioid condenser",
		"stock":       5,
		"price":       "49.90",
		"categoryId":  "c-electronics",
	}
	resp := doPostWithAuth(t, "/api/v1/products", body, aliceKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	created := decodeJSON[productResponse](t, resp)
	if !uuidPattern.MatchString(created.ID) {
		t.Errorf("product ID %q is not a valid UUID", created.ID)
	}
	if created.OwnerID != "u-alice" {
		t.Errorf("owner: got %q, want %q", created.OwnerID, "u-alice")
	}
	if created.Status != "available" {
		t.Errorf("default status: got %q, want %q", created.Status, "available")
	}
	if created.Condition != "new" {
		t.Errorf("default condition: got %q, want %q", created.Condition, "new")
	}

	// Only the owner (or an admin) may delete it.
	delResp := do(t, http.MethodDelete, "/api/v1/products/"+created.ID, nil, bobKey)
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete by stranger: expected 403, got %d", delResp.StatusCode)
	}

	delResp = do(t, http.MethodDelete, "/api/v1/products/"+created.ID, nil, aliceKey)
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete by owner: expected 204, got %d", delResp.StatusCode)
	}
}

func TestListCategories(t *testing.T) {
	resp := doGet(t, "/api/v1/categories")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	categories := decodeJSON[[]struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}](t, resp)
	if len(categories) < 2 {
		t.Fatalf("expected at least 2 categories, got %d", len(categories))
	}
}

func TestListCoupons_AdminOnly(t *testing.T) {
	resp := doGetWithAuth(t, "/api/v1/coupons", bobKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("list as user: expected 403, got %d", resp.StatusCode)
	}

	resp = doGetWithAuth(t, "/api/v1/coupons", adminKey)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list as admin: expected 200, got %d", resp.StatusCode)
	}
}
