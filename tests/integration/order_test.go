//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"strconv"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// price parses a decimal price field (marshalled as a quoted string).
func price(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse price %q: %v", s, err)
	}
	return v
}

func addressIndex(i int) *int { return &i }

func TestPlaceOrder_NoAuth(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{{ProductID: "p-keyboard", Quantity: 1}},
		AddressIndex: addressIndex(0),
	}
	resp := doPost(t, "/api/v1/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidKey(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{{ProductID: "p-keyboard", Quantity: 1}},
		AddressIndex: addressIndex(0),
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{},
		AddressIndex: addressIndex(0),
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_MissingAddress(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "p-keyboard", Quantity: 1}},
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{{ProductID: "p-nonexistent", Quantity: 1}},
		AddressIndex: addressIndex(0),
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_OwnProduct(t *testing.T) {
	req := orderRequest{
		Items:       []orderItemRequest{{ProductID: "p-keyboard", Quantity: 1}},
		ShipAddress: &testShipAddress,
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, aliceKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_OutOfStock(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{{ProductID: "p-keyboard", Quantity: 999}},
		AddressIndex: addressIndex(0),
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownCoupon(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{{ProductID: "p-keyboard", Quantity: 1}},
		CouponCode:   "NONEXISTENT",
		AddressIndex: addressIndex(0),
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{
			{ProductID: "p-keyboard", Quantity: 2}, // 2x 79.90
			{ProductID: "p-novel", Quantity: 1},    // 12.50 with 20% product discount
		},
		AddressIndex: addressIndex(0),
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	result := decodeJSON[placeOrderResponse](t, resp)

	if !uuidPattern.MatchString(result.Order.ID) {
		t.Errorf("order ID %q is not a valid UUID", result.Order.ID)
	}
	if result.Order.OwnerID != "u-bob" {
		t.Errorf("order owner: got %q, want %q", result.Order.OwnerID, "u-bob")
	}
	if len(result.Order.Details) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(result.Order.Details))
	}
	if result.Order.ShipAddress.City != "Porto" {
		t.Errorf("ship address city: got %q, want %q", result.Order.ShipAddress.City, "Porto")
	}

	// Both products belong to the same supplier, so exactly one sale.
	if len(result.Sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(result.Sales))
	}
	sale := result.Sales[0]
	if sale.OwnerID != "u-alice" {
		t.Errorf("sale owner: got %q, want %q", sale.OwnerID, "u-alice")
	}
	if sale.CustomerID != "u-bob" {
		t.Errorf("sale customer: got %q, want %q", sale.CustomerID, "u-bob")
	}
	if sale.Status != "pending" {
		t.Errorf("sale status: got %q, want %q", sale.Status, "pending")
	}
	if sale.OrderID != result.Order.ID {
		t.Errorf("sale order ID: got %q, want %q", sale.OrderID, result.Order.ID)
	}
	if len(sale.Details) != 2 {
		t.Errorf("expected 2 sale line items, got %d", len(sale.Details))
	}

	// The novel carries a 20% product discount: 12.50 -> 10.00.
	for _, item := range result.Order.Details {
		if item.Product.ID != "p-novel" {
			continue
		}
		if got := price(t, item.UnitPrice); got != 10.0 {
			t.Errorf("novel unit price: got %v, want 10", got)
		}
	}

	// Stock was decremented within the same transaction.
	prodResp := doGet(t, "/api/v1/products/p-novel")
	defer prodResp.Body.Close()
	p := decodeJSON[productResponse](t, prodResp)
	if p.Stock != 2 {
		t.Errorf("novel stock after order: got %d, want 2", p.Stock)
	}
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	req := orderRequest{
		Items:        []orderItemRequest{{ProductID: "p-keyboard", Quantity: 1}},
		CouponCode:   "WELCOME10",
		AddressIndex: addressIndex(0),
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	result := decodeJSON[placeOrderResponse](t, resp)
	if result.Order.CouponCode != "WELCOME10" {
		t.Errorf("coupon code: got %q, want %q", result.Order.CouponCode, "WELCOME10")
	}
	if result.Order.CouponDiscount != 10 {
		t.Errorf("coupon discount: got %d, want 10", result.Order.CouponDiscount)
	}
	if len(result.Order.Details) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(result.Order.Details))
	}
	// 79.90 with 10% off = 71.91.
	if got := price(t, result.Order.Details[0].UnitPrice); got != 71.91 {
		t.Errorf("unit price after coupon: got %v, want 71.91", got)
	}
}

func TestPlaceOrder_ClearsCart(t *testing.T) {
	cartResp := doPostWithAuth(t, "/api/v1/cart/items",
		map[string]any{"productId": "p-novel", "quantity": 1}, bobKey)
	cartResp.Body.Close()
	if cartResp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", cartResp.StatusCode)
	}

	req := orderRequest{
		Items:       []orderItemRequest{{ProductID: "p-keyboard", Quantity: 1}},
		ShipAddress: &testShipAddress,
	}
	resp := doPostWithAuth(t, "/api/v1/orders", req, bobKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}

	getResp := doGetWithAuth(t, "/api/v1/cart", bobKey)
	defer getResp.Body.Close()
	items := decodeJSON[[]cartItem](t, getResp)
	if len(items) != 0 {
		t.Errorf("cart after order: got %d items, want 0", len(items))
	}
}

var testShipAddress = addressPayload{
	Name:         "office",
	ContactName:  "Integration Test",
	ContactPhone: "+351000000099",
	Address:      "Praca do Comercio 1",
	City:         "Lisbon",
	Region:       "Lisboa",
	Country:      "PT",
	PostalCode:   "1100-148",
}
