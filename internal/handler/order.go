package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/merxio/marketplace/internal/domain/catalog"
	"github.com/merxio/marketplace/internal/domain/order"
	"github.com/merxio/marketplace/internal/domain/user"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// placeOrderRequest is the payload for placing an order. The ship address
// is given either inline or as an index into the caller's address book.
type placeOrderRequest struct {
	Items        []orderItemRequest `json:"items"`
	CouponCode   string             `json:"couponCode"`
	ShipAddress  *user.Address      `json:"shipAddress"`
	AddressIndex *int               `json:"addressIndex"`
}

type orderResponse struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"ownerId"`
	OrderDate      time.Time        `json:"orderDate"`
	ShippedDate    *time.Time       `json:"shippedDate,omitempty"`
	ShipAddress    user.Address     `json:"shipAddress"`
	Details        []order.LineItem `json:"details"`
	CouponCode     string           `json:"couponCode,omitempty"`
	CouponDiscount int              `json:"couponDiscount,omitempty"`
}

type saleResponse struct {
	ID          string           `json:"id"`
	OrderID     string           `json:"orderId"`
	OrderDate   time.Time        `json:"orderDate"`
	Details     []order.LineItem `json:"details"`
	CustomerID  string           `json:"customerId"`
	ShipAddress user.Address     `json:"shipAddress"`
	Status      string           `json:"status"`
	OwnerID     string           `json:"ownerId"`
}

type placeOrderResponse struct {
	Order orderResponse  `json:"order"`
	Sales []saleResponse `json:"sales"`
}

func toOrderResponse(o order.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		OwnerID:        o.OwnerID,
		OrderDate:      o.OrderDate,
		ShippedDate:    o.ShippedDate,
		ShipAddress:    o.ShipAddress,
		Details:        o.Details,
		CouponCode:     o.CouponCode,
		CouponDiscount: o.CouponDiscount,
	}
}

func toSaleResponse(s order.Sale) saleResponse {
	return saleResponse{
		ID:          s.ID,
		OrderID:     s.OrderID,
		OrderDate:   s.OrderDate,
		Details:     s.Details,
		CustomerID:  s.CustomerID,
		ShipAddress: s.ShipAddress,
		Status:      string(s.Status),
		OwnerID:     s.OwnerID,
	}
}

var hundred = decimal.NewFromInt(100)

// placeOrder runs the order workflow for the authenticated caller: the
// line items are priced from the catalog (product discounts applied), the
// ship address resolved, and the rest delegated to the order service.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		respondErrorMessage(w, http.StatusBadRequest, order.ErrEmptyItems.Error())
		return
	}

	addr, ok := h.resolveShipAddress(w, r, id.UserID, req)
	if !ok {
		return
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}
	products, err := h.products.GetByIDs(r.Context(), ids)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	productMap := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	items := make([]order.ItemInput, len(req.Items))
	for i, item := range req.Items {
		p, found := productMap[item.ProductID]
		if !found {
			respondError(r.Context(), w, &order.ProductNotFoundError{ProductID: item.ProductID})
			return
		}
		if p.OwnerID == id.UserID {
			respondErrorMessage(w, http.StatusUnprocessableEntity, "cannot buy your own product")
			return
		}
		items[i] = order.ItemInput{
			ProductID: item.ProductID,
			UnitPrice: effectiveUnitPrice(p),
			Quantity:  item.Quantity,
			Discount:  p.Discount,
		}
	}

	result, err := h.placer.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		OwnerID:     id.UserID,
		ShipAddress: addr,
		Items:       items,
		CouponCode:  req.CouponCode,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := placeOrderResponse{Order: toOrderResponse(*result.Order)}
	resp.Sales = make([]saleResponse, len(result.Sales))
	for i, s := range result.Sales {
		resp.Sales[i] = toSaleResponse(s)
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListByOwner(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if o.OwnerID != id.UserID && !id.IsAdmin() {
		respondErrorMessage(w, http.StatusForbidden, "not the order owner")
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(*o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveShipAddress picks the inline address when present, otherwise the
// indexed entry of the caller's address book.
func (h *Handler) resolveShipAddress(w http.ResponseWriter, r *http.Request, userID string, req placeOrderRequest) (user.Address, bool) {
	if req.ShipAddress != nil {
		return *req.ShipAddress, true
	}
	if req.AddressIndex == nil {
		respondErrorMessage(w, http.StatusBadRequest, "shipAddress or addressIndex required")
		return user.Address{}, false
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(r.Context(), w, err)
		return user.Address{}, false
	}
	index := *req.AddressIndex
	if index < 0 || index >= len(u.Addresses) {
		respondErrorMessage(w, http.StatusBadRequest, "address index out of range")
		return user.Address{}, false
	}
	return u.Addresses[index], true
}

// effectiveUnitPrice is the catalog price with the product's own discount
// applied, before any coupon.
func effectiveUnitPrice(p catalog.Product) decimal.Decimal {
	if p.Discount == 0 {
		return p.Price
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(p.Discount))).Div(hundred)
	return p.Price.Mul(factor)
}
