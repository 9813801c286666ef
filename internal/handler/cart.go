package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/merxio/marketplace/internal/domain/user"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if u.Cart == nil {
		u.Cart = []user.CartItem{}
	}
	respondJSON(w, http.StatusOK, u.Cart)
}

// addCartItem puts a product into the caller's cart, merging quantities
// when the product is already there. A user cannot add their own product.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondErrorMessage(w, http.StatusBadRequest, "productId required")
		return
	}
	if req.Quantity <= 0 {
		respondErrorMessage(w, http.StatusBadRequest, "quantity must be greater than 0")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if p.OwnerID == id.UserID {
		respondErrorMessage(w, http.StatusUnprocessableEntity, "cannot add your own product to the cart")
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	cart := user.MergeCartItem(u.Cart, user.CartItem{ProductID: req.ProductID, Quantity: req.Quantity})
	if err := h.users.UpdateCart(r.Context(), id.UserID, cart); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// updateCartItem overwrites the quantity of one cart line.
func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req cartQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		respondErrorMessage(w, http.StatusBadRequest, "quantity must be greater than 0")
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	productID := chi.URLParam(r, "productID")
	found := false
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart[i].Quantity = req.Quantity
			found = true
			break
		}
	}
	if !found {
		respondErrorMessage(w, http.StatusNotFound, "product not in cart")
		return
	}

	if err := h.users.UpdateCart(r.Context(), id.UserID, u.Cart); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, u.Cart)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	productID := chi.URLParam(r, "productID")
	cart := make([]user.CartItem, 0, len(u.Cart))
	for _, item := range u.Cart {
		if item.ProductID != productID {
			cart = append(cart, item)
		}
	}
	if len(cart) == len(u.Cart) {
		respondErrorMessage(w, http.StatusNotFound, "product not in cart")
		return
	}

	if err := h.users.UpdateCart(r.Context(), id.UserID, cart); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.users.ClearCart(r.Context(), id.UserID); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
