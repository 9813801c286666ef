package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/merxio/marketplace/internal/domain/user"
)

type userResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	FullName  string          `json:"fullName,omitempty"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone,omitempty"`
	Role      string          `json:"role"`
	Addresses []user.Address  `json:"addresses"`
	Cart      []user.CartItem `json:"cart"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toUserResponse(u user.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Addresses: u.Addresses,
		Cart:      u.Cart,
		CreatedAt: u.CreatedAt,
	}
	if resp.Addresses == nil {
		resp.Addresses = []user.Address{}
	}
	if resp.Cart == nil {
		resp.Cart = []user.CartItem{}
	}
	return resp
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(*u))
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var addr user.Address
	if err := decodeJSON(r, &addr); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	addresses := append(u.Addresses, addr)
	if err := h.users.UpdateAddresses(r.Context(), id.UserID, addresses); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, addresses)
}

// updateAddress replaces one address-book entry, addressed by its index.
func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var addr user.Address
	if err := decodeJSON(r, &addr); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	index, ok := addressIndex(w, r, len(u.Addresses))
	if !ok {
		return
	}

	u.Addresses[index] = addr
	if err := h.users.UpdateAddresses(r.Context(), id.UserID, u.Addresses); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, u.Addresses)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	index, ok := addressIndex(w, r, len(u.Addresses))
	if !ok {
		return
	}

	addresses := append(u.Addresses[:index], u.Addresses[index+1:]...)
	if err := h.users.UpdateAddresses(r.Context(), id.UserID, addresses); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, addresses)
}

// addressIndex parses the {index} route parameter and bounds-checks it
// against the address book size.
func addressIndex(w http.ResponseWriter, r *http.Request, size int) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondErrorMessage(w, http.StatusBadRequest, "invalid address index")
		return 0, false
	}
	if index >= size {
		respondErrorMessage(w, http.StatusNotFound, "address not found")
		return 0, false
	}
	return index, true
}
