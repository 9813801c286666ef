package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/merxio/marketplace/internal/domain/coupon"
	"github.com/merxio/marketplace/internal/domain/user"
)

type couponRequest struct {
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	ExpirationDate    *time.Time `json:"expirationDate"`
	Limit             int        `json:"limit"`
	Discount          int        `json:"discount"`
	ValidCategories   []string   `json:"validCategories"`
	InvalidCategories []string   `json:"invalidCategories"`
	IsPublic          bool       `json:"isPublic"`
	OwnerOnly         bool       `json:"ownerOnly"`
	OwnerID           string     `json:"ownerId"`
}

type couponResponse struct {
	Code              string     `json:"code"`
	Description       string     `json:"description,omitempty"`
	ExpirationDate    *time.Time `json:"expirationDate,omitempty"`
	Limit             int        `json:"limit"`
	Discount          int        `json:"discount"`
	Status            string     `json:"status"`
	ValidCategories   []string   `json:"validCategories,omitempty"`
	InvalidCategories []string   `json:"invalidCategories,omitempty"`
	IsPublic          bool       `json:"isPublic"`
	OwnerOnly         bool       `json:"ownerOnly"`
	OwnerID           string     `json:"ownerId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{
		Code:              c.Code,
		Description:       c.Description,
		ExpirationDate:    c.ExpirationDate,
		Limit:             c.Limit,
		Discount:          c.Discount,
		Status:            string(c.Status),
		ValidCategories:   c.ValidCategories,
		InvalidCategories: c.InvalidCategories,
		IsPublic:          c.IsPublic,
		OwnerOnly:         c.OwnerOnly,
		OwnerID:           c.OwnerID,
		CreatedAt:         c.CreatedAt,
	}
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = toCouponResponse(c)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCouponResponse(*c))
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		respondErrorMessage(w, http.StatusBadRequest, "code required")
		return
	}
	if req.Limit < 0 {
		respondErrorMessage(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	if req.Discount < 0 || req.Discount > 100 {
		respondErrorMessage(w, http.StatusBadRequest, "discount must be between 0 and 100")
		return
	}

	// The coupon owner must be an existing user.
	if req.OwnerID != "" {
		if _, err := h.users.GetByID(r.Context(), req.OwnerID); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				respondErrorMessage(w, http.StatusUnprocessableEntity, "coupon owner not found")
				return
			}
			respondError(r.Context(), w, err)
			return
		}
	}

	c := &coupon.Coupon{
		Code:              req.Code,
		Description:       req.Description,
		ExpirationDate:    req.ExpirationDate,
		Limit:             req.Limit,
		Discount:          req.Discount,
		Status:            coupon.StatusActive,
		ValidCategories:   req.ValidCategories,
		InvalidCategories: req.InvalidCategories,
		IsPublic:          req.IsPublic,
		OwnerOnly:         req.OwnerOnly,
		OwnerID:           req.OwnerID,
	}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCouponResponse(*c))
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	existing, err := h.coupons.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit < 0 {
		respondErrorMessage(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	if req.Discount < 0 || req.Discount > 100 {
		respondErrorMessage(w, http.StatusBadRequest, "discount must be between 0 and 100")
		return
	}

	existing.Description = req.Description
	existing.ExpirationDate = req.ExpirationDate
	existing.Limit = req.Limit
	existing.Discount = req.Discount
	existing.ValidCategories = req.ValidCategories
	existing.InvalidCategories = req.InvalidCategories
	existing.IsPublic = req.IsPublic
	existing.OwnerOnly = req.OwnerOnly

	if err := h.coupons.Update(r.Context(), existing); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCouponResponse(*existing))
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// redeemCoupon validates and consumes one redemption of the coupon. The
// same redeemer backs order placement, so both paths share one set of
// validation rules.
func (h *Handler) redeemCoupon(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity(w, r); !ok {
		return
	}

	c, err := h.redeemer.Redeem(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCouponResponse(*c))
}
