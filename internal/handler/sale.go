package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/merxio/marketplace/internal/domain/order"
)

type saleStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	sales, err := h.sales.ListByOwner(r.Context(), id.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := make([]saleResponse, len(sales))
	for i, s := range sales {
		resp[i] = toSaleResponse(s)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	s, err := h.sales.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if s.OwnerID != id.UserID && s.CustomerID != id.UserID && !id.IsAdmin() {
		respondErrorMessage(w, http.StatusForbidden, "not a party to the sale")
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(*s))
}

// updateSaleStatus overwrites the sale's fulfillment status. Any known
// status is accepted regardless of the current one.
func (h *Handler) updateSaleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req saleStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := order.SaleStatus(req.Status)
	if !order.ValidSaleStatus(status) {
		respondErrorMessage(w, http.StatusBadRequest, "unknown sale status")
		return
	}

	existing, err := h.sales.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if existing.OwnerID != id.UserID && !id.IsAdmin() {
		respondErrorMessage(w, http.StatusForbidden, "not the sale owner")
		return
	}

	updated, err := h.sales.UpdateStatus(r.Context(), existing.ID, status)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(*updated))
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if err := h.sales.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
