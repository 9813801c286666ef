package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merxio/marketplace/internal/domain/catalog"
)

// productRequest is the payload for creating or updating a product.
type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Images      string          `json:"images"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	Status      string          `json:"status"`
	Condition   string          `json:"condition"`
	CategoryID  string          `json:"categoryId"`
}

type productResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Images      string          `json:"images,omitempty"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount,omitempty"`
	Status      string          `json:"status"`
	Condition   string          `json:"condition"`
	CategoryID  string          `json:"categoryId,omitempty"`
	OwnerID     string          `json:"ownerId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
		Stock:       p.Stock,
		Price:       p.Price,
		Discount:    p.Discount,
		Status:      string(p.Status),
		Condition:   string(p.Condition),
		CategoryID:  p.CategoryID,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.ListFilter{
		CategoryID: q.Get("category"),
		OwnerID:    q.Get("owner"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, ok := productFromRequest(w, req)
	if !ok {
		return
	}
	p.ID = uuid.New().String()
	p.OwnerID = id.UserID

	if err := h.products.Create(r.Context(), p); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProductResponse(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	existing, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if existing.OwnerID != id.UserID && !id.IsAdmin() {
		respondErrorMessage(w, http.StatusForbidden, "not the product owner")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, ok := productFromRequest(w, req)
	if !ok {
		return
	}
	p.ID = existing.ID
	p.OwnerID = existing.OwnerID

	if err := h.products.Update(r.Context(), p); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	existing, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if existing.OwnerID != id.UserID && !id.IsAdmin() {
		respondErrorMessage(w, http.StatusForbidden, "not the product owner")
		return
	}

	if err := h.products.Delete(r.Context(), existing.ID); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// productFromRequest validates the payload and builds a catalog.Product.
// Status and condition default to available/new when omitted.
func productFromRequest(w http.ResponseWriter, req productRequest) (*catalog.Product, bool) {
	if req.Name == "" {
		respondErrorMessage(w, http.StatusBadRequest, "name required")
		return nil, false
	}
	if req.Stock < 0 {
		respondErrorMessage(w, http.StatusBadRequest, "stock must not be negative")
		return nil, false
	}
	if req.Price.IsNegative() {
		respondErrorMessage(w, http.StatusBadRequest, "price must not be negative")
		return nil, false
	}
	if req.Discount < 0 || req.Discount > 100 {
		respondErrorMessage(w, http.StatusBadRequest, "discount must be between 0 and 100")
		return nil, false
	}

	status := catalog.Status(req.Status)
	if req.Status == "" {
		status = catalog.StatusAvailable
	} else if !catalog.ValidStatus(status) {
		respondErrorMessage(w, http.StatusBadRequest, "unknown product status")
		return nil, false
	}

	condition := catalog.Condition(req.Condition)
	if req.Condition == "" {
		condition = catalog.ConditionNew
	} else if !catalog.ValidCondition(condition) {
		respondErrorMessage(w, http.StatusBadRequest, "unknown product condition")
		return nil, false
	}

	return &catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
		Stock:       req.Stock,
		Price:       req.Price,
		Discount:    req.Discount,
		Status:      status,
		Condition:   condition,
		CategoryID:  req.CategoryID,
	}, true
}
