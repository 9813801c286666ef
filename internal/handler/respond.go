package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/merxio/marketplace/internal/domain/catalog"
	"github.com/merxio/marketplace/internal/domain/coupon"
	"github.com/merxio/marketplace/internal/domain/order"
	"github.com/merxio/marketplace/internal/domain/user"
)

// errorResponse is the uniform error body: {"code": 404, "message": "..."}.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondErrorMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondError maps a domain error to an HTTP status. Errors with no
// mapping are logged and reported as an opaque 500.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	if status, message, ok := classifyError(err); ok {
		respondErrorMessage(w, status, message)
		return
	}

	zctx.From(ctx).Error("request failed", zap.Error(err))
	respondErrorMessage(w, http.StatusInternalServerError, "internal error")
}

// classifyError translates the domain error taxonomy into a status and a
// client-safe message. Not-found errors map to 404, rejected operations to
// 422, conflicts to 409.
func classifyError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrSaleNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, err.Error(), true

	case errors.Is(err, order.ErrEmptyItems):
		return http.StatusBadRequest, err.Error(), true

	case errors.Is(err, coupon.ErrNotActive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrRedeemedOut),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, order.ErrOwnerNotFound):
		return http.StatusUnprocessableEntity, err.Error(), true

	case errors.Is(err, coupon.ErrCodeTaken):
		return http.StatusConflict, err.Error(), true
	}

	var (
		notFound   *order.ProductNotFoundError
		invalidQty *order.InvalidQuantityError
		outOfStock *order.OutOfStockError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusUnprocessableEntity, notFound.Error(), true
	case errors.As(err, &invalidQty):
		return http.StatusUnprocessableEntity, invalidQty.Error(), true
	case errors.As(err, &outOfStock):
		return http.StatusUnprocessableEntity, outOfStock.Error(), true
	}

	return 0, "", false
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
