// Package handler exposes the marketplace over a JSON HTTP API. Handlers
// perform decoding, authorization by ownership, and error mapping; all
// business rules live in the domain packages.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/merxio/marketplace/internal/domain/catalog"
	"github.com/merxio/marketplace/internal/domain/coupon"
	"github.com/merxio/marketplace/internal/domain/order"
	"github.com/merxio/marketplace/internal/domain/user"
)

// Handler holds the domain dependencies behind the HTTP surface.
type Handler struct {
	products   catalog.Repository
	categories catalog.CategoryRepository
	coupons    coupon.Repository
	redeemer   *coupon.Redeemer
	orders     order.Repository
	sales      order.SaleRepository
	users      user.Repository
	placer     *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	categories catalog.CategoryRepository,
	coupons coupon.Repository,
	orders order.Repository,
	sales order.SaleRepository,
	users user.Repository,
	placer *order.Service,
) *Handler {
	return &Handler{
		products:   products,
		categories: categories,
		coupons:    coupons,
		redeemer:   coupon.NewRedeemer(coupons),
		orders:     orders,
		sales:      sales,
		users:      users,
		placer:     placer,
	}
}

// Routes builds the API route tree. Catalog reads are public; everything
// else runs behind the given authentication middleware.
func (h *Handler) Routes(auth func(next http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}", h.getCategory)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)

		r.Post("/categories", h.createCategory)
		r.Delete("/categories/{id}", h.deleteCategory)

		r.Get("/coupons", h.listCoupons)
		r.Post("/coupons", h.createCoupon)
		r.Get("/coupons/{code}", h.getCoupon)
		r.Put("/coupons/{code}", h.updateCoupon)
		r.Delete("/coupons/{code}", h.deleteCoupon)
		r.Post("/coupons/{code}/redeem", h.redeemCoupon)

		r.Get("/me", h.getMe)

		r.Get("/cart", h.getCart)
		r.Post("/cart/items", h.addCartItem)
		r.Put("/cart/items/{productID}", h.updateCartItem)
		r.Delete("/cart/items/{productID}", h.removeCartItem)
		r.Delete("/cart", h.clearCart)

		r.Post("/addresses", h.addAddress)
		r.Put("/addresses/{index}", h.updateAddress)
		r.Delete("/addresses/{index}", h.deleteAddress)

		r.Post("/orders", h.placeOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Delete("/orders/{id}", h.deleteOrder)

		r.Get("/sales", h.listSales)
		r.Get("/sales/{id}", h.getSale)
		r.Patch("/sales/{id}/status", h.updateSaleStatus)
		r.Delete("/sales/{id}", h.deleteSale)
	})

	return r
}
