package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merxio/marketplace/internal/domain/catalog"
	"github.com/merxio/marketplace/internal/domain/coupon"
	"github.com/merxio/marketplace/internal/domain/user"
)

// Sentinel errors for order placement.
var (
	ErrEmptyItems    = errors.New("order must contain at least one item")
	ErrOwnerNotFound = errors.New("order owner not found")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// OutOfStockError indicates a product's stock does not cover the requested
// quantity.
type OutOfStockError struct {
	ProductID string
	Name      string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.Name)
}

// Stores groups the repositories taking part in the mutating half of order
// placement. A TxRunner hands out instances bound to one transaction.
type Stores struct {
	Orders   Repository
	Sales    SaleRepository
	Products catalog.Repository
	Coupons  coupon.Repository
	Users    user.Repository
}

// TxRunner executes fn within a single database transaction. When fn
// returns an error the transaction is rolled back and the error is
// returned unchanged.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// ItemInput is one requested line item: the product, the quantity, and the
// unit price the buyer saw, before any coupon discount.
type ItemInput struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
	Discount  int
}

// PlaceOrderRequest holds the input for placing an order. The caller
// identity in OwnerID is pre-authenticated by the API layer.
type PlaceOrderRequest struct {
	OwnerID     string
	ShipAddress user.Address
	Items       []ItemInput
	CouponCode  string
}

// PlaceOrderResult holds the persisted order and the per-supplier sales
// generated from it.
type PlaceOrderResult struct {
	Order *Order
	Sales []Sale
}

// Service orchestrates order placement.
type Service struct {
	tx       TxRunner
	products catalog.Repository
	users    user.Repository
	now      func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(tx TxRunner, products catalog.Repository, users user.Repository) *Service {
	return &Service{
		tx:       tx,
		products: products,
		users:    users,
		now:      time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// PlaceOrder validates every precondition first, then executes all
// mutations in one transaction:
//
//  1. Every line item's product must exist with stock covering the
//     requested quantity, and the buyer must exist. Nothing has been
//     mutated when any of these checks fail.
//  2. In a single transaction: the coupon (when given) is redeemed and the
//     unit prices rewritten, the order is persisted, one sale is created
//     per distinct supplier among the line items, stock is decremented via
//     conditional updates, and the buyer's cart is cleared.
//
// A failure anywhere in step 2 rolls back every mutation, including the
// coupon redemption. The stock precheck in step 1 is advisory; the
// conditional decrement inside the transaction is what guarantees stock
// never goes negative under concurrent placement.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	productMap := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	details := make([]LineItem, len(req.Items))
	for i, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if p.Stock == 0 || p.Stock < item.Quantity {
			return nil, &OutOfStockError{ProductID: p.ID, Name: p.Name}
		}
		details[i] = LineItem{
			Product: ProductSnapshot{
				ID:       p.ID,
				Name:     p.Name,
				Images:   p.Images,
				Price:    p.Price,
				Discount: p.Discount,
				OwnerID:  p.OwnerID,
			},
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
		}
	}

	if _, err := s.users.GetByID(ctx, req.OwnerID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, errors.Wrap(err, "get owner")
	}

	var result PlaceOrderResult
	err = s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		couponDiscount := 0
		if req.CouponCode != "" {
			c, err := coupon.NewRedeemer(st.Coupons).Redeem(ctx, req.CouponCode)
			if err != nil {
				return err
			}
			couponDiscount = c.Discount
			applyCouponDiscount(details, c.Discount)
		}

		o := &Order{
			ID:             uuid.New().String(),
			OwnerID:        req.OwnerID,
			OrderDate:      s.now(),
			ShipAddress:    req.ShipAddress,
			Details:        details,
			CouponCode:     req.CouponCode,
			CouponDiscount: couponDiscount,
		}
		if err := st.Orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		for _, group := range PartitionBySupplier(details) {
			sale := Sale{
				ID:          uuid.New().String(),
				OrderID:     o.ID,
				OrderDate:   o.OrderDate,
				Details:     group.Items,
				CustomerID:  o.OwnerID,
				ShipAddress: o.ShipAddress,
				Status:      SalePending,
				OwnerID:     group.SupplierID,
			}
			if err := st.Sales.Create(ctx, &sale); err != nil {
				return errors.Wrapf(err, "create sale for supplier %s", group.SupplierID)
			}
			result.Sales = append(result.Sales, sale)
		}

		for i, item := range req.Items {
			if err := st.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, catalog.ErrInsufficientStock) {
					return &OutOfStockError{ProductID: item.ProductID, Name: details[i].Product.Name}
				}
				return errors.Wrapf(err, "decrement stock for product %s", item.ProductID)
			}
		}

		if err := st.Users.ClearCart(ctx, req.OwnerID); err != nil {
			return errors.Wrap(err, "clear cart")
		}

		result.Order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// applyCouponDiscount rewrites every line's unit price to
// unitPrice * (1 - discount/100). The discount applies uniformly to all
// lines regardless of category.
func applyCouponDiscount(details []LineItem, discount int) {
	factor := hundred.Sub(decimal.NewFromInt(int64(discount))).Div(hundred)
	for i := range details {
		details[i].UnitPrice = details[i].UnitPrice.Mul(factor)
	}
}
