package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merxio/marketplace/internal/domain/catalog"
	"github.com/merxio/marketplace/internal/domain/coupon"
	"github.com/merxio/marketplace/internal/domain/user"
)

// --- In-memory fakes ---
//
// The fakes share one mutable state; the fake TxRunner snapshots it before
// running the transaction body and restores it when the body fails, so
// rollback behaviour is observable from tests.

type fakeState struct {
	products map[string]catalog.Product
	coupons  map[string]coupon.Coupon
	users    map[string]user.User
	orders   []Order
	sales    []Sale

	saleCreateErr error
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		products:      make(map[string]catalog.Product, len(s.products)),
		coupons:       make(map[string]coupon.Coupon, len(s.coupons)),
		users:         make(map[string]user.User, len(s.users)),
		orders:        append([]Order(nil), s.orders...),
		sales:         append([]Sale(nil), s.sales...),
		saleCreateErr: s.saleCreateErr,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

type fakeProducts struct{ st *fakeState }

func (f *fakeProducts) List(_ context.Context, _ catalog.ListFilter) ([]catalog.Product, error) {
	return nil, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := f.st.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	seen := make(map[string]bool)
	for _, id := range ids {
		if p, ok := f.st.products[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	return out, nil
}

func (f *fakeProducts) Create(_ context.Context, _ *catalog.Product) error { return nil }
func (f *fakeProducts) Update(_ context.Context, _ *catalog.Product) error { return nil }
func (f *fakeProducts) Delete(_ context.Context, _ string) error           { return nil }

func (f *fakeProducts) DecrementStock(_ context.Context, id string, qty int) error {
	p, ok := f.st.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if p.Stock < qty {
		return catalog.ErrInsufficientStock
	}
	p.Stock -= qty
	f.st.products[id] = p
	return nil
}

type fakeCoupons struct{ st *fakeState }

func (f *fakeCoupons) List(_ context.Context) ([]coupon.Coupon, error)  { return nil, nil }
func (f *fakeCoupons) Create(_ context.Context, _ *coupon.Coupon) error { return nil }
func (f *fakeCoupons) Update(_ context.Context, _ *coupon.Coupon) error { return nil }
func (f *fakeCoupons) Delete(_ context.Context, _ string) error         { return nil }

func (f *fakeCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := f.st.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCoupons) SetStatus(_ context.Context, code string, status coupon.Status) error {
	c, ok := f.st.coupons[code]
	if !ok {
		return coupon.ErrNotFound
	}
	c.Status = status
	f.st.coupons[code] = c
	return nil
}

func (f *fakeCoupons) ConsumeOne(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := f.st.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	if c.Status != coupon.StatusActive || c.Limit <= 0 {
		return nil, coupon.ErrRedeemedOut
	}
	c.Limit--
	if c.Limit <= 0 {
		c.Status = coupon.StatusRedeemedOut
	}
	f.st.coupons[code] = c
	return &c, nil
}

type fakeUsers struct{ st *fakeState }

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.st.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Create(_ context.Context, _ *user.User) error { return nil }

func (f *fakeUsers) UpdateAddresses(_ context.Context, _ string, _ []user.Address) error {
	return nil
}

func (f *fakeUsers) UpdateCart(_ context.Context, id string, cart []user.CartItem) error {
	u := f.st.users[id]
	u.Cart = cart
	f.st.users[id] = u
	return nil
}

func (f *fakeUsers) ClearCart(_ context.Context, id string) error {
	u, ok := f.st.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Cart = []user.CartItem{}
	f.st.users[id] = u
	return nil
}

type fakeOrders struct{ st *fakeState }

func (f *fakeOrders) Create(_ context.Context, o *Order) error {
	f.st.orders = append(f.st.orders, *o)
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, _ string) (*Order, error) { return nil, ErrNotFound }
func (f *fakeOrders) ListByOwner(_ context.Context, _ string) ([]Order, error) {
	return nil, nil
}
func (f *fakeOrders) Delete(_ context.Context, _ string) error { return nil }

type fakeSales struct{ st *fakeState }

func (f *fakeSales) Create(_ context.Context, s *Sale) error {
	if f.st.saleCreateErr != nil {
		return f.st.saleCreateErr
	}
	f.st.sales = append(f.st.sales, *s)
	return nil
}

func (f *fakeSales) GetByID(_ context.Context, _ string) (*Sale, error) { return nil, ErrSaleNotFound }
func (f *fakeSales) ListByOwner(_ context.Context, _ string) ([]Sale, error) {
	return nil, nil
}
func (f *fakeSales) UpdateStatus(_ context.Context, _ string, _ SaleStatus) (*Sale, error) {
	return nil, ErrSaleNotFound
}
func (f *fakeSales) Delete(_ context.Context, _ string) error { return nil }

type fakeTxRunner struct{ st *fakeState }

func (f *fakeTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	snapshot := f.st.clone()
	err := fn(ctx, Stores{
		Orders:   &fakeOrders{st: f.st},
		Sales:    &fakeSales{st: f.st},
		Products: &fakeProducts{st: f.st},
		Coupons:  &fakeCoupons{st: f.st},
		Users:    &fakeUsers{st: f.st},
	})
	if err != nil {
		*f.st = *snapshot
	}
	return err
}

// --- Helpers ---

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testProduct(id, name, owner string, stock int, price string) catalog.Product {
	return catalog.Product{
		ID:        id,
		Name:      name,
		Stock:     stock,
		Price:     money(price),
		Status:    catalog.StatusAvailable,
		Condition: catalog.ConditionNew,
		OwnerID:   owner,
	}
}

func newState(products ...catalog.Product) *fakeState {
	st := &fakeState{
		products: make(map[string]catalog.Product),
		coupons:  make(map[string]coupon.Coupon),
		users:    make(map[string]user.User),
	}
	for _, p := range products {
		st.products[p.ID] = p
	}
	st.users["buyer"] = user.User{
		ID:       "buyer",
		Username: "buyer",
		Role:     user.RoleUser,
		Cart: []user.CartItem{
			{ProductID: "p1", Quantity: 2},
		},
	}
	return st
}

func newTestService(st *fakeState) *Service {
	svc := NewService(&fakeTxRunner{st: st}, &fakeProducts{st: st}, &fakeUsers{st: st})
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func shipTo() user.Address {
	return user.Address{
		Name:         "Home",
		ContactName:  "Jane Doe",
		ContactPhone: "555-0100",
		Address:      "1 Main St",
		City:         "Springfield",
		Region:       "IL",
		Country:      "US",
		PostalCode:   "62701",
	}
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := newTestService(newState())

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{OwnerID: "buyer"})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	st := newState(testProduct("p1", "Widget", "s1", 5, "10"))
	svc := newTestService(st)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items:       []ItemInput{{ProductID: "p1", UnitPrice: money("10"), Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	svc := newTestService(newState())

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items:       []ItemInput{{ProductID: "missing", UnitPrice: money("10"), Quantity: 1}},
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestPlaceOrder_OwnerNotFound(t *testing.T) {
	st := newState(testProduct("p1", "Widget", "s1", 5, "10"))
	svc := newTestService(st)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "ghost",
		ShipAddress: shipTo(),
		Items:       []ItemInput{{ProductID: "p1", UnitPrice: money("10"), Quantity: 1}},
	})

	require.ErrorIs(t, err, ErrOwnerNotFound)
	// Precondition failure happens before any mutation.
	assert.Empty(t, st.orders)
	assert.Equal(t, 5, st.products["p1"].Stock)
}

func TestPlaceOrder_MultiSupplierSplit(t *testing.T) {
	st := newState(
		testProduct("p1", "Widget", "s1", 5, "10"),
		testProduct("p2", "Gadget", "s2", 3, "20"),
	)
	svc := newTestService(st)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items: []ItemInput{
			{ProductID: "p1", UnitPrice: money("10"), Quantity: 2},
			{ProductID: "p2", UnitPrice: money("20"), Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Order.Details, 2)
	require.Len(t, result.Sales, 2)

	// Suppliers appear in first-occurrence order.
	assert.Equal(t, "s1", result.Sales[0].OwnerID)
	assert.Equal(t, "s2", result.Sales[1].OwnerID)

	require.Len(t, result.Sales[0].Details, 1)
	assert.Equal(t, "p1", result.Sales[0].Details[0].Product.ID)
	assert.Equal(t, 2, result.Sales[0].Details[0].Quantity)

	require.Len(t, result.Sales[1].Details, 1)
	assert.Equal(t, "p2", result.Sales[1].Details[0].Product.ID)
	assert.Equal(t, 1, result.Sales[1].Details[0].Quantity)

	for _, s := range result.Sales {
		assert.Equal(t, result.Order.ID, s.OrderID)
		assert.Equal(t, "buyer", s.CustomerID)
		assert.Equal(t, shipTo(), s.ShipAddress)
		assert.Equal(t, SalePending, s.Status)
		for _, d := range s.Details {
			assert.Equal(t, s.OwnerID, d.Product.OwnerID)
		}
	}

	assert.Equal(t, 3, st.products["p1"].Stock)
	assert.Equal(t, 2, st.products["p2"].Stock)
	assert.Empty(t, st.users["buyer"].Cart)
	require.Len(t, st.orders, 1)
	require.Len(t, st.sales, 2)
}

func TestPlaceOrder_SingleSupplierOneSale(t *testing.T) {
	st := newState(
		testProduct("p1", "Widget", "s1", 5, "10"),
		testProduct("p2", "Gadget", "s1", 3, "20"),
	)
	svc := newTestService(st)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items: []ItemInput{
			{ProductID: "p1", UnitPrice: money("10"), Quantity: 1},
			{ProductID: "p2", UnitPrice: money("20"), Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Sales, 1)
	assert.Equal(t, "s1", result.Sales[0].OwnerID)
	assert.Equal(t, result.Order.Details, result.Sales[0].Details)
}

func TestPlaceOrder_CouponRewritesUnitPrices(t *testing.T) {
	st := newState(
		testProduct("p1", "Widget", "s1", 5, "10"),
		testProduct("p2", "Gadget", "s2", 3, "20"),
	)
	st.coupons["SAVE10"] = coupon.Coupon{
		Code:     "SAVE10",
		Limit:    5,
		Discount: 10,
		Status:   coupon.StatusActive,
	}
	svc := newTestService(st)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items: []ItemInput{
			{ProductID: "p1", UnitPrice: money("10"), Quantity: 2},
			{ProductID: "p2", UnitPrice: money("20"), Quantity: 1},
		},
		CouponCode: "SAVE10",
	})
	require.NoError(t, err)

	assert.True(t, money("9").Equal(result.Order.Details[0].UnitPrice),
		"expected 9, got %s", result.Order.Details[0].UnitPrice)
	assert.True(t, money("18").Equal(result.Order.Details[1].UnitPrice),
		"expected 18, got %s", result.Order.Details[1].UnitPrice)
	assert.Equal(t, 10, result.Order.CouponDiscount)
	assert.Equal(t, "SAVE10", result.Order.CouponCode)
	assert.Equal(t, 4, st.coupons["SAVE10"].Limit)

	// Sales carry the discounted prices too.
	assert.True(t, money("9").Equal(result.Sales[0].Details[0].UnitPrice))
	assert.True(t, money("18").Equal(result.Sales[1].Details[0].UnitPrice))
}

func TestPlaceOrder_InvalidCouponAbortsEverything(t *testing.T) {
	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	st := newState(testProduct("p1", "Widget", "s1", 5, "10"))
	st.coupons["OLD"] = coupon.Coupon{
		Code:           "OLD",
		Limit:          5,
		Discount:       10,
		Status:         coupon.StatusActive,
		ExpirationDate: &expired,
	}
	svc := newTestService(st)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items:       []ItemInput{{ProductID: "p1", UnitPrice: money("10"), Quantity: 1}},
		CouponCode:  "OLD",
	})

	require.ErrorIs(t, err, coupon.ErrExpired)
	assert.Empty(t, st.orders)
	assert.Empty(t, st.sales)
	assert.Equal(t, 5, st.products["p1"].Stock)
	assert.NotEmpty(t, st.users["buyer"].Cart)
}

func TestPlaceOrder_OutOfStock(t *testing.T) {
	st := newState(testProduct("p1", "Widget", "s1", 5, "10"))
	svc := newTestService(st)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items:       []ItemInput{{ProductID: "p1", UnitPrice: money("10"), Quantity: 10}},
	})

	var oosErr *OutOfStockError
	require.ErrorAs(t, err, &oosErr)
	assert.Equal(t, "p1", oosErr.ProductID)

	// No mutation of any kind.
	assert.Equal(t, 5, st.products["p1"].Stock)
	assert.Empty(t, st.orders)
	assert.Empty(t, st.sales)
	assert.NotEmpty(t, st.users["buyer"].Cart)
}

func TestPlaceOrder_ZeroStock(t *testing.T) {
	st := newState(testProduct("p1", "Widget", "s1", 0, "10"))
	svc := newTestService(st)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items:       []ItemInput{{ProductID: "p1", UnitPrice: money("10"), Quantity: 1}},
	})

	var oosErr *OutOfStockError
	require.ErrorAs(t, err, &oosErr)
}

func TestPlaceOrder_MidTransactionFailureRollsBackCoupon(t *testing.T) {
	st := newState(
		testProduct("p1", "Widget", "s1", 5, "10"),
	)
	st.coupons["SAVE10"] = coupon.Coupon{
		Code:     "SAVE10",
		Limit:    5,
		Discount: 10,
		Status:   coupon.StatusActive,
	}
	st.saleCreateErr = errors.New("sale insert failed")
	svc := newTestService(st)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items:       []ItemInput{{ProductID: "p1", UnitPrice: money("10"), Quantity: 1}},
		CouponCode:  "SAVE10",
	})

	require.Error(t, err)
	// The coupon redemption happened inside the failed transaction, so the
	// limit must be restored along with everything else.
	assert.Equal(t, 5, st.coupons["SAVE10"].Limit)
	assert.Empty(t, st.orders)
	assert.Empty(t, st.sales)
	assert.Equal(t, 5, st.products["p1"].Stock)
}

func TestPlaceOrder_RepeatedSupplierKeepsItemOrder(t *testing.T) {
	st := newState(
		testProduct("p1", "Widget", "s2", 5, "10"),
		testProduct("p2", "Gadget", "s1", 5, "20"),
		testProduct("p3", "Gizmo", "s2", 5, "30"),
	)
	svc := newTestService(st)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		OwnerID:     "buyer",
		ShipAddress: shipTo(),
		Items: []ItemInput{
			{ProductID: "p1", UnitPrice: money("10"), Quantity: 1},
			{ProductID: "p2", UnitPrice: money("20"), Quantity: 1},
			{ProductID: "p3", UnitPrice: money("30"), Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Sales, 2)
	assert.Equal(t, "s2", result.Sales[0].OwnerID)
	assert.Equal(t, "s1", result.Sales[1].OwnerID)

	require.Len(t, result.Sales[0].Details, 2)
	assert.Equal(t, "p1", result.Sales[0].Details[0].Product.ID)
	assert.Equal(t, "p3", result.Sales[0].Details[1].Product.ID)

	// Union of sale details equals the order details, nothing lost or doubled.
	total := 0
	for _, s := range result.Sales {
		total += len(s.Details)
	}
	assert.Equal(t, len(result.Order.Details), total)
}
