package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// Role enumerates the access levels a user can hold.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Address is a structured shipping address. It is embedded in users
// (the address book) and copied into orders and sales at placement time.
type Address struct {
	Name         string `json:"name"`
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	PostalCode   string `json:"postalCode"`
}

// CartItem is one (product, quantity) entry in a user's cart.
// A cart holds at most one entry per product.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// User represents a marketplace account. Every user can both buy and sell;
// a user owning products acts as the supplier for those products.
type User struct {
	ID           string
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	Phone        string
	Role         Role
	Addresses    []Address
	Cart         []CartItem
	CreatedAt    time.Time
}

// Repository defines persistence operations for users, their address book,
// and their cart.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateAddresses(ctx context.Context, id string, addresses []Address) error
	UpdateCart(ctx context.Context, id string, cart []CartItem) error
	// ClearCart resets the user's cart to an empty list.
	ClearCart(ctx context.Context, id string) error
}

// MergeCartItem adds item to cart, merging quantities when the product is
// already present. The relative order of existing entries is preserved.
func MergeCartItem(cart []CartItem, item CartItem) []CartItem {
	for i := range cart {
		if cart[i].ProductID == item.ProductID {
			cart[i].Quantity += item.Quantity
			return cart
		}
	}
	return append(cart, item)
}
