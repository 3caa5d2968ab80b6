package repository

import (
	"context"
	"errors"

	"github.com/creatorhub/storefront/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrCartCorrupt marks a stored cart that no longer decodes. Callers
	// treat it as an empty cart instead of failing the request.
	ErrCartCorrupt = errors.New("stored cart is corrupt")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, packageID string, quantity int) error
	RemoveItem(ctx context.Context, userID string, packageID string) error
	UpdateShippingInfo(ctx context.Context, userID string, info domain.ShippingInfo) error
	DeleteCart(ctx context.Context, userID string) error
}
