package app

import (
	"context"

	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
	"github.com/teakspice/cart-backend/internal/cart/domain"
	order "github.com/teakspice/cart-backend/internal/order/domain"
)

// CartRepo stores one cart per user. Save inserts when Version is zero and
// otherwise writes only if the stored version still matches, returning
// domain.ErrVersionConflict when it does not.
type CartRepo interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
}

// ProductStore must apply DecrementStock atomically: it either removes qty
// units or fails with catalog.ErrInsufficientStock.
type ProductStore interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
}

type OrderRecorder interface {
	Create(ctx context.Context, o order.Order) (order.Order, error)
	Delete(ctx context.Context, id string) error
}
