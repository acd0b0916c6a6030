package memory

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/teakspice/cart-backend/internal/cart/domain"
)

type CartRepo struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

func NewCartRepo() *CartRepo {
	return &CartRepo{carts: make(map[string]domain.Cart)}
}

func (r *CartRepo) Get(ctx context.Context, userID string) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[userID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return clone(c), nil
}

func (r *CartRepo) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.carts[cart.UserID]
	switch {
	case cart.Version == 0 && exists:
		return domain.Cart{}, domain.ErrVersionConflict
	case cart.Version != 0 && (!exists || stored.Version != cart.Version):
		return domain.Cart{}, domain.ErrVersionConflict
	}

	if cart.ID == "" {
		cart.ID = primitive.NewObjectID().Hex()
	}
	cart.Version++
	r.carts[cart.UserID] = clone(cart)
	return clone(cart), nil
}

func clone(c domain.Cart) domain.Cart {
	items := make([]domain.Item, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}
