package app

import (
	"context"

	"github.com/teakspice/cart-backend/internal/order/domain"
)

type OrderRepo interface {
	Create(ctx context.Context, o domain.Order) (domain.Order, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}
