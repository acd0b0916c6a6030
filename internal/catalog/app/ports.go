package app

import (
	"context"

	"github.com/teakspice/cart-backend/internal/catalog/domain"
)

type ProductRepo interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
}
