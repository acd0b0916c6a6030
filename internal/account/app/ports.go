package app

import (
	"context"

	"github.com/teakspice/cart-backend/internal/account/domain"
)

type UserRepo interface {
	// Create fails with domain.ErrEmailTaken when the email is in use.
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Update(ctx context.Context, u domain.User) (domain.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}
