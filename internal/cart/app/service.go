package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
	"github.com/teakspice/cart-backend/internal/cart/domain"
)

const maxWriteAttempts = 3

type Service struct {
	carts    CartRepo
	products ProductStore
	orders   OrderRecorder
	log      *zap.Logger

	lookupLimit int
	now         func() time.Time
}

func NewService(carts CartRepo, products ProductStore, orders OrderRecorder, log *zap.Logger, lookupLimit int) *Service {
	if lookupLimit <= 0 {
		lookupLimit = 8
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		carts:       carts,
		products:    products,
		orders:      orders,
		log:         log,
		lookupLimit: lookupLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetCart returns the user's cart with product details resolved. A user
// without a cart gets an empty view.
func (s *Service) GetCart(ctx context.Context, userID string) (domain.View, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.View{Items: []domain.Line{}}, nil
	}
	if err != nil {
		return domain.View{}, err
	}

	lines := make([]domain.Line, len(cart.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.lookupLimit)

	for i, it := range cart.Items {
		i, it := i, it
		g.Go(func() error {
			lines[i] = domain.Line{ProductID: it.ProductID, Quantity: it.Quantity}
			p, err := s.products.Get(gctx, it.ProductID)
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("resolve product %s: %w", it.ProductID, err)
			}
			lines[i].Product = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.View{}, err
	}

	view := domain.View{ID: cart.ID, UserID: cart.UserID, Items: lines}
	if !cart.UpdatedAt.IsZero() {
		updated := cart.UpdatedAt
		view.UpdatedAt = &updated
	}
	return view, nil
}

// AddItem adds qty units of a product, creating the cart on first use. The
// resulting quantity must not exceed current stock; stock itself is left
// untouched until checkout.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, ErrInvalidQuantity
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}

	return s.mutate(ctx, userID, true, func(c *domain.Cart) error {
		total := c.QuantityOf(productID) + qty
		if total > product.Stock {
			return &StockError{ProductID: product.ID, Name: product.Name, Available: product.Stock, Requested: total}
		}
		c.Set(productID, total)
		return nil
	})
}

// SetQuantity replaces the quantity of an item already in the cart. A
// quantity of zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, qty int) (domain.Cart, error) {
	var product catalog.Product
	if qty > 0 {
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return domain.Cart{}, err
		}
		product = p
	}

	return s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		if c.QuantityOf(productID) == 0 {
			return domain.ErrItemNotInCart
		}
		if qty > product.Stock {
			return &StockError{ProductID: product.ID, Name: product.Name, Available: product.Stock, Requested: qty}
		}
		c.Set(productID, qty)
		return nil
	})
}

// RemoveItem drops a product from the cart. Removing an absent product is
// not an error; a missing cart is.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	_, err := s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	return err
}

// mutate runs a read-modify-write of the user's cart, retrying on version
// conflicts. With create set a missing cart starts out empty.
func (s *Service) mutate(ctx context.Context, userID string, create bool, fn func(c *domain.Cart) error) (domain.Cart, error) {
	for attempt := 1; ; attempt++ {
		cart, err := s.carts.Get(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrCartNotFound) && create:
			cart = domain.Cart{UserID: userID, Items: []domain.Item{}}
		case err != nil:
			return domain.Cart{}, err
		}

		if err := fn(&cart); err != nil {
			return domain.Cart{}, err
		}
		cart.UpdatedAt = s.now()

		saved, err := s.carts.Save(ctx, cart)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return saved, err
		}
		if attempt == maxWriteAttempts {
			return domain.Cart{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		s.log.Debug("cart write conflict, retrying", zap.String("user_id", userID), zap.Int("attempt", attempt))
	}
}
