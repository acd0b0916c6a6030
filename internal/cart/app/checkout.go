package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
	"github.com/teakspice/cart-backend/internal/cart/domain"
	order "github.com/teakspice/cart-backend/internal/order/domain"
)

// Checkout converts the user's cart into an order. Every item is checked
// against current stock before anything is written; the stock deductions,
// the order record and the cart clear then either all take effect or are
// all undone. A concurrent change to the cart restarts the checkout.
func (s *Service) Checkout(ctx context.Context, userID string) (order.Order, error) {
	for attempt := 1; ; attempt++ {
		o, err := s.checkoutOnce(ctx, userID)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return o, err
		}
		if attempt == maxWriteAttempts {
			return order.Order{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		s.log.Info("cart changed during checkout, retrying", zap.String("user_id", userID), zap.Int("attempt", attempt))
	}
}

func (s *Service) checkoutOnce(ctx context.Context, userID string) (order.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return order.Order{}, domain.ErrEmptyCart
	}
	if err != nil {
		return order.Order{}, err
	}
	if cart.IsEmpty() {
		return order.Order{}, domain.ErrEmptyCart
	}

	products, err := s.loadProducts(ctx, cart.Items)
	if err != nil {
		return order.Order{}, err
	}
	for i, it := range cart.Items {
		if p := products[i]; it.Quantity > p.Stock {
			return order.Order{}, &StockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: it.Quantity}
		}
	}

	var undo compensations
	fail := func(err error) (order.Order, error) {
		undo.run(ctx, s.log)
		return order.Order{}, err
	}

	for i, it := range cart.Items {
		i, it := i, it
		if err := s.products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				err = s.staleStockError(ctx, products[i], it.Quantity)
			}
			return fail(err)
		}
		undo.add("restore stock "+it.ProductID, func(ctx context.Context) error {
			return s.products.IncrementStock(ctx, it.ProductID, it.Quantity)
		})
	}

	o := order.Order{UserID: userID, Status: order.StatusPlaced, CreatedAt: s.now()}
	for i, it := range cart.Items {
		o.AddLine(it.ProductID, products[i].Name, products[i].Price, it.Quantity)
	}
	created, err := s.orders.Create(ctx, o)
	if err != nil {
		return fail(fmt.Errorf("record order: %w", err))
	}
	undo.add("delete order "+created.ID, func(ctx context.Context) error {
		return s.orders.Delete(ctx, created.ID)
	})

	cart.Clear()
	cart.UpdatedAt = s.now()
	if _, err := s.carts.Save(ctx, cart); err != nil {
		return fail(err)
	}

	s.log.Info("checkout completed",
		zap.String("user_id", userID),
		zap.String("order_id", created.ID),
		zap.Int("items", len(created.Items)),
		zap.Int64("total", created.Total),
	)
	return created, nil
}

// loadProducts fetches the product of every item, keeping cart order.
func (s *Service) loadProducts(ctx context.Context, items []domain.Item) ([]catalog.Product, error) {
	products := make([]catalog.Product, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.lookupLimit)

	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			p, err := s.products.Get(gctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("product %s: %w", it.ProductID, err)
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

// staleStockError reports the stock seen after another checkout won the
// race for the same units.
func (s *Service) staleStockError(ctx context.Context, p catalog.Product, requested int) error {
	available := 0
	if fresh, err := s.products.Get(ctx, p.ID); err == nil {
		available = fresh.Stock
	}
	return &StockError{ProductID: p.ID, Name: p.Name, Available: available, Requested: requested}
}
