package app

import (
	"errors"
	"fmt"

	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrConflict        = errors.New("cart was modified concurrently, try again")
)

// StockError reports a requested quantity above the available stock of a
// product. It matches catalog.ErrInsufficientStock with errors.Is.
type StockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("Not enough stock available. Available: %d", e.Available)
	}
	return fmt.Sprintf("Not enough stock for %s. Available: %d", e.Name, e.Available)
}

func (e *StockError) Unwrap() error {
	return catalog.ErrInsufficientStock
}
