package domain

import (
	"errors"
	"time"

	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrVersionConflict = errors.New("cart version conflict")
)

type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart holds at most one Item per product. Version is zero until the cart
// is first stored and increases on every write.
type Cart struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	Version   int64     `json:"-"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func (c *Cart) QuantityOf(productID string) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Set replaces the quantity for productID, appending it if absent.
// A non-positive quantity removes the item.
func (c *Cart) Set(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: qty})
}

// Remove drops productID and reports whether it was present.
func (c *Cart) Remove(productID string) bool {
	for i, it := range c.Items {
		if it.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Items = []Item{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Line is a cart item with its product resolved. Product is nil when the
// product no longer exists.
type Line struct {
	Product   *catalog.Product `json:"product,omitempty"`
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
}

type View struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	Items     []Line     `json:"items"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
