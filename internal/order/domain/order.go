package domain

import (
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

const StatusPlaced = "placed"

type Item struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"lineTotal"`
}

type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	Total     int64     `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddLine appends an item and keeps Total in step with it.
func (o *Order) AddLine(productID, name string, unitPrice int64, qty int) {
	line := Item{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  qty,
		LineTotal: unitPrice * int64(qty),
	}
	o.Items = append(o.Items, line)
	o.Total += line.LineTotal
}
