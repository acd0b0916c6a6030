package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/teakspice/cart-backend/internal/catalog/domain"
)

// ProductRepo keeps products in process memory. It backs the memory store
// driver and tests.
type ProductRepo struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewProductRepo(products ...domain.Product) *ProductRepo {
	r := &ProductRepo{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		r.Put(p)
	}
	return r
}

// Put inserts or replaces p, assigning an id when it has none.
func (r *ProductRepo) Put(p domain.Product) domain.Product {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	r.mu.Lock()
	r.products[p.ID] = p
	r.mu.Unlock()
	return p
}

func (r *ProductRepo) List(ctx context.Context, category string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("decrement stock: non-positive quantity %d", qty)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock < qty {
		return domain.ErrInsufficientStock
	}
	p.Stock -= qty
	r.products[id] = p
	return nil
}

func (r *ProductRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("increment stock: non-positive quantity %d", qty)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock += qty
	r.products[id] = p
	return nil
}

// LoadSeed reads a JSON array of products from path.
func LoadSeed(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("parse catalog seed %s: %w", path, err)
	}
	for i, p := range products {
		if p.Stock < 0 {
			return nil, fmt.Errorf("catalog seed item %d (%s): negative stock", i, p.Name)
		}
	}
	return products, nil
}
