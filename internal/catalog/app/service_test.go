package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakspice/cart-backend/internal/catalog/domain"
)

type fakeRepo struct {
	products    []domain.Product
	gotCategory string
	err         error
}

func (f *fakeRepo) List(ctx context.Context, category string) ([]domain.Product, error) {
	f.gotCategory = category
	return f.products, f.err
}

func (f *fakeRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func TestListProducts(t *testing.T) {
	t.Run("trims category", func(t *testing.T) {
		repo := &fakeRepo{}
		_, err := NewService(repo).ListProducts(context.Background(), "  spices ")
		require.NoError(t, err)
		assert.Equal(t, "spices", repo.gotCategory)
	})

	t.Run("nil list -> empty slice", func(t *testing.T) {
		got, err := NewService(&fakeRepo{}).ListProducts(context.Background(), "")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("repo error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewService(&fakeRepo{err: boom}).ListProducts(context.Background(), "")
		assert.ErrorIs(t, err, boom)
	})
}

func TestGetProduct(t *testing.T) {
	svc := NewService(&fakeRepo{products: []domain.Product{{ID: "p1", Name: "Tea", Stock: 3}}})

	t.Run("blank id -> not found", func(t *testing.T) {
		_, err := svc.GetProduct(context.Background(), "   ")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("found", func(t *testing.T) {
		p, err := svc.GetProduct(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, "Tea", p.Name)
	})
}
