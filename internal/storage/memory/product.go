package memory

import (
	"context"

	"github.com/kokoro-shop/storefront/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository serves a fixed catalog from memory. It backs the storage
// modes that run without PostgreSQL, loaded from the embedded seed catalog.
type ProductRepository struct {
	products []product.Product
	byID     map[string]int
}

// NewProductRepository indexes the given catalog. Order is preserved for
// listings.
func NewProductRepository(products []product.Product) *ProductRepository {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	return &ProductRepository{products: products, byID: byID}
}

func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *ProductRepository) ListByCategory(_ context.Context, category string) ([]product.Product, error) {
	var out []product.Product
	for _, p := range r.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}
