// Package memory holds cart slots in process memory. It backs tests and the
// "memory" storage mode, where durability ends with the process.
package memory

import (
	"context"
	"sync"

	"github.com/kokoro-shop/storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository on a map.
type CartRepository struct {
	mu    sync.RWMutex
	slots map[string][]cart.LineItem
}

// NewCartRepository returns an empty in-memory repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{slots: make(map[string][]cart.LineItem)}
}

// Load returns a copy of the stored line list, or cart.ErrNotFound.
func (r *CartRepository) Load(_ context.Context, id string) ([]cart.LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items, ok := r.slots[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	out := make([]cart.LineItem, len(items))
	copy(out, items)
	return out, nil
}

// Save stores a copy of the line list under the slot ID.
func (r *CartRepository) Save(_ context.Context, id string, items []cart.LineItem) error {
	stored := make([]cart.LineItem, len(items))
	copy(stored, items)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[id] = stored
	return nil
}
