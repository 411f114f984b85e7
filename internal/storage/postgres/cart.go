package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kokoro-shop/storefront/internal/domain/cart"
)

const (
	loadCartSQL = `SELECT items FROM carts WHERE id = $1`

	saveCartSQL = `INSERT INTO carts (id, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Each cart
// slot is one row; the line list is stored as JSONB using the stable field
// names of cart.LineItem.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Load reads the line list for the given slot. A missing row maps to
// cart.ErrNotFound; an undecodable payload is returned as an error for the
// store to degrade to an empty cart.
func (r *CartRepository) Load(ctx context.Context, id string) ([]cart.LineItem, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, loadCartSQL, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("loading cart %q: %w", id, err)
	}

	var items []cart.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding cart %q: %w", id, err)
	}
	return items, nil
}

// Save upserts the line list for the given slot.
func (r *CartRepository) Save(ctx context.Context, id string, items []cart.LineItem) error {
	if items == nil {
		items = []cart.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding cart %q: %w", id, err)
	}

	if _, err := r.pool.Exec(ctx, saveCartSQL, id, raw); err != nil {
		return fmt.Errorf("saving cart %q: %w", id, err)
	}
	return nil
}
