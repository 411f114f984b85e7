// Package file persists cart slots as JSON documents on the local
// filesystem, one file per slot. It is the durable-storage analog of the
// original storefront's browser storage for standalone and development
// deployments that run without PostgreSQL.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/kokoro-shop/storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository on a state directory.
type CartRepository struct {
	dir string
}

// NewCartRepository creates the state directory if needed and returns a
// repository rooted there.
func NewCartRepository(dir string) (*CartRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %q: %w", dir, err)
	}
	return &CartRepository{dir: dir}, nil
}

// slotPath maps a slot ID to its file, rejecting IDs that could escape the
// state directory.
func (r *CartRepository) slotPath(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", errors.Errorf("invalid cart slot id %q", id)
	}
	return filepath.Join(r.dir, id+".json"), nil
}

// Load reads the line list for the given slot. A missing file maps to
// cart.ErrNotFound; an undecodable one is returned as an error for the
// store to degrade to an empty cart.
func (r *CartRepository) Load(_ context.Context, id string) ([]cart.LineItem, error) {
	path, err := r.slotPath(id)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("reading cart slot %q: %w", id, err)
	}

	var items []cart.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding cart slot %q: %w", id, err)
	}
	return items, nil
}

// Save writes the line list via a temp file and rename so readers never see
// a partially written slot.
func (r *CartRepository) Save(_ context.Context, id string, items []cart.LineItem) error {
	path, err := r.slotPath(id)
	if err != nil {
		return err
	}

	if items == nil {
		items = []cart.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding cart slot %q: %w", id, err)
	}

	tmp, err := os.CreateTemp(r.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp slot for %q: %w", id, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cart slot %q: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cart slot %q: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing cart slot %q: %w", id, err)
	}
	return nil
}
