package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrNotFound is returned by a Repository when no cart slot exists for an ID.
var ErrNotFound = errors.New("cart not found")

// Repository persists the line list of one cart under a named slot. Load
// returns ErrNotFound for a missing slot; a present but undecodable slot is
// any other error, which the Store degrades to an empty cart.
type Repository interface {
	Load(ctx context.Context, id string) ([]LineItem, error)
	Save(ctx context.Context, id string, items []LineItem) error
}

// Store owns every cart and is the only code path allowed to mutate one.
// Mutations on a single cart are serialized by a per-cart mutex, so the
// identity-uniqueness and quantity-floor invariants hold under concurrent
// requests. Persistence is best-effort: each mutation is written through to
// the Repository, and a write failure is logged without rolling back the
// in-memory change, which stays authoritative for the session.
type Store struct {
	repo Repository

	mu    sync.Mutex
	carts map[string]*cartEntry
}

type cartEntry struct {
	mu       sync.Mutex
	hydrated bool
	state    state
}

// NewStore creates a Store backed by the given Repository.
func NewStore(repo Repository) *Store {
	return &Store{
		repo:  repo,
		carts: make(map[string]*cartEntry),
	}
}

// entry returns the cartEntry for id, creating it if needed. The entry is
// returned unlocked; callers lock it for the duration of their operation.
func (s *Store) entry(id string) *cartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[id]
	if !ok {
		e = &cartEntry{}
		s.carts[id] = e
	}
	return e
}

// hydrate loads the persisted line list on first access. A missing slot
// starts an empty cart; an unreadable or undecodable slot also starts an
// empty cart and is logged as a recoverable warning, never surfaced to the
// caller. Must be called with e.mu held.
func (s *Store) hydrate(ctx context.Context, id string, e *cartEntry) {
	if e.hydrated {
		return
	}
	e.hydrated = true

	items, err := s.repo.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zctx.From(ctx).Warn("Loading cart failed, starting empty",
				zap.String("cart_id", id),
				zap.Error(err),
			)
		}
		return
	}
	e.state.items = items
}

// persist writes the current line list through to the Repository. Failures
// are logged and swallowed so the triggering mutation keeps its visible
// effect. Must be called with e.mu held.
func (s *Store) persist(ctx context.Context, id string, e *cartEntry) {
	if err := s.repo.Save(ctx, id, e.state.items); err != nil {
		zctx.From(ctx).Warn("Persisting cart failed, in-memory state kept",
			zap.String("cart_id", id),
			zap.Error(err),
		)
	}
}

// AddItem validates the descriptor, then merges the quantity into an
// existing line with the same identity triple or appends a new line.
// Quantities below 1 are clamped to 1. Adding a product already in the cart
// is the expected merge path, not an error.
func (s *Store) AddItem(ctx context.Context, id string, d Details, quantity int) (Snapshot, error) {
	if err := d.Validate(); err != nil {
		return Snapshot{}, err
	}

	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	e.state.add(d, quantity)
	s.persist(ctx, id, e)
	return e.state.snapshot(), nil
}

// UpdateQuantity replaces the quantity of the matching line exactly. A
// quantity of zero removes the line. An absent identity is a silent no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id string, key Key, quantity int) Snapshot {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	if e.state.setQuantity(key, quantity) {
		s.persist(ctx, id, e)
	}
	return e.state.snapshot()
}

// RemoveItem removes the line matching the identity triple, if any.
func (s *Store) RemoveItem(ctx context.Context, id string, key Key) Snapshot {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	if e.state.remove(key) {
		s.persist(ctx, id, e)
	}
	return e.state.snapshot()
}

// Clear empties the cart unconditionally and drops the applied promo code.
func (s *Store) Clear(ctx context.Context, id string) Snapshot {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	e.state.clear()
	e.state.appliedPromo = ""
	s.persist(ctx, id, e)
	return e.state.snapshot()
}

// ApplyPromo records code as the cart's applied promo, replacing any
// previous one. Codes do not stack. The code is kept as given; lookup is
// case-insensitive. Like the original storefront, the applied code is
// session state and is not persisted with the line list.
func (s *Store) ApplyPromo(ctx context.Context, id, code string) Snapshot {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	e.state.appliedPromo = code
	return e.state.snapshot()
}

// ClearPromo removes the applied promo code, if any.
func (s *Store) ClearPromo(ctx context.Context, id string) Snapshot {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	e.state.appliedPromo = ""
	return e.state.snapshot()
}

// Get returns a snapshot of the cart without mutating it.
func (s *Store) Get(ctx context.Context, id string) Snapshot {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	return e.state.snapshot()
}

// ItemCount returns the sum of quantities across all lines.
func (s *Store) ItemCount(ctx context.Context, id string) int {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.hydrate(ctx, id, e)
	return e.state.itemCount()
}
