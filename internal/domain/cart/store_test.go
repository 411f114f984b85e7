package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock repository ---

type mockRepo struct {
	slots    map[string][]LineItem
	loadErr  error
	saveErr  error
	saves    int
	lastSave []LineItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{slots: make(map[string][]LineItem)}
}

func (m *mockRepo) Load(_ context.Context, id string) ([]LineItem, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	items, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return items, nil
}

func (m *mockRepo) Save(_ context.Context, id string, items []LineItem) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.lastSave = items
	m.slots[id] = items
	return nil
}

// --- Helpers ---

func hoodie(color, size string) Details {
	orig := decimal.RequireFromString("129")
	return Details{
		ProductID:     "1",
		Name:          "Cyberpunk Neon Hoodie",
		UnitPrice:     decimal.RequireFromString("89"),
		OriginalPrice: &orig,
		Category:      "apparel",
		VariantColor:  color,
		VariantSize:   size,
	}
}

func artPrint() Details {
	return Details{
		ProductID: "3",
		Name:      "Anime Art Collection Vol.1",
		UnitPrice: decimal.RequireFromString("32"),
		Category:  "art",
	}
}

// --- Tests ---

func TestAddItem_NewLine(t *testing.T) {
	s := NewStore(newMockRepo())

	snap, err := s.AddItem(context.Background(), "c1", hoodie("black", "M"), 2)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, "1", snap.Items[0].ProductID)
}

func TestAddItem_MergesSameIdentity(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", hoodie("black", "M"), 2)
	require.NoError(t, err)
	snap, err := s.AddItem(ctx, "c1", hoodie("black", "M"), 3)
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Quantity)
}

func TestAddItem_DistinctVariantsAreDistinctLines(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", hoodie("black", "M"), 1)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "c1", hoodie("black", "L"), 1)
	require.NoError(t, err)
	snap, err := s.AddItem(ctx, "c1", hoodie("pink", "M"), 1)
	require.NoError(t, err)

	assert.Len(t, snap.Items, 3)

	// No two lines share an identity triple.
	seen := make(map[Key]bool)
	for _, li := range snap.Items {
		assert.False(t, seen[li.Key()], "duplicate identity %+v", li.Key())
		seen[li.Key()] = true
	}
}

func TestAddItem_ClampsQuantityToOne(t *testing.T) {
	s := NewStore(newMockRepo())

	snap, err := s.AddItem(context.Background(), "c1", artPrint(), -5)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity)
}

func TestAddItem_RejectsInvalidDescriptor(t *testing.T) {
	s := NewStore(newMockRepo())

	d := artPrint()
	d.ProductID = ""
	_, err := s.AddItem(context.Background(), "c1", d, 1)

	var ipErr *InvalidProductError
	require.ErrorAs(t, err, &ipErr)
	assert.Equal(t, "productId", ipErr.Field)
}

func TestAddItem_RejectsNegativePrice(t *testing.T) {
	s := NewStore(newMockRepo())

	d := artPrint()
	d.UnitPrice = decimal.RequireFromString("-1")
	_, err := s.AddItem(context.Background(), "c1", d, 1)

	var ipErr *InvalidProductError
	require.ErrorAs(t, err, &ipErr)
	assert.Equal(t, "unitPrice", ipErr.Field)
}

func TestUpdateQuantity_Replaces(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", artPrint(), 3)
	require.NoError(t, err)

	snap := s.UpdateQuantity(ctx, "c1", artPrint().Key(), 7)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 7, snap.Items[0].Quantity)
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", artPrint(), 3)
	require.NoError(t, err)

	snap := s.UpdateQuantity(ctx, "c1", artPrint().Key(), 0)
	assert.Empty(t, snap.Items)
}

func TestUpdateQuantity_AbsentIdentityIsNoOp(t *testing.T) {
	repo := newMockRepo()
	s := NewStore(repo)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", artPrint(), 1)
	require.NoError(t, err)
	savesBefore := repo.saves

	snap := s.UpdateQuantity(ctx, "c1", Key{ProductID: "missing"}, 5)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.Equal(t, savesBefore, repo.saves, "no-op must not persist")
}

func TestUpdateQuantity_VariantMismatchIsNoOp(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", hoodie("black", "M"), 2)
	require.NoError(t, err)

	// Same product, different size: distinct identity.
	snap := s.UpdateQuantity(ctx, "c1", hoodie("black", "L").Key(), 9)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", hoodie("black", "M"), 1)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "c1", artPrint(), 1)
	require.NoError(t, err)

	snap := s.RemoveItem(ctx, "c1", hoodie("black", "M").Key())
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "3", snap.Items[0].ProductID)
}

func TestRemoveItem_AbsentIdentityIsNoOp(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", artPrint(), 1)
	require.NoError(t, err)

	snap := s.RemoveItem(ctx, "c1", Key{ProductID: "missing"})
	assert.Len(t, snap.Items, 1)
}

func TestClear_EmptiesCartAndDropsPromo(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", artPrint(), 2)
	require.NoError(t, err)
	s.ApplyPromo(ctx, "c1", "KOKORO20")

	snap := s.Clear(ctx, "c1")
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.AppliedPromo)
}

func TestApplyPromo_ReplacesPrevious(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	s.ApplyPromo(ctx, "c1", "ANIME10")
	snap := s.ApplyPromo(ctx, "c1", "KOKORO20")
	assert.Equal(t, "KOKORO20", snap.AppliedPromo)

	snap = s.ClearPromo(ctx, "c1")
	assert.Empty(t, snap.AppliedPromo)
}

func TestItemCount_SumsQuantities(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", hoodie("black", "M"), 2)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "c1", artPrint(), 3)
	require.NoError(t, err)

	assert.Equal(t, 5, s.ItemCount(ctx, "c1"))
}

func TestStore_CartsAreIsolated(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	_, err := s.AddItem(ctx, "alice", artPrint(), 1)
	require.NoError(t, err)

	assert.Empty(t, s.Get(ctx, "bob").Items)
	assert.Len(t, s.Get(ctx, "alice").Items, 1)
}

func TestHydrate_LoadsPersistedSlot(t *testing.T) {
	repo := newMockRepo()
	repo.slots["c1"] = []LineItem{artPrint().line(4)}

	s := NewStore(repo)
	snap := s.Get(context.Background(), "c1")

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 4, snap.Items[0].Quantity)
}

func TestHydrate_UnreadableSlotStartsEmpty(t *testing.T) {
	repo := newMockRepo()
	repo.loadErr = errors.New("corrupt slot")

	s := NewStore(repo)
	snap := s.Get(context.Background(), "c1")
	assert.Empty(t, snap.Items)

	// The slot is only read once; later mutations work normally.
	repo.loadErr = nil
	snap, err := s.AddItem(context.Background(), "c1", artPrint(), 1)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 1)
}

func TestPersistFailure_KeepsInMemoryState(t *testing.T) {
	repo := newMockRepo()
	repo.saveErr = errors.New("disk full")

	s := NewStore(repo)
	ctx := context.Background()

	snap, err := s.AddItem(ctx, "c1", artPrint(), 2)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)

	// The mutation stays visible for the session despite the write failure.
	assert.Equal(t, 2, s.Get(ctx, "c1").Items[0].Quantity)
	assert.Zero(t, repo.saves)
}

func TestConcurrentAdds_SerializePerCart(t *testing.T) {
	s := NewStore(newMockRepo())
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := s.AddItem(ctx, "c1", artPrint(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := s.Get(ctx, "c1")
	require.Len(t, snap.Items, 1)
	assert.Equal(t, workers, snap.Items[0].Quantity)
}

func TestMutationsPersistThrough(t *testing.T) {
	repo := newMockRepo()
	s := NewStore(repo)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "c1", artPrint(), 2)
	require.NoError(t, err)
	require.Len(t, repo.lastSave, 1)
	assert.Equal(t, 2, repo.lastSave[0].Quantity)

	s.UpdateQuantity(ctx, "c1", artPrint().Key(), 6)
	assert.Equal(t, 6, repo.lastSave[0].Quantity)

	s.RemoveItem(ctx, "c1", artPrint().Key())
	assert.Empty(t, repo.lastSave)
}
