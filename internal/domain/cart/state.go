package cart

// state is the in-memory cart for one session: the ordered line list plus
// the at-most-one applied promo code. All mutations preserve two invariants:
// no two lines share an identity triple, and every line has quantity >= 1.
type state struct {
	items        []LineItem
	appliedPromo string
}

// find returns the index of the line with the given key, or -1.
func (s *state) find(key Key) int {
	for i := range s.items {
		if s.items[i].Key() == key {
			return i
		}
	}
	return -1
}

// add merges the quantity into an existing line with the same identity or
// appends a new one. Quantities below 1 are clamped to 1.
func (s *state) add(d Details, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	if i := s.find(d.Key()); i >= 0 {
		s.items[i].Quantity += quantity
		return
	}
	s.items = append(s.items, d.line(quantity))
}

// setQuantity replaces the quantity of the matching line. A quantity of zero
// or less removes the line. An absent identity is a silent no-op; the return
// value reports whether anything changed.
func (s *state) setQuantity(key Key, quantity int) bool {
	i := s.find(key)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		return true
	}
	s.items[i].Quantity = quantity
	return true
}

// remove deletes the matching line, reporting whether it was present.
func (s *state) remove(key Key) bool {
	i := s.find(key)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// clear empties the line list unconditionally.
func (s *state) clear() {
	s.items = nil
}

// itemCount is the sum of quantities across all lines, not the number of
// distinct lines. Used for badge displays.
func (s *state) itemCount() int {
	total := 0
	for i := range s.items {
		total += s.items[i].Quantity
	}
	return total
}

// snapshot returns a copy safe to hand out after the cart lock is released.
func (s *state) snapshot() Snapshot {
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Items:        items,
		AppliedPromo: s.appliedPromo,
	}
}

// Snapshot is a read-only view of one cart, detached from the live state.
type Snapshot struct {
	Items        []LineItem
	AppliedPromo string
}

// ItemCount is the sum of quantities across all lines.
func (s Snapshot) ItemCount() int {
	total := 0
	for i := range s.Items {
		total += s.Items[i].Quantity
	}
	return total
}
