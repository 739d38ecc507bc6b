package arena

// slot holds one entity record. gen is bumped on release so handles issued
// for the previous occupant stop matching.
type slot[T any] struct {
	gen uint32
	val *T
}

// table is a slot table with a free list.
type table[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

func (t *table[T]) alloc(v *T) (index, gen uint32) {
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot[T]{})
		index = uint32(len(t.slots) - 1)
	}
	s := &t.slots[index]
	s.gen++
	s.val = v
	t.live++
	return index, s.gen
}

func (t *table[T]) get(index, gen uint32) (*T, bool) {
	if gen == 0 || int(index) >= len(t.slots) {
		return nil, false
	}
	s := t.slots[index]
	if s.gen != gen || s.val == nil {
		return nil, false
	}
	return s.val, true
}

func (t *table[T]) release(index uint32) {
	s := &t.slots[index]
	if s.val == nil {
		return
	}
	s.val = nil
	s.gen++
	t.free = append(t.free, index)
	t.live--
}
