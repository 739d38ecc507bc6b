package arena

import (
	"slices"

	"github.com/specialistvlad/proxygraph/internal/entity"
)

type member struct {
	id uint64
	h  entity.Handle
}

// memberSet is a set of entities ordered by id.
type memberSet struct {
	items []member
}

func (m *memberSet) search(id uint64) (int, bool) {
	return slices.BinarySearchFunc(m.items, id, func(e member, id uint64) int {
		switch {
		case e.id < id:
			return -1
		case e.id > id:
			return 1
		}
		return 0
	})
}

// add inserts h and reports whether it was missing.
func (m *memberSet) add(id uint64, h entity.Handle) bool {
	i, found := m.search(id)
	if found {
		return false
	}
	m.items = slices.Insert(m.items, i, member{id: id, h: h})
	return true
}

func (m *memberSet) remove(id uint64) {
	if i, found := m.search(id); found {
		m.items = slices.Delete(m.items, i, i+1)
	}
}

func (m *memberSet) has(id uint64) bool {
	_, found := m.search(id)
	return found
}

func (m *memberSet) len() int {
	return len(m.items)
}

// first returns the member with the smallest id.
func (m *memberSet) first() (member, bool) {
	if len(m.items) == 0 {
		return member{}, false
	}
	return m.items[0], true
}

// after returns the member with the smallest id greater than id.
func (m *memberSet) after(id uint64) (member, bool) {
	i, found := m.search(id)
	if found {
		i++
	}
	if i >= len(m.items) {
		return member{}, false
	}
	return m.items[i], true
}

// handles returns a copy of the members in id order.
func (m *memberSet) handles() []entity.Handle {
	out := make([]entity.Handle, len(m.items))
	for i, e := range m.items {
		out[i] = e.h
	}
	return out
}
