package tree

import "fmt"

// Handle is a generational reference to an arena slot. The zero Handle refers
// to nothing; a Handle whose generation no longer matches its slot is stale.
type Handle struct {
	Index      uint32
	Generation uint32
}

func (h Handle) IsZero() bool {
	return h.Generation == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", h.Index, h.Generation)
}

type slot struct {
	entity     *Entity
	generation uint32
}

// arena owns every constructed entity, registered or not.
type arena struct {
	slots []slot
	free  []uint32
}

func (a *arena) alloc(e *Entity) Handle {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}

	s := &a.slots[index]
	s.generation++
	s.entity = e
	return Handle{Index: index, Generation: s.generation}
}

func (a *arena) get(h Handle) (*Entity, bool) {
	if h.IsZero() || int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[h.Index]
	if s.generation != h.Generation || s.entity == nil {
		return nil, false
	}
	return s.entity, true
}

func (a *arena) release(h Handle) bool {
	if _, ok := a.get(h); !ok {
		return false
	}
	a.slots[h.Index].entity = nil
	a.free = append(a.free, h.Index)
	return true
}

func (a *arena) live() int {
	return len(a.slots) - len(a.free)
}
