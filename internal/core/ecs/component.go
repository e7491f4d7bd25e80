package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a generic typed component store. Components live in a dense
// slice in insertion order; Each and Entities visit them in that order, so
// systems that consume queued work (spawn requests) see it in arrival order.
// Remove keeps the order of the remaining entries.
type Store[T any] struct {
	index map[EntityID]int
	ids   []EntityID
	data  []*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		index: make(map[EntityID]int, 64),
		ids:   make([]EntityID, 0, 64),
		data:  make([]*T, 0, 64),
	}
}

// Set attaches c to id. Replacing an existing component keeps its position.
func (s *Store[T]) Set(id EntityID, c *T) {
	if i, ok := s.index[id]; ok {
		s.data[i] = c
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	s.data = append(s.data, c)
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.data[i], true
}

func (s *Store[T]) Remove(id EntityID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	copy(s.ids[i:], s.ids[i+1:])
	copy(s.data[i:], s.data[i+1:])
	last := len(s.ids) - 1
	s.data[last] = nil
	s.ids = s.ids[:last]
	s.data = s.data[:last]
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.ids)
}

// Each visits components in insertion order. fn must not add to or remove
// from this store; collect IDs with Entities first when consuming.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i, id := range s.ids {
		fn(id, s.data[i])
	}
}

// Entities returns a snapshot of the IDs currently in the store, in
// insertion order.
func (s *Store[T]) Entities() []EntityID {
	out := make([]EntityID, len(s.ids))
	copy(out, s.ids)
	return out
}

// First returns the oldest entry, used for singleton components.
func (s *Store[T]) First() (EntityID, *T, bool) {
	if len(s.ids) == 0 {
		return 0, nil, false
	}
	return s.ids[0], s.data[0], true
}
