package ecs

// Removable is implemented by every store so the Registry can drop an
// entity from all collections it belongs to in one call.
type Removable interface {
	Remove(id EntityID) bool
}

// Store is an insertion-ordered collection of *T keyed by EntityID.
// Iteration follows insertion order; removal keeps the order of survivors.
// Not safe for concurrent use.
type Store[T any] struct {
	index map[EntityID]int
	ids   []EntityID
	items []*T
}

func NewStore[T any](capacity int) *Store[T] {
	return &Store[T]{
		index: make(map[EntityID]int, capacity),
		ids:   make([]EntityID, 0, capacity),
		items: make([]*T, 0, capacity),
	}
}

// Set inserts c under id, or replaces the value in place if id is present.
func (s *Store[T]) Set(id EntityID, c *T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = c
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	s.items = append(s.items, c)
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

// Remove deletes id and reports whether it was present.
func (s *Store[T]) Remove(id EntityID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	delete(s.index, id)
	copy(s.ids[i:], s.ids[i+1:])
	copy(s.items[i:], s.items[i+1:])
	last := len(s.ids) - 1
	s.ids = s.ids[:last]
	s.items[last] = nil
	s.items = s.items[:last]
	for j := i; j < last; j++ {
		s.index[s.ids[j]] = j
	}
	return true
}

func (s *Store[T]) Len() int {
	return len(s.ids)
}

// Each visits entries in insertion order until fn returns false.
func (s *Store[T]) Each(fn func(EntityID, *T) bool) {
	for i, id := range s.ids {
		if !fn(id, s.items[i]) {
			return
		}
	}
}
