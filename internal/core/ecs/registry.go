package ecs

// Registry tracks every component store of a World so destroying an entity
// strips it from all of them at once.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{stores: make([]Removable, 0, 8)}
}

func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

// Len returns the number of registered stores.
func (r *Registry) Len() int { return len(r.stores) }
