package descriptor

import (
	"fmt"
)

// Registry stores registered entity descriptors. Registration happens at
// process start; lookups are read-only afterwards, so no locking is needed.
type Registry struct {
	entities map[string]*Entity
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register compiles and stores a descriptor. Duplicate keys are an error:
// the key is the global identity of the entity type.
func (r *Registry) Register(d Descriptor) error {
	if _, exists := r.entities[d.Key]; exists {
		return fmt.Errorf("descriptor %q already registered", d.Key)
	}

	e, err := compile(d)
	if err != nil {
		return err
	}

	r.entities[d.Key] = e
	r.order = append(r.order, d.Key)
	return nil
}

// MustRegister is Register that panics on error. Use for the static
// registrations in cmd/server.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get returns the entity for a key.
func (r *Registry) Get(key string) (*Entity, bool) {
	e, ok := r.entities[key]
	return e, ok
}

// List returns all entities in registration order.
func (r *Registry) List() []*Entity {
	list := make([]*Entity, 0, len(r.order))
	for _, key := range r.order {
		list = append(list, r.entities[key])
	}
	return list
}

// ByImportExportKey resolves an entity by its canonical import/export key.
func (r *Registry) ByImportExportKey(key string) (*Entity, bool) {
	if key == "" {
		return nil, false
	}
	for _, k := range r.order {
		e := r.entities[k]
		if e.ImportExportKey == key {
			return e, true
		}
	}
	return nil, false
}
