package memory

import (
	"context"
	"sync"

	"staybook/internal/domain/catalog"
)

// PropertyRepository is an in-memory catalog read model, seeded at startup or
// by tests.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[catalog.PropertyID]catalog.Property
}

func NewPropertyRepository(seed ...catalog.Property) *PropertyRepository {
	repo := &PropertyRepository{items: make(map[catalog.PropertyID]catalog.Property, len(seed))}
	for _, p := range seed {
		repo.items[p.ID] = p
	}
	return repo
}

func (r *PropertyRepository) ByID(_ context.Context, id catalog.PropertyID) (*catalog.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, catalog.ErrPropertyNotFound
	}
	copied := p
	return &copied, nil
}

// Put inserts or replaces a property.
func (r *PropertyRepository) Put(p catalog.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
}
