package owners

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	owners map[string]Owner
}

// NewMemoryRepository builds an in-memory owner store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{owners: make(map[string]Owner)}
}

func (r *memoryRepository) Create(_ context.Context, owner Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.owners {
		if existing.Email == owner.Email {
			return errors.New("owner exists")
		}
	}
	r.owners[owner.ID] = owner
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[id]
	if !ok {
		return Owner{}, ErrNotFound
	}
	return owner, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, owner := range r.owners {
		if owner.Email == email {
			return owner, nil
		}
	}
	return Owner{}, ErrNotFound
}
