package purchase

import (
	"context"
	"sync"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/product"
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]Purchase, error)
	GetByID(ctx context.Context, id string) (Purchase, error)
	Create(ctx context.Context, p Purchase) (Purchase, error)
	// CompareAndSet stores p only while the stored status still equals from.
	// When it does not, the stored record is returned with applied false.
	CompareAndSet(ctx context.Context, p Purchase, from Status) (stored Purchase, applied bool, err error)
	Delete(ctx context.Context, id string) error
}

func notFound(id string) error { return apperr.NotFound("purchase", id) }

type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Purchase
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) List(ctx context.Context, f Filter) ([]Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Purchase{}
	for _, p := range r.storage {
		if f.match(p) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		return clone(r.storage[i]), nil
	}
	return Purchase{}, notFound(id)
}

func (r *InMemoryRepository) Create(ctx context.Context, p Purchase) (Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = append(r.storage, clone(p))
	return clone(p), nil
}

func (r *InMemoryRepository) CompareAndSet(ctx context.Context, p Purchase, from Status) (Purchase, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(p.ID)
	if i < 0 {
		return Purchase{}, false, notFound(p.ID)
	}
	if r.storage[i].Status != from {
		return clone(r.storage[i]), false, nil
	}
	r.storage[i] = clone(p)
	return clone(p), true, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return notFound(id)
	}
	r.storage = append(r.storage[:i], r.storage[i+1:]...)
	return nil
}

func (r *InMemoryRepository) index(id string) int {
	for i := range r.storage {
		if r.storage[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(p Purchase) Purchase {
	if p.Files != nil {
		p.Files = append([]product.File(nil), p.Files...)
	}
	return p
}
