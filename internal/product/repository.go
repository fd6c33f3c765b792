package product

import (
	"context"
	"sync"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
}

func notFound(id string) error { return apperr.NotFound("product", id) }

// InMemoryRepository keeps products in creation order; used by tests and
// local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Product, 0, len(seed))}
	for _, p := range seed {
		r.storage = append(r.storage, clone(p))
	}
	return r
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		out = append(out, clone(p))
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return clone(p), nil
		}
	}
	return Product{}, notFound(id)
}

func (r *InMemoryRepository) Create(ctx context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = append(r.storage, clone(p))
	return clone(p), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == p.ID {
			r.storage[i] = clone(p)
			return clone(p), nil
		}
	}
	return Product{}, notFound(p.ID)
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func clone(p Product) Product {
	if p.Files != nil {
		p.Files = append([]File(nil), p.Files...)
	}
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		p.OriginalPrice = &v
	}
	return p
}
