package banner

import (
	"context"
	"sort"
	"sync"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

// Repository provides access to banners. List orders by Order, then by
// creation.
type Repository interface {
	List(ctx context.Context) ([]Banner, error)
	GetByID(ctx context.Context, id string) (Banner, error)
	Create(ctx context.Context, b Banner) (Banner, error)
	Update(ctx context.Context, b Banner) (Banner, error)
	Delete(ctx context.Context, id string) error
}

func notFound(id string) error { return apperr.NotFound("banner", id) }

type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Banner
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Banner, error) {
	r.mu.RLock()
	out := make([]Banner, len(r.storage))
	copy(out, r.storage)
	r.mu.RUnlock()

	// storage is in creation order, so a stable sort keeps it as the tiebreak
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Banner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.storage {
		if b.ID == id {
			return b, nil
		}
	}
	return Banner{}, notFound(id)
}

func (r *InMemoryRepository) Create(ctx context.Context, b Banner) (Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = append(r.storage, b)
	return b, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, b Banner) (Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == b.ID {
			r.storage[i] = b
			return b, nil
		}
	}
	return Banner{}, notFound(b.ID)
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
