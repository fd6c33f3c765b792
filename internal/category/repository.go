package category

import (
	"context"
	"strings"
	"sync"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

type Repository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (Category, error)
	// FindByName matches case-insensitively.
	FindByName(ctx context.Context, name string) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id string) error
}

func notFound(id string) error { return apperr.NotFound("category", id) }

func duplicate(name string) error {
	return apperr.Conflict("category %q already exists", name)
}

// InMemoryRepository enforces the same case-insensitive name uniqueness as the
// database index.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Category
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	return &InMemoryRepository{storage: append([]Category(nil), seed...)}
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, len(r.storage))
	copy(out, r.storage)
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, notFound(id)
}

func (r *InMemoryRepository) FindByName(ctx context.Context, name string) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Category{}, notFound(name)
}

func (r *InMemoryRepository) Create(ctx context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(c.Name, "") {
		return Category{}, duplicate(c.Name)
	}
	r.storage = append(r.storage, c)
	return c, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(c.Name, c.ID) {
		return Category{}, duplicate(c.Name)
	}
	for i := range r.storage {
		if r.storage[i].ID == c.ID {
			r.storage[i] = c
			return c, nil
		}
	}
	return Category{}, notFound(c.ID)
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

func (r *InMemoryRepository) nameTaken(name, exceptID string) bool {
	for _, c := range r.storage {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
