package settings

import (
	"context"
	"maps"
	"sync"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

// Repository stores the single settings record.
type Repository interface {
	// Get returns apperr.ErrNotFound until the record exists.
	Get(ctx context.Context) (Settings, error)
	// InsertIfAbsent stores s unless a record exists and returns the stored
	// record either way.
	InsertIfAbsent(ctx context.Context, s Settings) (Settings, error)
	// Save overwrites the record, creating it when missing.
	Save(ctx context.Context, s Settings) (Settings, error)
}

var errMissing = apperr.NotFound("settings", "1")

type InMemoryRepository struct {
	mu     sync.RWMutex
	stored *Settings
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Get(ctx context.Context) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stored == nil {
		return Settings{}, errMissing
	}
	return clone(*r.stored), nil
}

func (r *InMemoryRepository) InsertIfAbsent(ctx context.Context, s Settings) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stored == nil {
		c := clone(s)
		r.stored = &c
	}
	return clone(*r.stored), nil
}

func (r *InMemoryRepository) Save(ctx context.Context, s Settings) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := clone(s)
	r.stored = &c
	return clone(c), nil
}

func clone(s Settings) Settings {
	s.Wallets = maps.Clone(s.Wallets)
	if s.Wallets == nil {
		s.Wallets = map[string]string{}
	}
	return s
}
