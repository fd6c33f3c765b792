package category

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/event"
	"github.com/premiumrays/digital-goods-backend/internal/validation"
)

// Service provides business logic for categories. Names are unique ignoring
// case; the repository enforces the same rule as a backstop.
type Service struct {
	repo   Repository
	events event.Publisher
	now    func() time.Time
}

func NewService(r Repository, events event.Publisher) *Service {
	if events == nil {
		events = event.Discard{}
	}
	return &Service{
		repo:   r,
		events: events,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return Category{}, err
	}
	if err := s.ensureUnique(ctx, in.Name, ""); err != nil {
		return Category{}, err
	}

	ts := s.now()
	created, err := s.repo.Create(ctx, Category{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Icon:      in.Icon,
		Color:     in.Color,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return Category{}, err
	}
	s.events.Publish(ctx, event.Added(event.EntityCategory, created))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Category{}, apperr.Validation("name is required")
		}
		if err := s.ensureUnique(ctx, name, c.ID); err != nil {
			return Category{}, err
		}
		c.Name = name
	}
	if in.Icon != nil {
		c.Icon = *in.Icon
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	c.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return Category{}, err
	}
	s.events.Publish(ctx, event.Updated(event.EntityCategory, updated))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, event.Deleted(event.EntityCategory, id))
	return nil
}

// ensureUnique fails when another category (not exceptID) already uses name
// in any casing.
func (s *Service) ensureUnique(ctx context.Context, name, exceptID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == exceptID:
		return nil
	default:
		return duplicate(name)
	}
}
