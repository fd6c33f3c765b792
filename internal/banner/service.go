package banner

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/event"
	"github.com/premiumrays/digital-goods-backend/internal/validation"
)

type Service struct {
	repo   Repository
	events event.Publisher
}

func NewService(r Repository, events event.Publisher) *Service {
	if events == nil {
		events = event.Discard{}
	}
	return &Service{repo: r, events: events}
}

func (s *Service) List(ctx context.Context) ([]Banner, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Banner, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Banner, error) {
	in.Image = strings.TrimSpace(in.Image)
	if err := validation.Struct(in); err != nil {
		return Banner{}, err
	}
	ts := time.Now().UTC().Truncate(time.Microsecond)
	created, err := s.repo.Create(ctx, Banner{
		ID:        uuid.NewString(),
		Image:     in.Image,
		Link:      strings.TrimSpace(in.Link),
		Order:     in.Order,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return Banner{}, err
	}
	s.events.Publish(ctx, event.Added(event.EntityBanner, created))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Banner, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Banner{}, err
	}
	if in.Image != nil {
		img := strings.TrimSpace(*in.Image)
		if img == "" {
			return Banner{}, apperr.Validation("image is required")
		}
		b.Image = img
	}
	if in.Link != nil {
		b.Link = strings.TrimSpace(*in.Link)
	}
	if in.Order != nil {
		b.Order = *in.Order
	}
	b.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	updated, err := s.repo.Update(ctx, b)
	if err != nil {
		return Banner{}, err
	}
	s.events.Publish(ctx, event.Updated(event.EntityBanner, updated))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, event.Deleted(event.EntityBanner, id))
	return nil
}
