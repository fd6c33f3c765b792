package product

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
	now    func() time.Time
}

func NewService(repo Repository, events event.Publisher) *Service {
	if events == nil {
		events = event.Discard{}
	}
	return &Service{repo: repo, events: events, now: now}
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return Product{}, err
	}

	ts := s.now()
	p := Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Price:       RoundCents(in.Price),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Thumbnail:   in.Thumbnail,
		Rating:      in.Rating,
		Files:       in.Files,
		OnSale:      in.OnSale,
		SalePercent: in.SalePercent,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if p.Files == nil {
		p.Files = []File{}
	}
	applySale(&p)

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.events.Publish(ctx, event.Added(event.EntityProduct, created))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	if err := validation.Struct(in); err != nil {
		return Product{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Product{}, apperr.Validation("name is required")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Thumbnail != nil {
		p.Thumbnail = *in.Thumbnail
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.Files != nil {
		p.Files = in.Files
	}
	if in.Price != nil {
		price := RoundCents(*in.Price)
		if p.OnSale {
			// a new regular price while discounted
			p.OriginalPrice = &price
		} else {
			p.Price = price
		}
	}
	if in.OnSale != nil {
		p.OnSale = *in.OnSale
	}
	if in.SalePercent != nil {
		p.SalePercent = *in.SalePercent
	}
	applySale(&p)
	p.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.events.Publish(ctx, event.Updated(event.EntityProduct, updated))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, event.Deleted(event.EntityProduct, id))
	return nil
}
