package settings

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/event"
	"github.com/premiumrays/digital-goods-backend/internal/validation"
)

type Service struct {
	repo     Repository
	events   event.Publisher
	defaults Defaults
}

func NewService(repo Repository, events event.Publisher, defaults Defaults) *Service {
	if events == nil {
		events = event.Discard{}
	}
	return &Service{repo: repo, events: events, defaults: defaults}
}

// Get returns the settings, creating them from the defaults on first access.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	current, err := s.repo.Get(ctx)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Settings{}, err
	}
	return s.repo.InsertIfAbsent(ctx, Settings{
		AppTitle:    s.defaults.AppTitle,
		AppSubtitle: s.defaults.AppSubtitle,
		Accent:      s.defaults.Accent,
		Wallets:     normalizeWallets(s.defaults.Wallets),
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	})
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (Settings, error) {
	if err := validation.Struct(in); err != nil {
		return Settings{}, err
	}
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	if in.AppTitle != nil {
		current.AppTitle = strings.TrimSpace(*in.AppTitle)
	}
	if in.AppSubtitle != nil {
		current.AppSubtitle = strings.TrimSpace(*in.AppSubtitle)
	}
	if in.Accent != nil {
		current.Accent = strings.TrimSpace(*in.Accent)
	}
	if in.Wallets != nil {
		wallets := maps.Clone(current.Wallets)
		if wallets == nil {
			wallets = map[string]string{}
		}
		for symbol, addr := range in.Wallets {
			key := NormalizeSymbol(symbol)
			if key == "" {
				return Settings{}, apperr.Validation("wallet symbol is required")
			}
			if addr = strings.TrimSpace(addr); addr == "" {
				delete(wallets, key)
				continue
			}
			wallets[key] = addr
		}
		current.Wallets = wallets
	}
	current.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return Settings{}, err
	}
	s.events.Publish(ctx, event.Updated(event.EntitySettings, saved))
	return saved, nil
}

// WalletAddress returns the configured receiving address for a currency
// symbol, or "" when none is set.
func (s *Service) WalletAddress(ctx context.Context, symbol string) (string, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return current.Wallets[NormalizeSymbol(symbol)], nil
}
