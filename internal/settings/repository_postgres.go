package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// PostgresRepository keeps the singleton in row id = 1.
type PostgresRepository struct {
	db *sql.DB
}

const (
	settingsColumns = `app_title, app_subtitle, accent, wallets, updated_at`

	getSettingsQuery = `SELECT ` + settingsColumns + ` FROM settings WHERE id = 1`

	insertSettingsQuery = `
		INSERT INTO settings (id, ` + settingsColumns + `)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	upsertSettingsQuery = `
		INSERT INTO settings (id, ` + settingsColumns + `)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET app_title = EXCLUDED.app_title,
		    app_subtitle = EXCLUDED.app_subtitle,
		    accent = EXCLUDED.accent,
		    wallets = EXCLUDED.wallets,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + settingsColumns
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanSettings(row interface{ Scan(...any) error }) (Settings, error) {
	var (
		s       Settings
		wallets []byte
	)
	if err := row.Scan(&s.AppTitle, &s.AppSubtitle, &s.Accent, &wallets, &s.UpdatedAt); err != nil {
		return Settings{}, err
	}
	s.Wallets = map[string]string{}
	if len(wallets) > 0 {
		if err := json.Unmarshal(wallets, &s.Wallets); err != nil {
			return Settings{}, fmt.Errorf("decode wallets: %w", err)
		}
	}
	if s.Wallets == nil {
		s.Wallets = map[string]string{}
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func (r *PostgresRepository) Get(ctx context.Context) (Settings, error) {
	s, err := scanSettings(r.db.QueryRowContext(ctx, getSettingsQuery))
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, errMissing
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, s Settings) (Settings, error) {
	wallets, err := json.Marshal(s.Wallets)
	if err != nil {
		return Settings{}, err
	}
	if _, err := r.db.ExecContext(ctx, insertSettingsQuery, s.AppTitle, s.AppSubtitle, s.Accent, wallets, s.UpdatedAt); err != nil {
		return Settings{}, fmt.Errorf("insert settings: %w", err)
	}
	return r.Get(ctx)
}

func (r *PostgresRepository) Save(ctx context.Context, s Settings) (Settings, error) {
	wallets, err := json.Marshal(s.Wallets)
	if err != nil {
		return Settings{}, err
	}
	saved, err := scanSettings(r.db.QueryRowContext(ctx, upsertSettingsQuery, s.AppTitle, s.AppSubtitle, s.Accent, wallets, s.UpdatedAt))
	if err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return saved, nil
}
