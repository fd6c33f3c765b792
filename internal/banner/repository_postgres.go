package banner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

const (
	bannerColumns = `id, image, link, ord, created_at, updated_at`

	listBannersQuery = `SELECT ` + bannerColumns + ` FROM banners ORDER BY ord, created_at, id`
	getBannerQuery   = `SELECT ` + bannerColumns + ` FROM banners WHERE id = $1`
	insertBannerQuery = `
		INSERT INTO banners (` + bannerColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING ` + bannerColumns
	updateBannerQuery = `
		UPDATE banners SET image = $2, link = $3, ord = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + bannerColumns
	deleteBannerQuery = `DELETE FROM banners WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanBanner(row interface{ Scan(...any) error }) (Banner, error) {
	var (
		b    Banner
		link sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Image, &link, &b.Order, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Banner{}, err
	}
	b.Link = link.String
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Banner, error) {
	rows, err := r.db.QueryContext(ctx, listBannersQuery)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()

	out := make([]Banner, 0)
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan banner: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Banner, error) {
	b, err := scanBanner(r.db.QueryRowContext(ctx, getBannerQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Banner{}, notFound(id)
	}
	if err != nil {
		return Banner{}, fmt.Errorf("get banner: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, b Banner) (Banner, error) {
	created, err := scanBanner(r.db.QueryRowContext(ctx, insertBannerQuery,
		b.ID, b.Image, b.Link, b.Order, b.CreatedAt, b.UpdatedAt))
	if err != nil {
		return Banner{}, fmt.Errorf("insert banner: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b Banner) (Banner, error) {
	updated, err := scanBanner(r.db.QueryRowContext(ctx, updateBannerQuery,
		b.ID, b.Image, b.Link, b.Order, b.UpdatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return Banner{}, notFound(b.ID)
	}
	if err != nil {
		return Banner{}, fmt.Errorf("update banner: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteBannerQuery, id)
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return notFound(id)
	}
	return nil
}
