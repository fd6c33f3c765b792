package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/premiumrays/digital-goods-backend/internal/infrastructure/database/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	categoryColumns = `id, name, icon, color, created_at, updated_at`

	listCategoriesQuery = `SELECT ` + categoryColumns + ` FROM categories ORDER BY created_at, id`
	getCategoryQuery    = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	findCategoryQuery   = `SELECT ` + categoryColumns + ` FROM categories WHERE lower(name) = lower($1)`
	insertCategoryQuery = `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING ` + categoryColumns
	updateCategoryQuery = `
		UPDATE categories SET name = $2, icon = $3, color = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + categoryColumns
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Category{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Category, error) {
	return r.getOne(ctx, getCategoryQuery, id)
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (Category, error) {
	return r.getOne(ctx, findCategoryQuery, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, key string) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, notFound(key)
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	created, err := scanCategory(r.db.QueryRowContext(ctx, insertCategoryQuery,
		c.ID, c.Name, c.Icon, c.Color, c.CreatedAt, c.UpdatedAt))
	if postgres.IsUniqueViolation(err, postgres.CategoryNameIndex) {
		return Category{}, duplicate(c.Name)
	}
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c Category) (Category, error) {
	updated, err := scanCategory(r.db.QueryRowContext(ctx, updateCategoryQuery,
		c.ID, c.Name, c.Icon, c.Color, c.UpdatedAt))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Category{}, notFound(c.ID)
	case postgres.IsUniqueViolation(err, postgres.CategoryNameIndex):
		return Category{}, duplicate(c.Name)
	case err != nil:
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}
