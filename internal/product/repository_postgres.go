package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, name, price, description, category, thumbnail, rating, files, on_sale, sale_percent, original_price, created_at, updated_at`

	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at, id
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	insertProductQuery = `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING ` + productColumns
	updateProductQuery = `
		UPDATE products
		SET name = $2, price = $3, description = $4, category = $5, thumbnail = $6, rating = $7,
		    files = $8, on_sale = $9, sale_percent = $10, original_price = $11, updated_at = $12
		WHERE id = $1
		RETURNING ` + productColumns
	deleteProductQuery = `DELETE FROM products WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p        Product
		price    decimal.Decimal
		original decimal.NullDecimal
		files    []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Description, &p.Category, &p.Thumbnail, &p.Rating,
		&files, &p.OnSale, &p.SalePercent, &original, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	p.Price = price.InexactFloat64()
	if original.Valid {
		v := original.Decimal.InexactFloat64()
		p.OriginalPrice = &v
	}
	p.Files = []File{}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &p.Files); err != nil {
			return Product{}, fmt.Errorf("decode product files: %w", err)
		}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, notFound(id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	files, err := json.Marshal(p.Files)
	if err != nil {
		return Product{}, err
	}
	created, err := scanProduct(r.db.QueryRowContext(ctx, insertProductQuery,
		p.ID, p.Name, decimal.NewFromFloat(p.Price), p.Description, p.Category, p.Thumbnail, p.Rating,
		files, p.OnSale, p.SalePercent, nullDecimal(p.OriginalPrice), p.CreatedAt, p.UpdatedAt))
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	files, err := json.Marshal(p.Files)
	if err != nil {
		return Product{}, err
	}
	updated, err := scanProduct(r.db.QueryRowContext(ctx, updateProductQuery,
		p.ID, p.Name, decimal.NewFromFloat(p.Price), p.Description, p.Category, p.Thumbnail, p.Rating,
		files, p.OnSale, p.SalePercent, nullDecimal(p.OriginalPrice), p.UpdatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, notFound(p.ID)
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
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

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v), Valid: true}
}
