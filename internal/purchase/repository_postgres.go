package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/premiumrays/digital-goods-backend/internal/product"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	purchaseColumns = `id, user_id, product_id, product_name, amount, currency, payment_method, crypto_currency, crypto_address, payment_url, tx_hash, status, files, created_at, updated_at, approved_at, approved_by, rejected_at`

	listPurchasesQuery = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE ($1::text[] IS NULL OR status = ANY($1::text[]))
		  AND ($2 = '' OR user_id = $2)
		  AND ($3 = '' OR payment_method = $3)
		ORDER BY created_at, id
	`
	getPurchaseQuery    = `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	insertPurchaseQuery = `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING ` + purchaseColumns
	// status = $2 makes concurrent transitions from the same state exclusive
	casPurchaseQuery = `
		UPDATE purchases
		SET status = $3, tx_hash = $4, approved_at = $5, approved_by = $6, rejected_at = $7, updated_at = $8
		WHERE id = $1 AND status = $2
		RETURNING ` + purchaseColumns
	deletePurchaseQuery = `DELETE FROM purchases WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanPurchase(row interface{ Scan(...any) error }) (Purchase, error) {
	var (
		p          Purchase
		amount     decimal.Decimal
		files      []byte
		approvedAt sql.NullTime
		rejectedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.ProductName, &amount, &p.Currency, &p.PaymentMethod,
		&p.CryptoCurrency, &p.CryptoAddress, &p.PaymentURL, &p.TxHash, &p.Status, &files,
		&p.CreatedAt, &p.UpdatedAt, &approvedAt, &p.ApprovedBy, &rejectedAt); err != nil {
		return Purchase{}, err
	}
	p.Amount = amount.InexactFloat64()
	if len(files) > 0 {
		if err := json.Unmarshal(files, &p.Files); err != nil {
			return Purchase{}, fmt.Errorf("decode purchase files: %w", err)
		}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if approvedAt.Valid {
		t := approvedAt.Time.UTC()
		p.ApprovedAt = &t
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time.UTC()
		p.RejectedAt = &t
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Purchase, error) {
	var statuses []string
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}
	rows, err := r.db.QueryContext(ctx, listPurchasesQuery, pq.Array(statuses), f.UserID, string(f.Method))
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	out := []Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Purchase, error) {
	p, err := scanPurchase(r.db.QueryRowContext(ctx, getPurchaseQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Purchase{}, notFound(id)
	}
	if err != nil {
		return Purchase{}, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Purchase) (Purchase, error) {
	files, err := encodeFiles(p.Files)
	if err != nil {
		return Purchase{}, err
	}
	created, err := scanPurchase(r.db.QueryRowContext(ctx, insertPurchaseQuery,
		p.ID, p.UserID, p.ProductID, p.ProductName, decimal.NewFromFloat(p.Amount), p.Currency, string(p.PaymentMethod),
		p.CryptoCurrency, p.CryptoAddress, p.PaymentURL, p.TxHash, string(p.Status), files,
		p.CreatedAt, p.UpdatedAt, nullTime(p.ApprovedAt), p.ApprovedBy, nullTime(p.RejectedAt)))
	if err != nil {
		return Purchase{}, fmt.Errorf("insert purchase: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) CompareAndSet(ctx context.Context, p Purchase, from Status) (Purchase, bool, error) {
	updated, err := scanPurchase(r.db.QueryRowContext(ctx, casPurchaseQuery,
		p.ID, string(from), string(p.Status), p.TxHash, nullTime(p.ApprovedAt), p.ApprovedBy, nullTime(p.RejectedAt), p.UpdatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		// missing, or another writer moved it first
		current, err := r.GetByID(ctx, p.ID)
		if err != nil {
			return Purchase{}, false, err
		}
		return current, false, nil
	}
	if err != nil {
		return Purchase{}, false, fmt.Errorf("update purchase: %w", err)
	}
	return updated, true, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deletePurchaseQuery, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
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

func encodeFiles(files []product.File) ([]byte, error) {
	if files == nil {
		files = []product.File{}
	}
	return json.Marshal(files)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
