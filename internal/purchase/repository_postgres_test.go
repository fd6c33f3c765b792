package purchase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

var purchaseRowColumns = []string{"id", "user_id", "product_id", "product_name", "amount", "currency", "payment_method",
	"crypto_currency", "crypto_address", "payment_url", "tx_hash", "status", "files",
	"created_at", "updated_at", "approved_at", "approved_by", "rejected_at"}

func purchaseRow(rows *sqlmock.Rows, id string, status Status, approvedAt any) *sqlmock.Rows {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "u1", "p1", "Preset pack", "40.00", "USD", "crypto",
		"BTC", "bc1q", "", "", string(status), []byte(`[{"name":"presets.zip","path":"/uploads/presets.zip"}]`),
		ts, ts, approvedAt, "", nil)
}

func TestPostgresRepository_ListFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	approved := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM purchases").
		WithArgs(pq.Array([]string{"completed", "rejected"}), "u1", "").
		WillReturnRows(purchaseRow(sqlmock.NewRows(purchaseRowColumns), "x1", StatusCompleted, approved))

	items, err := repo.List(context.Background(), Filter{UserID: "u1", Statuses: []Status{StatusCompleted, StatusRejected}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Amount != 40 || items[0].ApprovedAt == nil || len(items[0].Files) != 1 {
		t.Fatalf("unexpected purchases %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CompareAndSetLost(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("UPDATE purchases").WillReturnRows(sqlmock.NewRows(purchaseRowColumns))
	mock.ExpectQuery("FROM purchases WHERE id").WithArgs("x1").
		WillReturnRows(purchaseRow(sqlmock.NewRows(purchaseRowColumns), "x1", StatusCompleted, time.Now()))

	stored, applied, err := repo.CompareAndSet(context.Background(), Purchase{ID: "x1", Status: StatusCompleted}, StatusPending)
	if err != nil {
		t.Fatalf("cas: %v", err)
	}
	if applied || stored.Status != StatusCompleted {
		t.Fatalf("expected lost race to report stored record, got applied=%v %+v", applied, stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CompareAndSetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("UPDATE purchases").WillReturnRows(sqlmock.NewRows(purchaseRowColumns))
	mock.ExpectQuery("FROM purchases WHERE id").WithArgs("gone").WillReturnRows(sqlmock.NewRows(purchaseRowColumns))

	_, _, err = repo.CompareAndSet(context.Background(), Purchase{ID: "gone", Status: StatusCompleted}, StatusPending)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
