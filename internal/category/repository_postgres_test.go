package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/infrastructure/database/postgres"
)

func TestPostgresRepository_CreateUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO categories").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: postgres.CategoryNameIndex})

	ts := time.Now().UTC()
	_, err = repo.Create(context.Background(), Category{ID: "c1", Name: "Crypto", CreatedAt: ts, UpdatedAt: ts})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPostgresRepository_FindByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`WHERE lower\(name\) = lower\(\$1\)`).WithArgs("CRYPTO").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "icon", "color", "created_at", "updated_at"}).
			AddRow("c1", "Crypto", "₿", "#f7931a", ts, ts))

	c, err := repo.FindByName(context.Background(), "CRYPTO")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.ID != "c1" || c.Name != "Crypto" {
		t.Fatalf("unexpected category %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
