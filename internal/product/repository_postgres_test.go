package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

var productRowColumns = []string{"id", "name", "price", "description", "category", "thumbnail", "rating", "files", "on_sale", "sale_percent", "original_price", "created_at", "updated_at"}

func TestPostgresRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(productRowColumns).
		AddRow("p1", "Icons", "16.00", "", "Design", "🎨", 4.5, []byte(`[{"name":"icons.zip","path":"/uploads/icons.zip"}]`), true, 20, "20.00", ts, ts)
	mock.ExpectQuery("FROM products").WithArgs("p1").WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Price != 16 || p.OriginalPrice == nil || *p.OriginalPrice != 20 {
		t.Fatalf("unexpected prices %+v", p)
	}
	if len(p.Files) != 1 || p.Files[0].Name != "icons.zip" {
		t.Fatalf("unexpected files %+v", p.Files)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_GetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM products").WithArgs("nope").WillReturnRows(sqlmock.NewRows(productRowColumns))

	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO products").
		WithArgs("p2", "Fonts", sqlmock.AnyArg(), "", "", "", 0.0, []byte(`[]`), false, 0, nil, ts, ts).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow("p2", "Fonts", "5.00", "", "", "", 0.0, []byte(`[]`), false, 0, nil, ts, ts))

	p, err := repo.Create(context.Background(), Product{ID: "p2", Name: "Fonts", Price: 5, Files: []File{}, CreatedAt: ts, UpdatedAt: ts})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Price != 5 || p.OriginalPrice != nil || len(p.Files) != 0 {
		t.Fatalf("unexpected product %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM products").WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
