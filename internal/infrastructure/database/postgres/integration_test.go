//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/category"
	"github.com/premiumrays/digital-goods-backend/internal/event"
	"github.com/premiumrays/digital-goods-backend/internal/infrastructure/database/postgres"
	"github.com/premiumrays/digital-goods-backend/internal/product"
	"github.com/premiumrays/digital-goods-backend/internal/purchase"
	"github.com/premiumrays/digital-goods-backend/internal/settings"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("docker not available")
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "store",
				"POSTGRES_PASSWORD": "store",
				"POSTGRES_DB":       "store",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	db, err := postgres.Open(ctx, postgres.Options{
		URL: fmt.Sprintf("postgres://store:store@%s:%s/store?sslmode=disable", host, port.Port()),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// twice: bootstrap must be idempotent
	for i := 0; i < 2; i++ {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			t.Fatalf("ensure schema (run %d): %v", i+1, err)
		}
	}
	return db
}

func TestPostgres_StoreRoundTrip(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	events := &event.Recorder{}
	products := product.NewService(product.NewPostgresRepository(db), events)
	categories := category.NewService(category.NewPostgresRepository(db), events)
	settingsSvc := settings.NewService(settings.NewPostgresRepository(db), events, settings.Defaults{
		AppTitle: "Store",
		Wallets:  map[string]string{"BTC": "bc1qstore"},
	})
	purchases := purchase.NewService(purchase.NewPostgresRepository(db), products, settingsSvc, events, purchase.Options{
		PayPalMeLink: "https://paypal.me/store",
		Policies:     purchase.Policies{PayPalInstantGrant: true},
	})

	t.Run("product sale round trip", func(t *testing.T) {
		p, err := products.Create(ctx, product.CreateInput{
			Name:  "Preset Pack",
			Price: 20,
			Files: []product.File{{Name: "presets.zip", Path: "/uploads/presets.zip"}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		onSale, percent := true, 20
		updated, err := products.Update(ctx, p.ID, product.UpdateInput{OnSale: &onSale, SalePercent: &percent})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Price != 16 || updated.OriginalPrice == nil || *updated.OriginalPrice != 20 {
			t.Fatalf("unexpected sale pricing %+v", updated)
		}
		got, err := products.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Price != 16 || len(got.Files) != 1 || !got.CreatedAt.Equal(p.CreatedAt) {
			t.Fatalf("stored product differs: %+v", got)
		}
	})

	t.Run("category names are unique ignoring case", func(t *testing.T) {
		if _, err := categories.Create(ctx, category.CreateInput{Name: "Presets"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		_, err := categories.Create(ctx, category.CreateInput{Name: "PRESETS"})
		if !errors.Is(err, apperr.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("settings are created lazily", func(t *testing.T) {
		s, err := settingsSvc.Get(ctx)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if s.AppTitle != "Store" || s.Wallets["BTC"] != "bc1qstore" {
			t.Fatalf("unexpected defaults %+v", s)
		}
	})

	t.Run("concurrent approvals complete once", func(t *testing.T) {
		list, err := products.List(ctx)
		if err != nil || len(list) == 0 {
			t.Fatalf("list products: %v", err)
		}
		p, err := purchases.Create(ctx, purchase.CreateInput{
			UserID:         "u1",
			ProductID:      list[0].ID,
			Amount:         16,
			PaymentMethod:  purchase.MethodCrypto,
			CryptoCurrency: "BTC",
		})
		if err != nil {
			t.Fatalf("create purchase: %v", err)
		}
		if p.Status != purchase.StatusPending || p.CryptoAddress != "bc1qstore" {
			t.Fatalf("unexpected purchase %+v", p)
		}

		before := events.Count("purchase-updated")
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := purchases.Approve(ctx, p.ID, "admin")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("approve: %v", err)
			}
		}
		if n := events.Count("purchase-updated") - before; n != 1 {
			t.Fatalf("expected exactly one transition event, got %d", n)
		}

		done, err := purchases.List(ctx, purchase.Filter{UserID: "u1", Statuses: []purchase.Status{purchase.StatusCompleted}})
		if err != nil {
			t.Fatalf("list purchases: %v", err)
		}
		if len(done) != 1 || len(done[0].Files) != 1 {
			t.Fatalf("expected the completed purchase with its files, got %+v", done)
		}
	})
}
