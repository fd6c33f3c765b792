package product

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/premiumrays/digital-goods-backend/internal/event"
)

func newTestApp(rec *event.Recorder) *fiber.App {
	app := fiber.New()
	NewHandler(NewService(NewInMemoryRepository(nil), rec)).RegisterRoutes(app.Group("/api"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	out := map[string]any{}
	raw, _ := io.ReadAll(res.Body)
	_ = json.Unmarshal(raw, &out)
	return res.StatusCode, out
}

func TestHandler_CreateAndDiscount(t *testing.T) {
	rec := &event.Recorder{}
	app := newTestApp(rec)

	status, created := doJSON(t, app, "POST", "/api/products", `{"name":"X","price":20}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", status, created)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected generated id, got %v", created)
	}

	status, patched := doJSON(t, app, "PATCH", "/api/products/"+id, `{"onSale":true,"salePercent":20}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, patched)
	}
	if patched["price"] != 16.0 || patched["originalPrice"] != 20.0 {
		t.Fatalf("unexpected sale prices %v", patched)
	}
	if rec.Count("product-updated") != 1 {
		t.Fatalf("expected one product-updated, got %v", rec.Names())
	}
}

func TestHandler_Errors(t *testing.T) {
	app := newTestApp(&event.Recorder{})

	status, body := doJSON(t, app, "POST", "/api/products", `{"price":3}`)
	if status != fiber.StatusBadRequest || !strings.Contains(body["message"].(string), "name is required") {
		t.Fatalf("expected 400 name is required, got %d %v", status, body)
	}

	status, _ = doJSON(t, app, "GET", "/api/products/nope", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}

	status, _ = doJSON(t, app, "DELETE", "/api/products/nope", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestHandler_Delete(t *testing.T) {
	rec := &event.Recorder{}
	app := newTestApp(rec)
	_, created := doJSON(t, app, "POST", "/api/products", `{"name":"Font bundle","price":5}`)
	id := created["id"].(string)

	status, body := doJSON(t, app, "DELETE", "/api/products/"+id, "")
	if status != fiber.StatusOK || body["success"] != true || body["id"] != id {
		t.Fatalf("unexpected delete response %d %v", status, body)
	}
	if rec.Count("product-deleted") != 1 {
		t.Fatalf("expected product-deleted, got %v", rec.Names())
	}
}
