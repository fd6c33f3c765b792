package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	counter := RequestCounter.WithLabelValues("GET", "/items/:id", "204")
	before := testutil.ToFloat64(counter)

	for i := 0; i < 2; i++ {
		if _, err := app.Test(httptest.NewRequest("GET", "/items/42", nil)); err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("expected 2 requests counted under the route template, got %v", got)
	}
}
