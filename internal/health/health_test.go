package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type clients int

func (c clients) ClientCount() int { return int(c) }

func TestHealth(t *testing.T) {
	cases := []struct {
		name   string
		db     Pinger
		code   int
		status string
	}{
		{"db up", pinger{}, fiber.StatusOK, "healthy"},
		{"db down", pinger{err: errors.New("connection refused")}, fiber.StatusServiceUnavailable, "degraded"},
		{"no db", nil, fiber.StatusServiceUnavailable, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			NewHandler(tc.db, clients(3), "test").RegisterRoutes(app.Group("/api"))

			res, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if res.StatusCode != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, res.StatusCode)
			}
			var st Status
			if err := json.NewDecoder(res.Body).Decode(&st); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if st.Status != tc.status || st.RealtimeClients != 3 || st.Version != "test" {
				t.Fatalf("unexpected status %+v", st)
			}
		})
	}
}
