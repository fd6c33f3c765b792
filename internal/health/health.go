// Package health reports liveness and store connectivity.
package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ClientCounter is satisfied by the realtime hub.
type ClientCounter interface {
	ClientCount() int
}

type Status struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"databaseConnected"`
	RealtimeClients   int     `json:"realtimeClients"`
	Uptime            float64 `json:"uptimeSeconds"`
	Version           string  `json:"version"`
}

type Handler struct {
	db        Pinger
	realtime  ClientCounter
	version   string
	startTime time.Time
	timeout   time.Duration
}

func NewHandler(db Pinger, realtime ClientCounter, version string) *Handler {
	return &Handler{db: db, realtime: realtime, version: version, startTime: time.Now(), timeout: 2 * time.Second}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.health)
}

func (h *Handler) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	st := Status{
		Status:            "healthy",
		DatabaseConnected: h.db != nil && h.db.PingContext(ctx) == nil,
		Uptime:            time.Since(h.startTime).Seconds(),
		Version:           h.version,
	}
	if h.realtime != nil {
		st.RealtimeClients = h.realtime.ClientCount()
	}

	code := fiber.StatusOK
	if !st.DatabaseConnected {
		st.Status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(st)
}
