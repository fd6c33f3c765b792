// Package server assembles the Fiber API and the outer HTTP mux that also
// carries the websocket channel and the Prometheus endpoint.
package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/logger"
	"github.com/premiumrays/digital-goods-backend/internal/metrics"
	"github.com/premiumrays/digital-goods-backend/internal/upload"
)

// Routes is implemented by every domain handler.
type Routes interface {
	RegisterRoutes(router fiber.Router)
}

type Options struct {
	AllowedOrigins string
	MaxUploadMB    int
	// UploadDir is served under /uploads; empty disables the static route.
	UploadDir string
}

// NewApp builds the Fiber application and mounts every handler under /api.
func NewApp(log *zap.Logger, opts Options, routes ...Routes) *fiber.App {
	bodyLimit := opts.MaxUploadMB * 1024 * 1024
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:               "digital-goods-backend",
		BodyLimit:             bodyLimit,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			logger.FromFiber(c).Error("panic recovered", zap.Any("panic", e), zap.Stack("stack"))
		},
	}))
	app.Use(logger.Middleware(log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowedOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	if opts.UploadDir != "" {
		app.Static(upload.PublicPrefix, opts.UploadDir, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	for _, r := range routes {
		r.RegisterRoutes(api)
	}
	return app
}

// errorHandler keeps the {"message": ...} body for errors that escape a
// handler, including Fiber's own 404/405 and body limit errors.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return apperr.Respond(c, err)
}

// NewRouter puts the Fiber app behind a chi mux: /ws and /metrics are plain
// net/http handlers, everything else is delegated to Fiber under the app's
// body limit. wsPerMinute caps websocket handshakes per client IP; zero
// disables the limit.
func NewRouter(app *fiber.App, realtime http.Handler, wsPerMinute int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)

	r.Group(func(r chi.Router) {
		if wsPerMinute > 0 {
			r.Use(httprate.LimitByIP(wsPerMinute, time.Minute))
		}
		r.Handle("/ws", realtime)
	})
	r.Handle("/metrics", metrics.Handler())

	limit := int64(app.Config().BodyLimit)
	fallback := chimiddleware.RequestSize(limit)(bufferBody(limit, adaptor.FiberApp(app)))
	r.NotFound(fallback.ServeHTTP)
	r.MethodNotAllowed(fallback.ServeHTTP)
	return r
}

// bufferBody reads the request body before it reaches the adaptor, which
// otherwise copies it without a bound. The body must already be wrapped in a
// MaxBytesReader.
func bufferBody(limit int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > limit {
			writeMessage(w, http.StatusRequestEntityTooLarge, fiber.ErrRequestEntityTooLarge.Message)
			return
		}
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeMessage(w, http.StatusRequestEntityTooLarge, fiber.ErrRequestEntityTooLarge.Message)
				return
			}
			writeMessage(w, http.StatusBadRequest, "cannot read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	body, _ := json.Marshal(fiber.Map{"message": msg})
	w.Header().Set("Content-Type", fiber.MIMEApplicationJSON)
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// NewHTTPServer returns the listener configuration used in production.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
