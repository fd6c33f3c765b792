package upload

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/logger"
)

// FormField is the multipart field carrying files; it may repeat.
const FormField = "files"

type Handler struct {
	store   Store
	maxSize int64
}

// NewHandler limits each file to maxMB megabytes.
func NewHandler(store Store, maxMB int) *Handler {
	return &Handler{store: store, maxSize: int64(maxMB) << 20}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Post("/upload", h.upload)
}

func (h *Handler) upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperr.Respond(c, apperr.Validation("expected multipart form: %v", err))
	}
	headers := form.File[FormField]
	if len(headers) == 0 {
		return apperr.Respond(c, apperr.Validation("no files in field %q", FormField))
	}
	for _, fh := range headers {
		if fh.Size > h.maxSize {
			return apperr.Respond(c, apperr.Validation("%s exceeds %d MB", fh.Filename, h.maxSize>>20))
		}
	}

	out := make([]Stored, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return apperr.Respond(c, err)
		}
		stored, err := h.store.Save(c.UserContext(), fh.Filename, f)
		f.Close()
		if err != nil {
			return apperr.Respond(c, err)
		}
		logger.FromFiber(c).Info("file uploaded",
			zap.String("name", stored.Name),
			zap.String("path", stored.Path),
			zap.Int64("size", fh.Size),
		)
		out = append(out, stored)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"files": out})
}
