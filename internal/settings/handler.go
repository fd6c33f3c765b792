package settings

import (
	"github.com/gofiber/fiber/v2"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/settings", h.getSettings)
	router.Patch("/settings", h.updateSettings)
}

func (h *Handler) getSettings(c *fiber.Ctx) error {
	s, err := h.service.Get(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(s)
}

func (h *Handler) updateSettings(c *fiber.Ctx) error {
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	s, err := h.service.Update(c.UserContext(), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(s)
}
