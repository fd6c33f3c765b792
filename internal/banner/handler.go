package banner

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
	router.Get("/banners", h.getBanners)
	router.Post("/banners", h.createBanner)
	router.Get("/banners/:id", h.getBanner)
	router.Patch("/banners/:id", h.updateBanner)
	router.Delete("/banners/:id", h.deleteBanner)
}

func (h *Handler) getBanners(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getBanner(c *fiber.Ctx) error {
	b, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(b)
}

func (h *Handler) createBanner(c *fiber.Ctx) error {
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	b, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

func (h *Handler) updateBanner(c *fiber.Ctx) error {
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	b, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(b)
}

func (h *Handler) deleteBanner(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "id": id})
}
