package category

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
	router.Get("/categories", h.getCategories)
	router.Post("/categories", h.createCategory)
	router.Get("/categories/:id", h.getCategory)
	router.Patch("/categories/:id", h.updateCategory)
	router.Delete("/categories/:id", h.deleteCategory)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getCategory(c *fiber.Ctx) error {
	item, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(item)
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	created, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateCategory(c *fiber.Ctx) error {
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	updated, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteCategory(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "id": id})
}
