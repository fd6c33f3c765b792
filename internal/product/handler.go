package product

import (
	"github.com/gofiber/fiber/v2"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.getProducts)
	router.Post("/products", h.createProduct)
	router.Get("/products/:id", h.getProductByID)
	router.Patch("/products/:id", h.updateProduct)
	router.Delete("/products/:id", h.deleteProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getProductByID(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
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

func (h *Handler) updateProduct(c *fiber.Ctx) error {
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

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "id": id})
}
