package purchase

import (
	"strings"

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
	router.Get("/purchases", h.listPurchases)
	router.Post("/purchases", h.createPurchase)
	router.Get("/purchases/:id", h.getPurchase)
	router.Patch("/purchases/:id", h.updatePurchase)
	router.Delete("/purchases/:id", h.deletePurchase)

	admin := router.Group("/admin")
	admin.Get("/payments", h.pendingPayments)
	admin.Patch("/approve-payment/:id", h.approvePayment)
}

// parseFilter reads ?status=a,b&userId=&paymentMethod=.
func parseFilter(c *fiber.Ctx) (Filter, error) {
	f := Filter{
		UserID: strings.TrimSpace(c.Query("userId")),
		Method: Method(strings.TrimSpace(c.Query("paymentMethod"))),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		s := Status(raw)
		if !s.Valid() {
			return Filter{}, apperr.Validation("unknown status %q", raw)
		}
		f.Statuses = append(f.Statuses, s)
	}
	if f.Method != "" && f.Method != MethodPayPal && f.Method != MethodCrypto {
		return Filter{}, apperr.Validation("unknown paymentMethod %q", f.Method)
	}
	return f, nil
}

func (h *Handler) listPurchases(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	items, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getPurchase(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) createPurchase(c *fiber.Ctx) error {
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	p, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *Handler) updatePurchase(c *fiber.Ctx) error {
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
	}
	p, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) deletePurchase(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "id": id})
}

func (h *Handler) pendingPayments(c *fiber.Ctx) error {
	items, err := h.service.PendingCrypto(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"pendingPayments": items, "totalPending": len(items)})
}

func (h *Handler) approvePayment(c *fiber.Ctx) error {
	var body struct {
		ApprovedBy string `json:"approvedBy"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, apperr.Validation("invalid body: %v", err))
		}
	}
	p, err := h.service.ApproveCrypto(c.UserContext(), c.Params("id"), body.ApprovedBy)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Payment approved! User now has access to files.",
		"purchase": p,
	})
}
