package download

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/logger"
	"github.com/premiumrays/digital-goods-backend/internal/purchase"
)

// Purchases looks up a purchase on behalf of its owner.
type Purchases interface {
	Owned(ctx context.Context, id, userID string) (purchase.Purchase, error)
}

// Link is one signed download link.
type Link struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Handler struct {
	purchases Purchases
	signer    *Signer
	secret    string
	baseURL   string
	uploadDir string
}

func NewHandler(purchases Purchases, signer *Signer, secret, baseURL, uploadDir string) *Handler {
	return &Handler{
		purchases: purchases,
		signer:    signer,
		secret:    secret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		uploadDir: uploadDir,
	}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/purchases/:id/downloads", h.links)
	router.Get("/downloads", jwtware.New(jwtware.Config{
		SigningKey:    []byte(h.secret),
		SigningMethod: "HS256",
		TokenLookup:   "query:token",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired download link"})
		},
	}), h.serve)
}

// completed returns the owner's purchase, refusing anything not completed.
func (h *Handler) completed(ctx context.Context, id, userID string) (purchase.Purchase, error) {
	p, err := h.purchases.Owned(ctx, id, userID)
	if err != nil {
		return purchase.Purchase{}, err
	}
	if p.Status != purchase.StatusCompleted {
		return purchase.Purchase{}, apperr.Conflict("purchase %s is %s, files are not available", id, p.Status)
	}
	return p, nil
}

func (h *Handler) links(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := h.completed(c.UserContext(), id, c.Query("userId"))
	if err != nil {
		return apperr.Respond(c, err)
	}

	links := make([]Link, 0, len(p.Files))
	for _, f := range p.Files {
		token, exp, err := h.signer.Sign(Grant{PurchaseID: p.ID, UserID: p.UserID, Path: f.Path, Name: f.Name})
		if err != nil {
			return apperr.Respond(c, err)
		}
		links = append(links, Link{
			Name:      f.Name,
			URL:       h.baseURL + "/api/downloads?token=" + url.QueryEscape(token),
			ExpiresAt: exp.UTC(),
		})
	}
	return c.JSON(fiber.Map{"purchaseId": p.ID, "productName": p.ProductName, "files": links})
}

func (h *Handler) serve(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return apperr.Respond(c, apperr.Validation("missing download token"))
	}
	g, err := grantFromToken(token)
	if err != nil {
		return apperr.Respond(c, apperr.Validation("%v", err))
	}

	// access may have been revoked since the link was issued
	p, err := h.completed(c.UserContext(), g.PurchaseID, g.UserID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if !hasFile(p, g.Path) {
		return apperr.Respond(c, apperr.NotFound("file", g.Name))
	}

	logger.FromFiber(c).Info("file download",
		zap.String("purchase_id", p.ID),
		zap.String("user_id", p.UserID),
		zap.String("file", g.Name),
	)

	if strings.HasPrefix(g.Path, "http://") || strings.HasPrefix(g.Path, "https://") {
		return c.Redirect(g.Path, fiber.StatusFound)
	}
	local, ok := h.localPath(g.Path)
	if !ok {
		return apperr.Respond(c, apperr.NotFound("file", g.Name))
	}
	c.Attachment(g.Name)
	return c.SendFile(local)
}

func hasFile(p purchase.Purchase, filePath string) bool {
	for _, f := range p.Files {
		if f.Path == filePath {
			return true
		}
	}
	return false
}

// localPath maps a public /uploads/... path onto the upload directory,
// refusing anything that escapes it.
func (h *Handler) localPath(publicPath string) (string, bool) {
	rel, ok := strings.CutPrefix(path.Clean("/"+publicPath), "/uploads/")
	if !ok || rel == "" {
		return "", false
	}
	return filepath.Join(h.uploadDir, filepath.FromSlash(rel)), true
}
