package handler

import (
	"time"

	"go-site-inventory/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type FileHandler struct {
	store storage.Store
	ttl   time.Duration
}

func NewFileHandler(store storage.Store, ttl time.Duration) *FileHandler {
	if ttl <= 0 {
		ttl = storage.DefaultSignedTTL
	}
	return &FileHandler{store: store, ttl: ttl}
}

// GetSignedURL issues a time-limited link to an attachment.
// GET /api/v1/files/url?path=bills/BLR01_1718000000000.pdf
func (h *FileHandler) GetSignedURL(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return c.Status(400).JSON(fiber.Map{"error": "path is required"})
	}

	url, expires, err := h.store.SignedURL(path, h.ttl)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url, "expires_at": expires})
}

// Download serves the file behind a signed token. No bearer token is needed.
// GET /files/:token
func (h *FileHandler) Download(c *fiber.Ctx) error {
	path, err := h.store.Verify(c.Params("token"))
	if err != nil {
		return c.Status(403).JSON(fiber.Map{"error": "Link is invalid or has expired"})
	}

	body, obj, err := h.store.Open(c.UserContext(), path)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, obj.ContentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+obj.Name+`"`)
	return c.SendStream(body, int(obj.Size))
}
