package handler

import (
	"go-site-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SiteHandler struct {
	service service.SiteService
}

func NewSiteHandler(s service.SiteService) *SiteHandler {
	return &SiteHandler{service: s}
}

// GET /api/v1/sites
func (h *SiteHandler) GetSites(c *fiber.Ctx) error {
	sites, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sites)
}

// GET /api/v1/sites/:siteID
func (h *SiteHandler) GetSite(c *fiber.Ctx) error {
	id, err := siteParam(c)
	if err != nil {
		return respondError(c, err)
	}
	site, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(site)
}

// POST /api/v1/sites
func (h *SiteHandler) CreateSite(c *fiber.Ctx) error {
	var req service.CreateSiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	site, err := h.service.Create(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Site created", "data": site})
}
