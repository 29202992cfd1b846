package handler

import (
	"go-site-inventory/internal/middleware"
	"go-site-inventory/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth      *AuthHandler
	Sites     *SiteHandler
	Inventory *InventoryHandler
	Reports   *ReportHandler
	Dashboard *DashboardHandler
	Files     *FileHandler
}

// RegisterRoutes mounts the REST API under /api/v1 and the public file
// download route. requireAuth guards everything except login and downloads.
func RegisterRoutes(app *fiber.App, h Handlers, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")
	priv := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	app.Get("/files/:token", h.Files.Download)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/auth/me", h.Auth.Me)
	protected.Post("/auth/change-password", h.Auth.ChangePassword)

	protected.Get("/materials", GetMaterials)
	protected.Get("/dashboard", priv(model.PrivDashboardView), h.Dashboard.GetOverview)
	protected.Get("/files/url", priv(model.PrivTransactionView), h.Files.GetSignedURL)

	// Site Routes
	protected.Get("/sites", priv(model.PrivSiteView), h.Sites.GetSites)
	protected.Post("/sites", priv(model.PrivSiteManage), h.Sites.CreateSite)
	protected.Get("/sites/:siteID", priv(model.PrivSiteView), h.Sites.GetSite)

	// Ledger Routes, one set per material
	site := protected.Group("/sites/:siteID")
	site.Get("/steel/tally", priv(model.PrivReportView), h.Reports.GetTally)
	site.Get("/:material/stock", priv(model.PrivStockView), h.Inventory.GetStock)
	site.Get("/:material/transactions", priv(model.PrivTransactionView), h.Inventory.GetTransactions)
	site.Post("/:material/incoming", priv(model.PrivTransactionCreate), h.Inventory.RecordIncoming)
	site.Post("/:material/outgoing", priv(model.PrivTransactionCreate), h.Inventory.RecordOutgoing)
	site.Delete("/:material/transactions/:id", priv(model.PrivTransactionDelete), h.Inventory.DeleteTransaction)
	site.Get("/:material/summary", priv(model.PrivReportView), h.Reports.GetSummary)
	site.Get("/:material/export", priv(model.PrivReportExport), h.Reports.Export)
	site.Get("/:material/movement", priv(model.PrivDashboardView), h.Dashboard.GetStockMovement)
	site.Post("/:material/reconcile", priv(model.PrivSiteManage), h.Reports.Reconcile)
}
