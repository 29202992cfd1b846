package handler

import (
	"bytes"
	"fmt"
	"time"

	"go-site-inventory/internal/export"
	"go-site-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reports   service.ReportService
	inventory service.InventoryService
}

func NewReportHandler(reports service.ReportService, inventory service.InventoryService) *ReportHandler {
	return &ReportHandler{reports: reports, inventory: inventory}
}

// GetSummary returns the opening/incoming/outgoing/closing report.
// Query params: period, start, end
func (h *ReportHandler) GetSummary(c *fiber.Ctx) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}
	period, err := periodQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	summary, err := h.reports.Summary(c.UserContext(), m, siteID, period)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// Export downloads history or summary as a spreadsheet.
// Query params: format (csv|xlsx), report (history|summary), period, start, end
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}
	period, err := periodQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	format, err := export.ParseFormat(c.Query("format", "csv"))
	if err != nil {
		return respondError(c, err)
	}

	report := c.Query("report", "history")
	var tables []export.Table
	switch report {
	case "history":
		records, err := h.inventory.Transactions(c.UserContext(), service.TransactionQuery{Material: m, SiteID: siteID, Period: period})
		if err != nil {
			return respondError(c, err)
		}
		tables = []export.Table{service.HistoryTable(m, records)}
	case "summary":
		summary, err := h.reports.Summary(c.UserContext(), m, siteID, period)
		if err != nil {
			return respondError(c, err)
		}
		tables = service.SummaryTables(summary)
	default:
		return c.Status(400).JSON(fiber.Map{"error": "report must be history or summary"})
	}

	return sendTables(c, format, fmt.Sprintf("%s_%s_%s", m, report, siteID.String()[:8]), tables...)
}

// GetTally verifies steel weights against pieces. format=csv|xlsx downloads the table.
// GET /api/v1/sites/:siteID/steel/tally
func (h *ReportHandler) GetTally(c *fiber.Ctx) error {
	siteID, err := siteParam(c)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.reports.Tally(c.UserContext(), siteID)
	if err != nil {
		return respondError(c, err)
	}

	if f := c.Query("format"); f != "" {
		format, err := export.ParseFormat(f)
		if err != nil {
			return respondError(c, err)
		}
		return sendTables(c, format, "steel_tally_"+siteID.String()[:8], service.TallyTable(rows))
	}

	drifted := 0
	for _, r := range rows {
		if !r.OK {
			drifted++
		}
	}
	return c.JSON(fiber.Map{"data": rows, "drifted": drifted})
}

// Reconcile compares stored levels with a replay of the log.
// POST /api/v1/sites/:siteID/:material/reconcile?fix=true
func (h *ReportHandler) Reconcile(c *fiber.Ctx) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.reports.Reconcile(c.UserContext(), m, siteID, c.Query("fix") == "true", actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

func sendTables(c *fiber.Ctx, format export.Format, name string, tables ...export.Table) error {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, tables...); err != nil {
		return respondError(c, err)
	}
	filename := fmt.Sprintf("%s_%s%s", name, time.Now().Format("20060102"), format.Extension())
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}
