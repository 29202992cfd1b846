package handler

import (
	"strconv"
	"strings"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// RecordBody is the JSON form of an incoming or outgoing entry. Multipart
// requests carry the same field names plus an "attachment" file part.
type RecordBody struct {
	Diameter     int             `json:"diameter"`
	Length       decimal.Decimal `json:"length"`
	Brand        string          `json:"brand"`
	CementType   string          `json:"cement_type"`
	Amount       decimal.Decimal `json:"amount"`
	Unit         string          `json:"unit"`
	Counterparty string          `json:"counterparty"`
	Supplier     string          `json:"supplier"`
	Recipient    string          `json:"recipient"`
	Note         string          `json:"note"`
	Date         string          `json:"date"`
}

// POST /api/v1/sites/:siteID/:material/incoming
func (h *InventoryHandler) RecordIncoming(c *fiber.Ctx) error {
	return h.record(c, ledger.Incoming)
}

// POST /api/v1/sites/:siteID/:material/outgoing
func (h *InventoryHandler) RecordOutgoing(c *fiber.Ctx) error {
	return h.record(c, ledger.Outgoing)
}

func (h *InventoryHandler) record(c *fiber.Ctx, typ ledger.TxType) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}

	var (
		body   RecordBody
		upload *service.Upload
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if body, err = formBody(c); err != nil {
			return respondError(c, err)
		}
		if fh, err := c.FormFile("attachment"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "Unreadable attachment"})
			}
			defer f.Close()
			upload = &service.Upload{Name: fh.Filename, Body: f}
		}
	} else if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	req := &service.RecordRequest{
		SiteID:       siteID,
		Material:     m,
		Diameter:     body.Diameter,
		Length:       body.Length,
		Brand:        body.Brand,
		CementType:   body.CementType,
		Amount:       body.Amount,
		Unit:         ledger.Unit(body.Unit),
		Counterparty: firstNonEmpty(body.Counterparty, body.Supplier, body.Recipient),
		Note:         body.Note,
		Attachment:   upload,
	}
	if body.Date != "" {
		at, ok := ledger.ParseTimestamp(body.Date)
		if !ok {
			return respondError(c, &ledger.InvalidInputError{Field: "date", Reason: "unrecognised date format"})
		}
		req.OccurredAt = at
	}

	var result *service.RecordResult
	if typ == ledger.Incoming {
		result, err = h.service.RecordIncoming(c.UserContext(), req, actor(c))
	} else {
		result, err = h.service.RecordOutgoing(c.UserContext(), req, actor(c))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(result)
}

func formBody(c *fiber.Ctx) (RecordBody, error) {
	body := RecordBody{
		Brand:        c.FormValue("brand"),
		CementType:   c.FormValue("cement_type"),
		Unit:         c.FormValue("unit"),
		Counterparty: c.FormValue("counterparty"),
		Supplier:     c.FormValue("supplier"),
		Recipient:    c.FormValue("recipient"),
		Note:         c.FormValue("note"),
		Date:         c.FormValue("date"),
	}
	var err error
	if v := c.FormValue("diameter"); v != "" {
		if body.Diameter, err = strconv.Atoi(v); err != nil {
			return body, &ledger.InvalidInputError{Field: "diameter", Reason: "must be a whole number of millimetres"}
		}
	}
	if v := c.FormValue("length"); v != "" {
		if body.Length, err = decimal.NewFromString(v); err != nil {
			return body, &ledger.InvalidInputError{Field: "length", Reason: "must be a number"}
		}
	}
	if v := c.FormValue("amount"); v != "" {
		if body.Amount, err = decimal.NewFromString(v); err != nil {
			return body, &ledger.InvalidInputError{Field: "amount", Reason: "must be a number"}
		}
	}
	return body, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// GET /api/v1/sites/:siteID/:material/stock
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}
	stocks, err := h.service.Stock(c.UserContext(), m, siteID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"material": m, "data": stocks})
}

// GetTransactions lists history newest first.
// Query params: period, start, end (custom period), type
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}
	period, err := periodQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	records, err := h.service.Transactions(c.UserContext(), service.TransactionQuery{
		Material: m,
		SiteID:   siteID,
		Period:   period,
		Type:     ledger.TxType(strings.ToLower(c.Query("type"))),
	})
	if err != nil {
		return respondError(c, err)
	}

	views := make([]service.TransactionView, len(records))
	for i, r := range records {
		views[i] = service.NewTransactionView(r)
	}
	return c.JSON(fiber.Map{"material": m, "period": period.Kind, "data": views})
}

// DELETE /api/v1/sites/:siteID/:material/transactions/:id
func (h *InventoryHandler) DeleteTransaction(c *fiber.Ctx) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}
	txID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	result, err := h.service.DeleteTransaction(c.UserContext(), m, siteID, txID, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
