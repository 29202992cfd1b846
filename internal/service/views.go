package service

import (
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/model"
	"go-site-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated user behind a workflow.
type Actor struct {
	ID    string
	Name  string
	Email string
}

type StockView struct {
	ID        uuid.UUID       `json:"id"`
	SiteID    uuid.UUID       `json:"site_id"`
	Material  ledger.Material `json:"material"`
	Variant   string          `json:"variant,omitempty"`
	Diameter  int             `json:"diameter,omitempty"`
	Length    string          `json:"length,omitempty"`
	Brand     string          `json:"brand,omitempty"`
	Grade     string          `json:"cement_type,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Weight    decimal.Decimal `json:"weight"`
	UpdatedAt time.Time       `json:"updated_at"`
	UpdatedBy string          `json:"updated_by"`
}

func NewStockView(r repository.StockRecord) StockView {
	v := StockView{
		ID:        r.ID,
		SiteID:    r.SiteID,
		Material:  r.Material,
		Variant:   r.Variant.Label(r.Material),
		Quantity:  r.Level.Quantity,
		Weight:    r.Level.Weight,
		UpdatedAt: r.UpdatedAt,
		UpdatedBy: r.UpdatedBy,
	}
	switch r.Material {
	case ledger.Steel:
		v.Diameter = r.Variant.Diameter
		v.Length = r.Variant.Length.String()
		v.Brand = r.Variant.Brand
	case ledger.Cement:
		v.Grade = r.Variant.Grade
	}
	return v
}

type TransactionView struct {
	ID           uuid.UUID         `json:"id"`
	SiteID       uuid.UUID         `json:"site_id"`
	Material     ledger.Material   `json:"material"`
	Type         ledger.TxType     `json:"type"`
	Variant      string            `json:"variant,omitempty"`
	Diameter     int               `json:"diameter,omitempty"`
	Length       string            `json:"length,omitempty"`
	Brand        string            `json:"brand,omitempty"`
	Grade        string            `json:"cement_type,omitempty"`
	Quantity     decimal.Decimal   `json:"quantity"`
	Weight       decimal.Decimal   `json:"weight"`
	Wastage      decimal.Decimal   `json:"wastage"`
	InputAmount  decimal.Decimal   `json:"input_amount"`
	InputUnit    ledger.Unit       `json:"input_unit"`
	Counterparty string            `json:"counterparty"`
	Attachments  model.Attachments `json:"attachments"`
	Note         string            `json:"note,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
	CreatedAt    time.Time         `json:"created_at"`
	CreatedBy    string            `json:"created_by"`
}

func NewTransactionView(r repository.TxRecord) TransactionView {
	v := TransactionView{
		ID:           r.ID,
		SiteID:       r.SiteID,
		Material:     r.Material,
		Type:         r.Type,
		Variant:      r.Variant.Label(r.Material),
		Quantity:     r.Quantity,
		Weight:       r.Weight,
		Wastage:      r.Wastage,
		InputAmount:  r.InputAmount,
		InputUnit:    r.InputUnit,
		Counterparty: r.Counterparty,
		Attachments:  r.Attachments,
		Note:         r.Note,
		OccurredAt:   r.OccurredAt,
		CreatedAt:    r.CreatedAt,
		CreatedBy:    r.CreatedBy,
	}
	if v.Attachments == nil {
		v.Attachments = model.Attachments{}
	}
	switch r.Material {
	case ledger.Steel:
		v.Diameter = r.Variant.Diameter
		v.Length = r.Variant.Length.String()
		v.Brand = r.Variant.Brand
	case ledger.Cement:
		v.Grade = r.Variant.Grade
	}
	return v
}

func transactionViews(records []repository.TxRecord) []TransactionView {
	out := make([]TransactionView, len(records))
	for i, r := range records {
		out[i] = NewTransactionView(r)
	}
	return out
}

func stockViews(records []repository.StockRecord) []StockView {
	out := make([]StockView, len(records))
	for i, r := range records {
		out[i] = NewStockView(r)
	}
	return out
}
