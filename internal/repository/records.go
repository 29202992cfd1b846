package repository

import (
	"strings"
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// StockRecord is a material-neutral view of one stock row.
type StockRecord struct {
	ID        uuid.UUID
	SiteID    uuid.UUID
	Material  ledger.Material
	Variant   ledger.Variant
	Level     ledger.Level
	UpdatedAt time.Time
	UpdatedBy string
}

// TxRecord is a material-neutral view of one transaction-log row.
type TxRecord struct {
	ID           uuid.UUID
	SiteID       uuid.UUID
	Material     ledger.Material
	Type         ledger.TxType
	Variant      ledger.Variant
	Quantity     decimal.Decimal
	Weight       decimal.Decimal
	Wastage      decimal.Decimal
	InputAmount  decimal.Decimal
	InputUnit    ledger.Unit
	Counterparty string
	Attachments  model.Attachments
	Note         string
	OccurredAt   time.Time
	CreatedAt    time.Time
	CreatedBy    string
}

// Entry converts the row into the form the ledger package computes over.
func (r TxRecord) Entry() ledger.Entry {
	e := ledger.Entry{
		ID:           r.ID.String(),
		SiteID:       r.SiteID.String(),
		Material:     r.Material,
		Type:         r.Type,
		Variant:      r.Variant.Label(r.Material),
		Quantity:     r.Quantity,
		Weight:       r.Weight,
		Counterparty: r.Counterparty,
		OccurredAt:   r.OccurredAt,
		Seq:          r.CreatedAt.UnixNano(),
	}
	if len(r.Attachments) > 0 {
		e.Attachment = r.Attachments[0].Path
	}
	return e
}

// Entries converts a slice of rows, keeping order.
func Entries(records []TxRecord) []ledger.Entry {
	out := make([]ledger.Entry, len(records))
	for i, r := range records {
		out[i] = r.Entry()
	}
	return out
}

// MovementPoint is one day of a movement chart.
type MovementPoint struct {
	Date     string          `json:"date"`
	Incoming decimal.Decimal `json:"incoming"`
	Outgoing decimal.Decimal `json:"outgoing"`
}

func baseFromRecord(r TxRecord) model.TransactionBase {
	b := model.TransactionBase{
		SiteID:      r.SiteID,
		Type:        model.TransactionType(r.Type),
		InputAmount: r.InputAmount,
		InputUnit:   string(r.InputUnit),
		Attachments: datatypes.NewJSONType(r.Attachments),
		Note:        r.Note,
		OccurredAt:  r.OccurredAt,
	}
	b.ID = r.ID
	b.CreatedBy = r.CreatedBy
	b.UpdatedBy = r.CreatedBy
	if r.Type == ledger.Outgoing {
		b.Recipient = strings.TrimSpace(r.Counterparty)
	} else {
		b.ImportedFrom = strings.TrimSpace(r.Counterparty)
	}
	return b
}

func recordFromBase(m ledger.Material, b *model.TransactionBase) TxRecord {
	return TxRecord{
		ID:           b.ID,
		SiteID:       b.SiteID,
		Material:     m,
		Type:         ledger.TxType(b.Type),
		InputAmount:  b.InputAmount,
		InputUnit:    ledger.Unit(b.InputUnit),
		Counterparty: b.Counterparty(),
		Attachments:  b.Attachments.Data(),
		Note:         b.Note,
		OccurredAt:   b.OccurredAt,
		CreatedAt:    b.CreatedAt,
		CreatedBy:    b.CreatedBy,
	}
}
