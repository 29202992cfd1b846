package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TxIncoming TransactionType = "incoming"
	TxOutgoing TransactionType = "outgoing"
)

// Attachment points at a bill, invoice or issue slip in blob storage.
type Attachment struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Attachments []Attachment

// Transaction columns shared by the three material logs.
type TransactionBase struct {
	BaseModel
	SiteID       uuid.UUID                        `gorm:"type:uuid;not null;index" json:"site_id"`
	Type         TransactionType                  `gorm:"type:varchar(10);not null;index" json:"type"`
	ImportedFrom string                           `gorm:"type:varchar(255)" json:"imported_from,omitempty"` // supplier, incoming only
	Recipient    string                           `gorm:"type:varchar(255)" json:"recipient,omitempty"`     // contractor, outgoing only
	InputAmount  decimal.Decimal                  `gorm:"type:decimal(20,4)" json:"input_amount"`
	InputUnit    string                           `gorm:"type:varchar(10)" json:"input_unit"`
	Attachments  datatypes.JSONType[Attachments] `json:"attachments"`
	Note         string                           `gorm:"type:text" json:"note,omitempty"`
	OccurredAt   time.Time                        `gorm:"not null;index" json:"occurred_at"`
}

// Counterparty is the supplier of an incoming row or the recipient of an outgoing one.
func (t *TransactionBase) Counterparty() string {
	if t.Type == TxOutgoing {
		return t.Recipient
	}
	return t.ImportedFrom
}

type SteelTransaction struct {
	TransactionBase
	Diameter int             `gorm:"not null" json:"diameter"`
	Length   decimal.Decimal `gorm:"type:decimal(8,3);not null" json:"length"`
	Brand    string          `gorm:"type:varchar(100);not null;default:''" json:"brand"`
	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"` // pieces
	Weight   decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"weight"`   // tonnes
	Wastage  decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"wastage"`
}

type CementTransaction struct {
	TransactionBase
	CementType string          `gorm:"type:varchar(100);not null" json:"cement_type"`
	Bags       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"bags"`
	Weight     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"weight"` // tonnes
}

type DieselTransaction struct {
	TransactionBase
	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
}
