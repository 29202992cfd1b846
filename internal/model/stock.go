package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SteelStock is keyed by site, bar diameter, rod length and brand.
type SteelStock struct {
	BaseModel
	SiteID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_steel_stock_key" json:"site_id"`
	Diameter    int             `gorm:"not null;uniqueIndex:idx_steel_stock_key" json:"diameter"`
	Length      decimal.Decimal `gorm:"type:decimal(8,3);not null;uniqueIndex:idx_steel_stock_key" json:"length"`
	Brand       string          `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_steel_stock_key" json:"brand"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`       // pieces
	TotalWeight decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"total_weight"` // tonnes
}

type CementStock struct {
	BaseModel
	SiteID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cement_stock_key" json:"site_id"`
	CementType  string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_cement_stock_key" json:"cement_type"`
	Bags        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"bags"`
	TotalWeight decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"total_weight"` // tonnes
}

// DieselStock holds one row per site. Quantity is in litres; kg entries are stored as entered.
type DieselStock struct {
	BaseModel
	SiteID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"site_id"`
	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
}
