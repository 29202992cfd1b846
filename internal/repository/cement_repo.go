package repository

import (
	"strings"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func NewCementRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo[model.CementStock, model.CementTransaction]{db: db, m: cementMapper{}}
}

type cementMapper struct{}

func (cementMapper) material() ledger.Material { return ledger.Cement }

func (cementMapper) stockWhere(siteID uuid.UUID, v ledger.Variant) (string, []interface{}) {
	return "site_id = ? AND cement_type = ?", []interface{}{siteID, strings.TrimSpace(v.Grade)}
}

func (cementMapper) stockOrder() string { return "cement_type ASC" }

func (cementMapper) newStock(siteID uuid.UUID, v ledger.Variant, actor string) *model.CementStock {
	s := &model.CementStock{SiteID: siteID, CementType: strings.TrimSpace(v.Grade)}
	s.CreatedBy = actor
	s.UpdatedBy = actor
	return s
}

func (cementMapper) stockRecord(s *model.CementStock) StockRecord {
	return StockRecord{
		ID:        s.ID,
		SiteID:    s.SiteID,
		Material:  ledger.Cement,
		Variant:   ledger.Variant{Grade: s.CementType},
		Level:     ledger.Level{Quantity: s.Bags, Weight: s.TotalWeight},
		UpdatedAt: s.UpdatedAt,
		UpdatedBy: s.UpdatedBy,
	}
}

func (cementMapper) levelColumns(l ledger.Level) map[string]interface{} {
	return map[string]interface{}{"bags": l.Quantity, "total_weight": l.Weight}
}

func (cementMapper) weightColumn() string { return "weight" }

func (cementMapper) txRow(r TxRecord) *model.CementTransaction {
	return &model.CementTransaction{
		TransactionBase: baseFromRecord(r),
		CementType:      strings.TrimSpace(r.Variant.Grade),
		Bags:            r.Quantity,
		Weight:          r.Weight,
	}
}

func (cementMapper) txRecord(t *model.CementTransaction) TxRecord {
	rec := recordFromBase(ledger.Cement, &t.TransactionBase)
	rec.Variant = ledger.Variant{Grade: t.CementType}
	rec.Quantity = t.Bags
	rec.Weight = t.Weight
	rec.Wastage = decimal.Zero
	return rec
}
