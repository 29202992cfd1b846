package repository

import (
	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewDieselRepo keeps a single stock row per site. Quantity doubles as weight.
func NewDieselRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo[model.DieselStock, model.DieselTransaction]{db: db, m: dieselMapper{}}
}

type dieselMapper struct{}

func (dieselMapper) material() ledger.Material { return ledger.Diesel }

func (dieselMapper) stockWhere(siteID uuid.UUID, _ ledger.Variant) (string, []interface{}) {
	return "site_id = ?", []interface{}{siteID}
}

func (dieselMapper) stockOrder() string { return "site_id ASC" }

func (dieselMapper) newStock(siteID uuid.UUID, _ ledger.Variant, actor string) *model.DieselStock {
	s := &model.DieselStock{SiteID: siteID}
	s.CreatedBy = actor
	s.UpdatedBy = actor
	return s
}

func (dieselMapper) stockRecord(s *model.DieselStock) StockRecord {
	return StockRecord{
		ID:        s.ID,
		SiteID:    s.SiteID,
		Material:  ledger.Diesel,
		Level:     ledger.Level{Quantity: s.Quantity, Weight: s.Quantity},
		UpdatedAt: s.UpdatedAt,
		UpdatedBy: s.UpdatedBy,
	}
}

func (dieselMapper) levelColumns(l ledger.Level) map[string]interface{} {
	return map[string]interface{}{"quantity": l.Weight}
}

func (dieselMapper) weightColumn() string { return "quantity" }

func (dieselMapper) txRow(r TxRecord) *model.DieselTransaction {
	return &model.DieselTransaction{
		TransactionBase: baseFromRecord(r),
		Quantity:        r.Quantity,
	}
}

func (dieselMapper) txRecord(t *model.DieselTransaction) TxRecord {
	rec := recordFromBase(ledger.Diesel, &t.TransactionBase)
	rec.Quantity = t.Quantity
	rec.Weight = t.Quantity
	rec.Wastage = decimal.Zero
	return rec
}
