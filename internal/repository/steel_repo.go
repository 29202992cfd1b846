package repository

import (
	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func NewSteelRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo[model.SteelStock, model.SteelTransaction]{db: db, m: steelMapper{}}
}

type steelMapper struct{}

func (steelMapper) material() ledger.Material { return ledger.Steel }

// normalize applies the default rod length so 0 and 12 address the same row.
func (steelMapper) normalize(v ledger.Variant) ledger.Variant {
	if v.Length.IsZero() {
		v.Length = ledger.DefaultRodLength
	}
	return v
}

func (m steelMapper) stockWhere(siteID uuid.UUID, v ledger.Variant) (string, []interface{}) {
	v = m.normalize(v)
	return "site_id = ? AND diameter = ? AND length = ? AND brand = ?",
		[]interface{}{siteID, v.Diameter, v.Length, v.Brand}
}

func (steelMapper) stockOrder() string { return "diameter ASC, length ASC, brand ASC" }

func (m steelMapper) newStock(siteID uuid.UUID, v ledger.Variant, actor string) *model.SteelStock {
	v = m.normalize(v)
	s := &model.SteelStock{SiteID: siteID, Diameter: v.Diameter, Length: v.Length, Brand: v.Brand}
	s.CreatedBy = actor
	s.UpdatedBy = actor
	return s
}

func (steelMapper) stockRecord(s *model.SteelStock) StockRecord {
	return StockRecord{
		ID:        s.ID,
		SiteID:    s.SiteID,
		Material:  ledger.Steel,
		Variant:   ledger.Variant{Diameter: s.Diameter, Length: s.Length, Brand: s.Brand},
		Level:     ledger.Level{Quantity: s.Quantity, Weight: s.TotalWeight},
		UpdatedAt: s.UpdatedAt,
		UpdatedBy: s.UpdatedBy,
	}
}

func (steelMapper) levelColumns(l ledger.Level) map[string]interface{} {
	return map[string]interface{}{"quantity": l.Quantity, "total_weight": l.Weight}
}

func (steelMapper) weightColumn() string { return "weight" }

func (m steelMapper) txRow(r TxRecord) *model.SteelTransaction {
	v := m.normalize(r.Variant)
	return &model.SteelTransaction{
		TransactionBase: baseFromRecord(r),
		Diameter:        v.Diameter,
		Length:          v.Length,
		Brand:           v.Brand,
		Quantity:        r.Quantity,
		Weight:          r.Weight,
		Wastage:         r.Wastage,
	}
}

func (steelMapper) txRecord(t *model.SteelTransaction) TxRecord {
	rec := recordFromBase(ledger.Steel, &t.TransactionBase)
	rec.Variant = ledger.Variant{Diameter: t.Diameter, Length: t.Length, Brand: t.Brand}
	rec.Quantity = t.Quantity
	rec.Weight = t.Weight
	rec.Wastage = t.Wastage
	return rec
}
