package repository

import (
	"context"
	"strings"
	"time"

	"go-site-inventory/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository persists the stock levels and transaction log of one material.
// Methods taking tx must run inside a database transaction.
type LedgerRepository interface {
	Material() ledger.Material

	// LockStock returns the stock row for the variant, creating an empty one
	// if needed, and holds a row lock until tx ends.
	LockStock(tx *gorm.DB, siteID uuid.UUID, v ledger.Variant, actor string) (StockRecord, error)
	SaveStock(tx *gorm.DB, rec StockRecord, actor string) error
	InsertTransaction(tx *gorm.DB, rec *TxRecord) error
	FindTransaction(tx *gorm.DB, siteID, id uuid.UUID) (TxRecord, error)
	DeleteTransaction(tx *gorm.DB, siteID, id uuid.UUID, actor string) error

	ListStocks(ctx context.Context, siteID uuid.UUID) ([]StockRecord, error)
	ListTransactions(ctx context.Context, siteID uuid.UUID) ([]TxRecord, error)
	RecentTransactions(ctx context.Context, siteID uuid.UUID, limit int) ([]TxRecord, error)
	Movement(ctx context.Context, siteID uuid.UUID, start, end time.Time) ([]MovementPoint, error)
}

// rowMapper binds a material's GORM models to the neutral records.
type rowMapper[S, T any] interface {
	material() ledger.Material
	stockWhere(siteID uuid.UUID, v ledger.Variant) (string, []interface{})
	stockOrder() string
	newStock(siteID uuid.UUID, v ledger.Variant, actor string) *S
	stockRecord(s *S) StockRecord
	levelColumns(l ledger.Level) map[string]interface{}
	weightColumn() string
	txRow(r TxRecord) *T
	txRecord(t *T) TxRecord
}

type ledgerRepo[S, T any] struct {
	db *gorm.DB
	m  rowMapper[S, T]
}

func (r *ledgerRepo[S, T]) Material() ledger.Material { return r.m.material() }

func (r *ledgerRepo[S, T]) LockStock(tx *gorm.DB, siteID uuid.UUID, v ledger.Variant, actor string) (StockRecord, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(r.m.newStock(siteID, v, actor)).Error; err != nil {
		return StockRecord{}, err
	}

	query, args := r.m.stockWhere(siteID, v)
	row := new(S)
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(query, args...).First(row).Error; err != nil {
		return StockRecord{}, err
	}
	return r.m.stockRecord(row), nil
}

func (r *ledgerRepo[S, T]) SaveStock(tx *gorm.DB, rec StockRecord, actor string) error {
	updates := r.m.levelColumns(rec.Level)
	updates["updated_by"] = actor
	res := tx.Model(new(S)).Where("id = ?", rec.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ledgerRepo[S, T]) InsertTransaction(tx *gorm.DB, rec *TxRecord) error {
	rec.Material = r.m.material()
	row := r.m.txRow(*rec)
	if err := tx.Create(row).Error; err != nil {
		return err
	}
	*rec = r.m.txRecord(row)
	return nil
}

func (r *ledgerRepo[S, T]) FindTransaction(tx *gorm.DB, siteID, id uuid.UUID) (TxRecord, error) {
	row := new(T)
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("site_id = ? AND id = ?", siteID, id).
		First(row).Error
	if err != nil {
		return TxRecord{}, err
	}
	return r.m.txRecord(row), nil
}

// DeleteTransaction soft-deletes the row and stamps who removed it.
func (r *ledgerRepo[S, T]) DeleteTransaction(tx *gorm.DB, siteID, id uuid.UUID, actor string) error {
	res := tx.Model(new(T)).Where("site_id = ? AND id = ?", siteID, id).Update("deleted_by", actor)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return tx.Where("site_id = ? AND id = ?", siteID, id).Delete(new(T)).Error
}

func (r *ledgerRepo[S, T]) ListStocks(ctx context.Context, siteID uuid.UUID) ([]StockRecord, error) {
	var rows []S
	q := r.db.WithContext(ctx).Order(r.m.stockOrder())
	if siteID != uuid.Nil {
		q = q.Where("site_id = ?", siteID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]StockRecord, len(rows))
	for i := range rows {
		out[i] = r.m.stockRecord(&rows[i])
	}
	return out, nil
}

// ListTransactions returns the site's log oldest first.
func (r *ledgerRepo[S, T]) ListTransactions(ctx context.Context, siteID uuid.UUID) ([]TxRecord, error) {
	var rows []T
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("occurred_at ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.records(rows), nil
}

// RecentTransactions returns up to limit rows newest first. A nil siteID spans all sites.
func (r *ledgerRepo[S, T]) RecentTransactions(ctx context.Context, siteID uuid.UUID, limit int) ([]TxRecord, error) {
	var rows []T
	q := r.db.WithContext(ctx).Order("occurred_at DESC, created_at DESC").Limit(limit)
	if siteID != uuid.Nil {
		q = q.Where("site_id = ?", siteID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.records(rows), nil
}

// Movement aggregates weight in and out per calendar day.
func (r *ledgerRepo[S, T]) Movement(ctx context.Context, siteID uuid.UUID, start, end time.Time) ([]MovementPoint, error) {
	w := r.m.weightColumn()
	rows, err := r.db.WithContext(ctx).Model(new(T)).
		Select(`
			DATE(occurred_at) as date,
			COALESCE(SUM(CASE WHEN type = 'incoming' THEN `+w+` ELSE 0 END), 0) as incoming,
			COALESCE(SUM(CASE WHEN type = 'outgoing' THEN `+w+` ELSE 0 END), 0) as outgoing
		`).
		Where("site_id = ? AND occurred_at BETWEEN ? AND ?", siteID, start, end).
		Group("DATE(occurred_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MovementPoint
	for rows.Next() {
		var (
			date    string
			in, out decimal.Decimal
		)
		if err := rows.Scan(&date, &in, &out); err != nil {
			return nil, err
		}
		// postgres returns a full timestamp for DATE()
		if len(date) > 10 {
			date = date[:10]
		}
		results = append(results, MovementPoint{Date: strings.TrimSpace(date), Incoming: in, Outgoing: out})
	}
	return results, rows.Err()
}

func (r *ledgerRepo[S, T]) records(rows []T) []TxRecord {
	out := make([]TxRecord, len(rows))
	for i := range rows {
		out[i] = r.m.txRecord(&rows[i])
	}
	return out
}
