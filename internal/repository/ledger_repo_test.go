package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/model"
	"go-site-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSite(t *testing.T, db *gorm.DB, code string) uuid.UUID {
	t.Helper()
	site := &model.Site{Code: code, Name: code}
	if err := NewSiteRepo(db).Create(context.Background(), site); err != nil {
		t.Fatalf("create site: %v", err)
	}
	return site.ID
}

func TestLockStock_CreatesEmptyRowOnce(t *testing.T) {
	db := database.OpenTest(t)
	repo := NewSteelRepo(db)
	siteID := newSite(t, db, "S1")
	v := ledger.Variant{Diameter: 12, Brand: "Tata"}

	var first StockRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = repo.LockStock(tx, siteID, v, "tester")
		return err
	})
	if err != nil {
		t.Fatalf("LockStock() error = %v", err)
	}
	if !first.Level.Quantity.IsZero() || !first.Level.Weight.IsZero() {
		t.Errorf("new stock level = %+v, want zero", first.Level)
	}
	if !first.Variant.Length.Equal(ledger.DefaultRodLength) {
		t.Errorf("Length = %s, want default %s", first.Variant.Length, ledger.DefaultRodLength)
	}

	// an explicit 12 m addresses the same row as the default
	v.Length = dec("12")
	var second StockRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = repo.LockStock(tx, siteID, v, "tester")
		return err
	})
	if err != nil {
		t.Fatalf("LockStock() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second LockStock() id = %s, want %s", second.ID, first.ID)
	}

	stocks, err := repo.ListStocks(context.Background(), siteID)
	if err != nil {
		t.Fatalf("ListStocks() error = %v", err)
	}
	if len(stocks) != 1 {
		t.Errorf("len(ListStocks()) = %d, want 1", len(stocks))
	}
}

func TestSaveStockAndTransactionLog(t *testing.T) {
	db := database.OpenTest(t)
	repo := NewCementRepo(db)
	siteID := newSite(t, db, "S1")
	v := ledger.Variant{Grade: "PPC"}
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	rec := TxRecord{
		SiteID:       siteID,
		Type:         ledger.Incoming,
		Variant:      v,
		Quantity:     dec("100"),
		Weight:       dec("5"),
		InputAmount:  dec("100"),
		InputUnit:    ledger.UnitBags,
		Counterparty: " UltraTech ",
		Attachments:  model.Attachments{{Path: "bills/S1_1.pdf", Name: "bill.pdf"}},
		OccurredAt:   at,
		CreatedBy:    "tester",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		stock, err := repo.LockStock(tx, siteID, v, "tester")
		if err != nil {
			return err
		}
		stock.Level = ledger.Level{Quantity: dec("100"), Weight: dec("5")}
		if err := repo.SaveStock(tx, stock, "tester"); err != nil {
			return err
		}
		return repo.InsertTransaction(tx, &rec)
	})
	if err != nil {
		t.Fatalf("transaction error = %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("InsertTransaction() left ID unset")
	}

	stocks, _ := repo.ListStocks(context.Background(), siteID)
	if len(stocks) != 1 || !stocks[0].Level.Quantity.Equal(dec("100")) || !stocks[0].Level.Weight.Equal(dec("5")) {
		t.Fatalf("stocks = %+v, want one row of 100 bags / 5 t", stocks)
	}

	txs, err := repo.ListTransactions(context.Background(), siteID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("len(ListTransactions()) = %d, want 1", len(txs))
	}
	got := txs[0]
	if got.Counterparty != "UltraTech" {
		t.Errorf("Counterparty = %q, want %q", got.Counterparty, "UltraTech")
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Path != "bills/S1_1.pdf" {
		t.Errorf("Attachments = %+v", got.Attachments)
	}
	e := got.Entry()
	if e.Variant != "PPC" || e.Material != ledger.Cement || e.Attachment != "bills/S1_1.pdf" {
		t.Errorf("Entry() = %+v", e)
	}
	if !e.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt = %v, want %v", e.OccurredAt, at)
	}
}

func TestDeleteTransaction(t *testing.T) {
	db := database.OpenTest(t)
	repo := NewDieselRepo(db)
	siteID := newSite(t, db, "S1")
	otherSite := newSite(t, db, "S2")

	rec := TxRecord{SiteID: siteID, Type: ledger.Incoming, Quantity: dec("200"), Weight: dec("200"), Counterparty: "IOCL", OccurredAt: time.Now()}
	if err := db.Transaction(func(tx *gorm.DB) error { return repo.InsertTransaction(tx, &rec) }); err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}

	// scoped by site
	err := db.Transaction(func(tx *gorm.DB) error { return repo.DeleteTransaction(tx, otherSite, rec.ID, "admin") })
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("DeleteTransaction(other site) error = %v, want ErrRecordNotFound", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		found, err := repo.FindTransaction(tx, siteID, rec.ID)
		if err != nil {
			return err
		}
		if !found.Quantity.Equal(dec("200")) {
			t.Errorf("FindTransaction() quantity = %s, want 200", found.Quantity)
		}
		return repo.DeleteTransaction(tx, siteID, rec.ID, "admin")
	})
	if err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	txs, _ := repo.ListTransactions(context.Background(), siteID)
	if len(txs) != 0 {
		t.Errorf("len(ListTransactions()) = %d after delete, want 0", len(txs))
	}

	var deleted model.DieselTransaction
	if err := db.Unscoped().First(&deleted, "id = ?", rec.ID).Error; err != nil {
		t.Fatalf("load soft-deleted row: %v", err)
	}
	if deleted.DeletedBy != "admin" {
		t.Errorf("DeletedBy = %q, want admin", deleted.DeletedBy)
	}

	err = db.Transaction(func(tx *gorm.DB) error { return repo.DeleteTransaction(tx, siteID, rec.ID, "admin") })
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second DeleteTransaction() error = %v, want ErrRecordNotFound", err)
	}
}

func TestRecentTransactionsAndMovement(t *testing.T) {
	db := database.OpenTest(t)
	repo := NewSteelRepo(db)
	siteID := newSite(t, db, "S1")
	day1 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	rows := []TxRecord{
		{SiteID: siteID, Type: ledger.Incoming, Variant: ledger.Variant{Diameter: 12}, Quantity: dec("469"), Weight: dec("4.997664"), OccurredAt: day1},
		{SiteID: siteID, Type: ledger.Outgoing, Variant: ledger.Variant{Diameter: 12}, Quantity: dec("100"), Weight: dec("1.0656"), OccurredAt: day2},
		{SiteID: siteID, Type: ledger.Incoming, Variant: ledger.Variant{Diameter: 16}, Quantity: dec("50"), Weight: dec("0.948"), OccurredAt: day2.Add(time.Hour)},
	}
	for i := range rows {
		if err := db.Transaction(func(tx *gorm.DB) error { return repo.InsertTransaction(tx, &rows[i]) }); err != nil {
			t.Fatalf("InsertTransaction(%d) error = %v", i, err)
		}
	}

	recent, err := repo.RecentTransactions(context.Background(), uuid.Nil, 2)
	if err != nil {
		t.Fatalf("RecentTransactions() error = %v", err)
	}
	if len(recent) != 2 || recent[0].Variant.Diameter != 16 {
		t.Errorf("RecentTransactions() = %+v, want 16mm first", recent)
	}

	points, err := repo.Movement(context.Background(), siteID, day1.Add(-time.Hour), day2.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Movement() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("len(Movement()) = %d, want 2", len(points))
	}
	if points[0].Date != "2024-06-01" || !points[0].Incoming.Equal(dec("4.997664")) {
		t.Errorf("points[0] = %+v", points[0])
	}
	if !points[1].Incoming.Equal(dec("0.948")) || !points[1].Outgoing.Equal(dec("1.0656")) {
		t.Errorf("points[1] = %+v", points[1])
	}
}
