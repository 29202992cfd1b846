package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/model"
	"go-site-inventory/internal/repository"
	"go-site-inventory/internal/storage"
	"go-site-inventory/internal/ws"
	"go-site-inventory/pkg/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStore struct {
	mu        sync.Mutex
	uploadErr error
	uploaded  []storage.UploadRequest
	deleted   []string
}

func (f *fakeStore) Upload(_ context.Context, req storage.UploadRequest) (storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return storage.Object{}, f.uploadErr
	}
	f.uploaded = append(f.uploaded, req)
	return storage.Object{
		Path:        req.Folder + "/" + req.SiteCode + "_1.pdf",
		Name:        req.Name,
		ContentType: "application/pdf",
		Size:        3,
	}, nil
}

func (f *fakeStore) Open(context.Context, string) (io.ReadCloser, storage.Object, error) {
	return nil, storage.Object{}, storage.ErrNotFound
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeStore) SignedURL(string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, errors.New("not implemented")
}

func (f *fakeStore) Verify(string) (string, error) { return "", errors.New("not implemented") }

type captureHub struct {
	mu     sync.Mutex
	events []ws.Event
}

func (h *captureHub) Publish(e ws.Event) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

type fixture struct {
	db        *gorm.DB
	site      *model.Site
	repos     []repository.LedgerRepository
	store     *fakeStore
	hub       *captureHub
	inventory *inventoryService
	reports   *reportService
}

var actor = Actor{ID: "user-1", Name: "Site Engineer", Email: "eng@site.test"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.OpenTest(t)
	sites := repository.NewSiteRepo(db)
	site := &model.Site{Code: "BLR01", Name: "Bengaluru Tower"}
	if err := sites.Create(context.Background(), site); err != nil {
		t.Fatalf("create site: %v", err)
	}

	repos := []repository.LedgerRepository{
		repository.NewSteelRepo(db),
		repository.NewCementRepo(db),
		repository.NewDieselRepo(db),
	}
	store := &fakeStore{}
	hub := &captureHub{}
	inv := NewInventoryService(db, sites, repos, store, hub, discardLog).(*inventoryService)
	rep := NewReportService(db, sites, inv, repos, decimal.Zero, discardLog).(*reportService)
	return &fixture{db: db, site: site, repos: repos, store: store, hub: hub, inventory: inv, reports: rep}
}

func (f *fixture) steelIn(t *testing.T, diameter int, tonnes string, supplier string, at time.Time) *RecordResult {
	t.Helper()
	res, err := f.inventory.RecordIncoming(context.Background(), &RecordRequest{
		SiteID:       f.site.ID,
		Material:     ledger.Steel,
		Diameter:     diameter,
		Amount:       dec(tonnes),
		Unit:         ledger.UnitTonnes,
		Counterparty: supplier,
		OccurredAt:   at,
	}, actor)
	if err != nil {
		t.Fatalf("RecordIncoming(steel %dmm %st) error = %v", diameter, tonnes, err)
	}
	return res
}

func (f *fixture) steelOut(t *testing.T, diameter int, pieces string, contractor string, at time.Time) (*RecordResult, error) {
	t.Helper()
	return f.inventory.RecordOutgoing(context.Background(), &RecordRequest{
		SiteID:       f.site.ID,
		Material:     ledger.Steel,
		Diameter:     diameter,
		Amount:       dec(pieces),
		Counterparty: contractor,
		OccurredAt:   at,
	}, actor)
}

func (f *fixture) stock(t *testing.T, m ledger.Material) []StockView {
	t.Helper()
	views, err := f.inventory.Stock(context.Background(), m, f.site.ID)
	if err != nil {
		t.Fatalf("Stock(%s) error = %v", m, err)
	}
	return views
}
