package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/metrics"
	"go-site-inventory/internal/model"
	"go-site-inventory/internal/repository"
	"go-site-inventory/internal/storage"
	"go-site-inventory/internal/ws"
	"go-site-inventory/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrSiteNotFound        = errors.New("site not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Broadcaster receives stock change notifications.
type Broadcaster interface {
	Publish(e ws.Event)
}

type InventoryService interface {
	RecordIncoming(ctx context.Context, req *RecordRequest, actor Actor) (*RecordResult, error)
	RecordOutgoing(ctx context.Context, req *RecordRequest, actor Actor) (*RecordResult, error)
	DeleteTransaction(ctx context.Context, material ledger.Material, siteID, txID uuid.UUID, actor Actor) (*DeleteResult, error)
	Stock(ctx context.Context, material ledger.Material, siteID uuid.UUID) ([]StockView, error)
	Transactions(ctx context.Context, q TransactionQuery) ([]repository.TxRecord, error)
}

// Upload is an attachment supplied with a transaction.
type Upload struct {
	Name string
	Body io.Reader
}

// RecordRequest describes one incoming shipment or outgoing dispatch.
// Diameter, Length and Brand apply to steel; CementType to cement.
type RecordRequest struct {
	SiteID       uuid.UUID       `validate:"uuid_required"`
	Material     ledger.Material `validate:"required"`
	Diameter     int
	Length       decimal.Decimal
	Brand        string `validate:"max=100"`
	CementType   string `validate:"max=100"`
	Amount       decimal.Decimal
	Unit         ledger.Unit
	Counterparty string `validate:"required,max=255"`
	Note         string `validate:"max=2000"`
	OccurredAt   time.Time
	Attachment   *Upload
}

type RecordResult struct {
	Transaction TransactionView `json:"transaction"`
	Stock       StockView       `json:"stock"`
	Wastage     decimal.Decimal `json:"wastage"`
	Warnings    []string        `json:"warnings,omitempty"`
}

type DeleteResult struct {
	Transaction TransactionView `json:"transaction"`
	Stock       StockView       `json:"stock"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// TransactionQuery selects history rows. An empty Type returns both directions.
type TransactionQuery struct {
	Material ledger.Material
	SiteID   uuid.UUID
	Period   ledger.PeriodFilter
	Type     ledger.TxType `validate:"omitempty,tx_type"`
}

type inventoryService struct {
	db    *gorm.DB
	sites repository.SiteRepository
	repos map[ledger.Material]repository.LedgerRepository
	store storage.Store
	hub   Broadcaster
	log   *slog.Logger
	now   func() time.Time
}

func NewInventoryService(
	db *gorm.DB,
	sites repository.SiteRepository,
	repos []repository.LedgerRepository,
	store storage.Store,
	hub Broadcaster,
	log *slog.Logger,
) InventoryService {
	byMaterial := make(map[ledger.Material]repository.LedgerRepository, len(repos))
	for _, r := range repos {
		byMaterial[r.Material()] = r
	}
	return &inventoryService{
		db:    db,
		sites: sites,
		repos: byMaterial,
		store: store,
		hub:   hub,
		log:   log,
		now:   time.Now,
	}
}

func (s *inventoryService) RecordIncoming(ctx context.Context, req *RecordRequest, actor Actor) (*RecordResult, error) {
	return s.record(ctx, ledger.Incoming, req, actor)
}

func (s *inventoryService) RecordOutgoing(ctx context.Context, req *RecordRequest, actor Actor) (*RecordResult, error) {
	return s.record(ctx, ledger.Outgoing, req, actor)
}

func (s *inventoryService) record(ctx context.Context, typ ledger.TxType, req *RecordRequest, actor Actor) (*RecordResult, error) {
	start := time.Now()
	defer func() {
		metrics.WorkflowDuration.WithLabelValues(string(req.Material), string(typ)).Observe(time.Since(start).Seconds())
	}()

	// 1. Validate; nothing is written on failure
	req = normalizeRequest(req)
	repo, err := s.repo(req.Material)
	if err != nil {
		return nil, err
	}
	in, err := buildInput(typ, req)
	if err != nil {
		metrics.RejectedRequests.WithLabelValues(string(req.Material), "invalid_input").Inc()
		return nil, err
	}
	var conv ledger.Conversion
	if typ == ledger.Incoming {
		conv, err = ledger.ConvertIncoming(in)
	} else {
		err = ledger.ValidateOutgoing(in)
	}
	if err != nil {
		metrics.RejectedRequests.WithLabelValues(string(req.Material), "invalid_input").Inc()
		return nil, err
	}
	site, err := s.site(ctx, req.SiteID)
	if err != nil {
		return nil, err
	}

	result := &RecordResult{}

	// 2. Upload the bill or issue slip. A failed upload does not block the stock update.
	var attachments model.Attachments
	if req.Attachment != nil && req.Attachment.Body != nil {
		obj, err := s.store.Upload(ctx, storage.UploadRequest{
			Folder:   folderFor(typ),
			SiteCode: site.Code,
			Name:     req.Attachment.Name,
			Body:     req.Attachment.Body,
		})
		if err != nil {
			metrics.UploadFailures.WithLabelValues(folderFor(typ)).Inc()
			s.log.Warn("attachment upload failed, continuing without file",
				"site", site.Code, "material", req.Material, "type", typ, "err", err)
			result.Warnings = append(result.Warnings, "attachment was not saved: "+err.Error())
		} else {
			attachments = model.Attachments{{Path: obj.Path, Name: obj.Name, ContentType: obj.ContentType, Size: obj.Size}}
		}
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	rec := repository.TxRecord{
		SiteID:       site.ID,
		Type:         typ,
		Variant:      in.Variant,
		InputAmount:  in.Amount,
		InputUnit:    in.Unit,
		Counterparty: req.Counterparty,
		Attachments:  attachments,
		Note:         req.Note,
		OccurredAt:   occurred,
		CreatedBy:    actor.ID,
	}

	// 3. Lock the stock row, check it, then write level and log together
	var stock repository.StockRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stock, err = repo.LockStock(tx, site.ID, in.Variant, actor.ID)
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}
		if typ == ledger.Outgoing {
			conv, err = ledger.ConvertOutgoing(in, stock.Level)
			if err != nil {
				return err
			}
		}

		rec.Quantity = conv.Quantity
		rec.Weight = conv.Weight
		rec.Wastage = conv.Wastage

		level, clamp := ledger.Apply(stock.Level, ledger.Entry{Type: typ, Quantity: conv.Quantity, Weight: conv.Weight})
		if clamp.Active() {
			s.clamped(repo.Material(), site.Code, "record", clamp)
		}
		stock.Level = level

		if err := repo.SaveStock(tx, stock, actor.ID); err != nil {
			return fmt.Errorf("save stock: %w", err)
		}
		if err := repo.InsertTransaction(tx, &rec); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discard(attachments)
		if errors.Is(err, ledger.ErrInsufficientStock) {
			metrics.RejectedRequests.WithLabelValues(string(req.Material), "insufficient_stock").Inc()
		}
		return nil, err
	}

	// 4. Notify
	metrics.TransactionsRecorded.WithLabelValues(string(repo.Material()), string(typ)).Inc()
	s.publish(string(typ), rec, stock)
	s.log.Info("transaction recorded",
		"site", site.Code, "material", repo.Material(), "type", typ,
		"variant", rec.Variant.Label(repo.Material()), "quantity", rec.Quantity.String(),
		"weight", rec.Weight.String(), "user", actor.Email)

	result.Transaction = NewTransactionView(rec)
	result.Stock = NewStockView(stock)
	result.Wastage = rec.Wastage
	return result, nil
}

// DeleteTransaction removes a log row and reverses its effect on the level
// in the same database transaction.
func (s *inventoryService) DeleteTransaction(ctx context.Context, material ledger.Material, siteID, txID uuid.UUID, actor Actor) (*DeleteResult, error) {
	start := time.Now()
	defer func() {
		metrics.WorkflowDuration.WithLabelValues(string(material), "delete").Observe(time.Since(start).Seconds())
	}()

	repo, err := s.repo(material)
	if err != nil {
		return nil, err
	}
	site, err := s.site(ctx, siteID)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{}
	var (
		rec   repository.TxRecord
		stock repository.StockRecord
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = repo.FindTransaction(tx, site.ID, txID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if err := repo.DeleteTransaction(tx, site.ID, txID, actor.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		stock, err = repo.LockStock(tx, site.ID, rec.Variant, actor.ID)
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}
		level, clamp := ledger.Reverse(stock.Level, rec.Entry())
		if clamp.Active() {
			s.clamped(material, site.Code, "delete", clamp)
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"stock level was lower than this transaction; floored at zero (quantity short by %s)", clamp.Quantity))
		}
		stock.Level = level
		return repo.SaveStock(tx, stock, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	metrics.TransactionsDeleted.WithLabelValues(string(material)).Inc()
	s.publish("delete", rec, stock)
	s.log.Info("transaction deleted",
		"site", site.Code, "material", material, "id", txID, "type", rec.Type, "user", actor.Email)

	result.Transaction = NewTransactionView(rec)
	result.Stock = NewStockView(stock)
	return result, nil
}

func (s *inventoryService) Stock(ctx context.Context, material ledger.Material, siteID uuid.UUID) ([]StockView, error) {
	repo, err := s.repo(material)
	if err != nil {
		return nil, err
	}
	if _, err := s.site(ctx, siteID); err != nil {
		return nil, err
	}
	records, err := repo.ListStocks(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return stockViews(records), nil
}

// Transactions returns history rows inside the period, newest first.
func (s *inventoryService) Transactions(ctx context.Context, q TransactionQuery) ([]repository.TxRecord, error) {
	repo, err := s.repo(q.Material)
	if err != nil {
		return nil, err
	}
	if _, err := s.site(ctx, q.SiteID); err != nil {
		return nil, err
	}
	if err := validator.Validate(q); err != nil {
		return nil, &ledger.InvalidInputError{Field: "type", Reason: err.Error()}
	}

	records, err := repo.ListTransactions(ctx, q.SiteID)
	if err != nil {
		return nil, err
	}
	return filterRecords(records, q.Period, q.Type, s.now()), nil
}

// filterRecords applies the period and type filters and sorts newest first.
func filterRecords(records []repository.TxRecord, period ledger.PeriodFilter, typ ledger.TxType, now time.Time) []repository.TxRecord {
	byID := make(map[string]repository.TxRecord, len(records))
	for _, r := range records {
		byID[r.ID.String()] = r
	}

	var entries []ledger.Entry
	for e := range ledger.FilterByPeriod(repository.Entries(records), period, now) {
		if typ != "" && e.Type != typ {
			continue
		}
		entries = append(entries, e)
	}
	ledger.SortNewestFirst(entries)

	out := make([]repository.TxRecord, len(entries))
	for i, e := range entries {
		out[i] = byID[e.ID]
	}
	return out
}

func (s *inventoryService) repo(m ledger.Material) (repository.LedgerRepository, error) {
	if r, ok := s.repos[m]; ok {
		return r, nil
	}
	return nil, &ledger.InvalidInputError{Field: "material", Reason: fmt.Sprintf("unknown material %q", m)}
}

func (s *inventoryService) site(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	return findSite(ctx, s.sites, id)
}

func findSite(ctx context.Context, sites repository.SiteRepository, id uuid.UUID) (*model.Site, error) {
	site, err := sites.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return site, nil
}

func (s *inventoryService) clamped(m ledger.Material, siteCode, op string, c ledger.Clamp) {
	metrics.Clamps.WithLabelValues(string(m)).Inc()
	s.log.Warn("stock level floored at zero; level and log disagree",
		"site", siteCode, "material", m, "op", op,
		"quantity_short", c.Quantity.String(), "weight_short", c.Weight.String())
}

// discard removes an uploaded file whose transaction was rolled back.
func (s *inventoryService) discard(attachments model.Attachments) {
	for _, a := range attachments {
		if err := s.store.Delete(context.Background(), a.Path); err != nil {
			s.log.Warn("orphaned attachment not removed", "path", a.Path, "err", err)
		}
	}
}

func (s *inventoryService) publish(action string, rec repository.TxRecord, stock repository.StockRecord) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ws.Event{
		Type:     ws.EventStockUpdate,
		SiteID:   rec.SiteID.String(),
		Material: string(rec.Material),
		Variant:  rec.Variant.Label(rec.Material),
		Action:   action,
		TxID:     rec.ID.String(),
		Quantity: stock.Level.Quantity.String(),
		Weight:   stock.Level.Weight.String(),
	})
}

func folderFor(typ ledger.TxType) string {
	if typ == ledger.Outgoing {
		return storage.FolderIssueSlips
	}
	return storage.FolderBills
}

// units accepted per material and direction; the first is the default
var allowedUnits = map[ledger.Material]map[ledger.TxType][]ledger.Unit{
	ledger.Steel: {
		ledger.Incoming: {ledger.UnitTonnes, ledger.UnitKg},
		ledger.Outgoing: {ledger.UnitPieces},
	},
	ledger.Cement: {
		ledger.Incoming: {ledger.UnitBags},
		ledger.Outgoing: {ledger.UnitBags},
	},
	ledger.Diesel: {
		ledger.Incoming: {ledger.UnitLitres, ledger.UnitKg},
		ledger.Outgoing: {ledger.UnitLitres, ledger.UnitKg},
	},
}

// steelFields are the request fields that only apply to steel.
type steelFields struct {
	Diameter int `validate:"steel_diameter"`
}

// normalizeRequest returns a copy with free-text fields trimmed, so blank
// names fail validation instead of being stored empty.
func normalizeRequest(req *RecordRequest) *RecordRequest {
	r := *req
	r.Counterparty = strings.TrimSpace(r.Counterparty)
	r.Brand = strings.TrimSpace(r.Brand)
	r.CementType = strings.TrimSpace(r.CementType)
	r.Note = strings.TrimSpace(r.Note)
	return &r
}

func buildInput(typ ledger.TxType, req *RecordRequest) (ledger.Input, error) {
	if err := validator.Validate(req); err != nil {
		return ledger.Input{}, &ledger.InvalidInputError{Field: "request", Reason: err.Error()}
	}

	units := allowedUnits[req.Material][typ]
	unit := ledger.Unit(strings.ToLower(strings.TrimSpace(string(req.Unit))))
	if unit == "" && len(units) > 0 {
		unit = units[0]
	}
	valid := false
	for _, u := range units {
		if u == unit {
			valid = true
		}
	}
	if !valid {
		return ledger.Input{}, &ledger.InvalidInputError{Field: "unit", Reason: fmt.Sprintf("%s %s cannot be entered in %q", req.Material, typ, req.Unit)}
	}

	in := ledger.Input{Material: req.Material, Amount: req.Amount, Unit: unit}
	switch req.Material {
	case ledger.Steel:
		if err := validator.Validate(steelFields{Diameter: req.Diameter}); err != nil {
			return ledger.Input{}, &ledger.InvalidInputError{Field: "diameter", Reason: fmt.Sprintf("unsupported steel diameter %dmm", req.Diameter)}
		}
		in.Variant = ledger.Variant{Diameter: req.Diameter, Length: req.Length, Brand: req.Brand}
		if in.Variant.Length.IsZero() {
			in.Variant.Length = ledger.DefaultRodLength
		}
	case ledger.Cement:
		if req.CementType == "" {
			return ledger.Input{}, &ledger.InvalidInputError{Field: "cement_type", Reason: "is required"}
		}
		in.Variant = ledger.Variant{Grade: req.CementType}
	}
	return in, nil
}
