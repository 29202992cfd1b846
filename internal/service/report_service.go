package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/metrics"
	"go-site-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportService interface {
	Summary(ctx context.Context, material ledger.Material, siteID uuid.UUID, period ledger.PeriodFilter) (*StockSummary, error)
	Tally(ctx context.Context, siteID uuid.UUID) ([]TallyRow, error)
	Reconcile(ctx context.Context, material ledger.Material, siteID uuid.UUID, fix bool, actor Actor) ([]ReconcileRow, error)
}

type BalanceView struct {
	Opening  decimal.Decimal `json:"opening"`
	Incoming decimal.Decimal `json:"incoming"`
	Outgoing decimal.Decimal `json:"outgoing"`
	Closing  decimal.Decimal `json:"closing"`
}

func newBalanceView(b ledger.Balance) BalanceView {
	return BalanceView{Opening: b.Opening, Incoming: b.Incoming, Outgoing: b.Outgoing, Closing: b.Closing}
}

// VariantSummary is one line of the stock report. Units are pieces, bags or
// litres; weight is tonnes (litres for diesel).
type VariantSummary struct {
	Variant      string      `json:"variant"`
	Units        BalanceView `json:"units"`
	Weight       BalanceView `json:"weight"`
	Transactions int         `json:"transactions"`
}

type PartySummary struct {
	Name         string          `json:"name"`
	Units        decimal.Decimal `json:"units"`
	Weight       decimal.Decimal `json:"weight"`
	Transactions int             `json:"transactions"`
}

type StockSummary struct {
	SiteID      uuid.UUID         `json:"site_id"`
	Material    ledger.Material   `json:"material"`
	Period      ledger.PeriodKind `json:"period"`
	Start       *time.Time        `json:"start,omitempty"`
	End         *time.Time        `json:"end,omitempty"`
	Variants    []VariantSummary  `json:"variants"`
	Total       VariantSummary    `json:"total"`
	Suppliers   []PartySummary    `json:"suppliers"`
	Contractors []PartySummary    `json:"contractors"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type TallyRow struct {
	StockID      uuid.UUID       `json:"stock_id"`
	Variant      string          `json:"variant"`
	Length       string          `json:"length"`
	Brand        string          `json:"brand,omitempty"`
	Pieces       decimal.Decimal `json:"pieces"`
	UnitWeightKg decimal.Decimal `json:"unit_weight_kg"`
	Expected     decimal.Decimal `json:"expected_weight"`
	Actual       decimal.Decimal `json:"actual_weight"`
	Drift        decimal.Decimal `json:"drift"`
	OK           bool            `json:"ok"`
}

// ReconcileRow compares a stored level with the level rebuilt from the log.
type ReconcileRow struct {
	StockID          uuid.UUID       `json:"stock_id"`
	Variant          string          `json:"variant"`
	StoredQuantity   decimal.Decimal `json:"stored_quantity"`
	StoredWeight     decimal.Decimal `json:"stored_weight"`
	ReplayedQuantity decimal.Decimal `json:"replayed_quantity"`
	ReplayedWeight   decimal.Decimal `json:"replayed_weight"`
	Clamps           int             `json:"clamps"`
	Match            bool            `json:"match"`
	Fixed            bool            `json:"fixed"`

	variant ledger.Variant
}

type reportService struct {
	db        *gorm.DB
	sites     repository.SiteRepository
	inventory InventoryService
	repos     map[ledger.Material]repository.LedgerRepository
	tolerance decimal.Decimal
	log       *slog.Logger
	now       func() time.Time
}

func NewReportService(db *gorm.DB, sites repository.SiteRepository, inventory InventoryService, repos []repository.LedgerRepository, tolerance decimal.Decimal, log *slog.Logger) ReportService {
	byMaterial := make(map[ledger.Material]repository.LedgerRepository, len(repos))
	for _, r := range repos {
		byMaterial[r.Material()] = r
	}
	if !tolerance.IsPositive() {
		tolerance = ledger.DefaultTallyTolerance
	}
	return &reportService{
		db:        db,
		sites:     sites,
		inventory: inventory,
		repos:     byMaterial,
		tolerance: tolerance,
		log:       log,
		now:       time.Now,
	}
}

func (s *reportService) Summary(ctx context.Context, material ledger.Material, siteID uuid.UUID, period ledger.PeriodFilter) (*StockSummary, error) {
	stocks, err := s.inventory.Stock(ctx, material, siteID)
	if err != nil {
		return nil, err
	}
	history, err := s.inventory.Transactions(ctx, TransactionQuery{Material: material, SiteID: siteID, Period: period})
	if err != nil {
		return nil, err
	}
	entries := repository.Entries(history)
	for i := range entries {
		entries[i].Variant = variantKey(material, entries[i].Variant)
	}

	// closing levels come from the stock table, summed per variant label
	closing := make(map[string]ledger.Level)
	for _, st := range stocks {
		key := variantKey(material, st.Variant)
		l := closing[key]
		closing[key] = ledger.Level{Quantity: l.Quantity.Add(st.Quantity), Weight: l.Weight.Add(st.Weight)}
	}

	byVariant := ledger.SummarizeBy(slices.Values(entries), ledger.ByVariant)

	keys := ledger.SortedKeys(byVariant)
	for k := range closing {
		if _, ok := byVariant[k]; !ok {
			keys = append(keys, k)
		}
	}
	sortVariantKeys(keys)

	out := &StockSummary{
		SiteID:      siteID,
		Material:    material,
		Period:      period.Kind,
		Variants:    make([]VariantSummary, 0, len(keys)),
		Suppliers:   parties(ledger.SummarizeBy(slices.Values(entries), ledger.BySupplier), ledger.Incoming),
		Contractors: parties(ledger.SummarizeBy(slices.Values(entries), ledger.ByContractor), ledger.Outgoing),
		GeneratedAt: s.now(),
	}
	if !period.Start.IsZero() {
		out.Start = &period.Start
	}
	if !period.End.IsZero() {
		out.End = &period.End
	}

	var (
		totalClose ledger.Level
		totals     ledger.GroupSummary
		totalN     int
	)
	for _, k := range keys {
		g := byVariant[k]
		if g == nil {
			g = &ledger.GroupSummary{}
		}
		c := closing[k]
		out.Variants = append(out.Variants, VariantSummary{
			Variant:      k,
			Units:        newBalanceView(ledger.NewBalance(c.Quantity, g.IncomingUnits, g.OutgoingUnits)),
			Weight:       newBalanceView(ledger.NewBalance(c.Weight, g.IncomingWeight, g.OutgoingWeight)),
			Transactions: len(g.Members),
		})
		totalClose.Quantity = totalClose.Quantity.Add(c.Quantity)
		totalClose.Weight = totalClose.Weight.Add(c.Weight)
		totals.IncomingUnits = totals.IncomingUnits.Add(g.IncomingUnits)
		totals.OutgoingUnits = totals.OutgoingUnits.Add(g.OutgoingUnits)
		totals.IncomingWeight = totals.IncomingWeight.Add(g.IncomingWeight)
		totals.OutgoingWeight = totals.OutgoingWeight.Add(g.OutgoingWeight)
		totalN += len(g.Members)
	}
	out.Total = VariantSummary{
		Variant:      "total",
		Units:        newBalanceView(ledger.NewBalance(totalClose.Quantity, totals.IncomingUnits, totals.OutgoingUnits)),
		Weight:       newBalanceView(ledger.NewBalance(totalClose.Weight, totals.IncomingWeight, totals.OutgoingWeight)),
		Transactions: totalN,
	}
	return out, nil
}

// Tally checks every steel stock row of the site against pieces × bar weight.
func (s *reportService) Tally(ctx context.Context, siteID uuid.UUID) ([]TallyRow, error) {
	repo, ok := s.repos[ledger.Steel]
	if !ok {
		return nil, fmt.Errorf("steel repository not configured")
	}
	if _, err := findSite(ctx, s.sites, siteID); err != nil {
		return nil, err
	}
	stocks, err := repo.ListStocks(ctx, siteID)
	if err != nil {
		return nil, err
	}

	rows := make([]TallyRow, 0, len(stocks))
	for _, st := range stocks {
		unitKg, err := ledger.SteelPieceWeight(st.Variant.Diameter, st.Variant.Length)
		if err != nil {
			// rows written before a diameter was dropped from the table
			s.log.Warn("tally skipped stock row", "stock_id", st.ID, "err", err)
			continue
		}
		t := ledger.VerifyTally(st.Level, unitKg, s.tolerance)
		label := st.Variant.Label(ledger.Steel)
		metrics.TallyDrift.WithLabelValues(siteID.String(), label).Set(t.Drift.InexactFloat64())
		if !t.OK {
			s.log.Warn("steel tally drift above tolerance",
				"site_id", siteID, "variant", label, "brand", st.Variant.Brand,
				"expected", t.Expected.String(), "actual", t.Actual.String())
		}
		rows = append(rows, TallyRow{
			StockID:      st.ID,
			Variant:      label,
			Length:       st.Variant.Length.String(),
			Brand:        st.Variant.Brand,
			Pieces:       st.Level.Quantity,
			UnitWeightKg: unitKg,
			Expected:     t.Expected,
			Actual:       t.Actual,
			Drift:        t.Drift,
			OK:           t.OK,
		})
	}
	return rows, nil
}

// Reconcile replays the log of every stock row and compares the result with
// the stored level. With fix set, mismatched rows are overwritten with the
// replayed level. Writes arriving while it runs are not accounted for.
func (s *reportService) Reconcile(ctx context.Context, material ledger.Material, siteID uuid.UUID, fix bool, actor Actor) ([]ReconcileRow, error) {
	repo, ok := s.repos[material]
	if !ok {
		return nil, &ledger.InvalidInputError{Field: "material", Reason: fmt.Sprintf("unknown material %q", material)}
	}
	if _, err := findSite(ctx, s.sites, siteID); err != nil {
		return nil, err
	}
	stocks, err := repo.ListStocks(ctx, siteID)
	if err != nil {
		return nil, err
	}
	records, err := repo.ListTransactions(ctx, siteID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]ledger.Entry)
	variants := make(map[string]ledger.Variant)
	for _, r := range records {
		k := stockKey(material, r.Variant)
		grouped[k] = append(grouped[k], r.Entry())
		variants[k] = r.Variant
	}

	var rows []ReconcileRow
	seen := make(map[string]bool)
	for _, st := range stocks {
		k := stockKey(material, st.Variant)
		seen[k] = true
		rows = append(rows, s.reconcileRow(material, st.ID, st.Variant, st.Level, grouped[k]))
	}
	// log rows whose stock row is missing entirely
	for _, k := range slices.Sorted(maps.Keys(grouped)) {
		if !seen[k] {
			rows = append(rows, s.reconcileRow(material, uuid.Nil, variants[k], ledger.Level{}, grouped[k]))
		}
	}

	if fix {
		for i := range rows {
			if rows[i].Match {
				continue
			}
			if err := s.fix(ctx, repo, siteID, &rows[i], actor); err != nil {
				return rows, err
			}
		}
	}
	return rows, nil
}

func (s *reportService) reconcileRow(m ledger.Material, id uuid.UUID, v ledger.Variant, stored ledger.Level, entries []ledger.Entry) ReconcileRow {
	ledger.SortEntries(entries)
	replayed, clamps := ledger.Replay(slices.Values(entries))
	return ReconcileRow{
		StockID:          id,
		Variant:          stockKey(m, v),
		StoredQuantity:   stored.Quantity,
		StoredWeight:     stored.Weight,
		ReplayedQuantity: replayed.Quantity,
		ReplayedWeight:   replayed.Weight,
		Clamps:           clamps,
		Match:            stored.Quantity.Equal(replayed.Quantity) && stored.Weight.Equal(replayed.Weight),
		variant:          v,
	}
}

func (s *reportService) fix(ctx context.Context, repo repository.LedgerRepository, siteID uuid.UUID, row *ReconcileRow, actor Actor) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stock, err := repo.LockStock(tx, siteID, row.variant, actor.ID)
		if err != nil {
			return err
		}
		stock.Level = ledger.Level{Quantity: row.ReplayedQuantity, Weight: row.ReplayedWeight}
		row.StockID = stock.ID
		return repo.SaveStock(tx, stock, actor.ID)
	})
	if err != nil {
		return fmt.Errorf("fix %s: %w", row.Variant, err)
	}
	row.Fixed = true
	s.log.Warn("stock level overwritten from log replay",
		"site_id", siteID, "material", repo.Material(), "variant", row.Variant,
		"quantity", row.ReplayedQuantity.String(), "weight", row.ReplayedWeight.String(), "user", actor.Email)
	return nil
}

// variantKey labels report lines; diesel has a single line named after the material.
func variantKey(m ledger.Material, label string) string {
	if label == "" {
		return string(m)
	}
	return label
}

// stockKey identifies a stock row: steel rows differ by length and brand too.
func stockKey(m ledger.Material, v ledger.Variant) string {
	switch m {
	case ledger.Steel:
		length := v.Length
		if length.IsZero() {
			length = ledger.DefaultRodLength
		}
		key := fmt.Sprintf("%s %sm", v.Label(m), length.String())
		if v.Brand != "" {
			key += " " + v.Brand
		}
		return key
	case ledger.Cement:
		return v.Label(m)
	}
	return string(m)
}

// sortVariantKeys orders steel labels by diameter and everything else lexically.
func sortVariantKeys(keys []string) {
	slices.SortFunc(keys, func(a, b string) int {
		var da, db int
		_, ea := fmt.Sscanf(a, "%dmm", &da)
		_, eb := fmt.Sscanf(b, "%dmm", &db)
		if ea == nil && eb == nil && da != db {
			return cmp.Compare(da, db)
		}
		return strings.Compare(a, b)
	})
}

func parties(groups map[string]*ledger.GroupSummary, typ ledger.TxType) []PartySummary {
	out := make([]PartySummary, 0, len(groups))
	for _, name := range ledger.SortedKeys(groups) {
		g := groups[name]
		p := PartySummary{Name: name, Transactions: len(g.Members)}
		if typ == ledger.Incoming {
			p.Units, p.Weight = g.IncomingUnits, g.IncomingWeight
		} else {
			p.Units, p.Weight = g.OutgoingUnits, g.OutgoingWeight
		}
		out = append(out, p)
	}
	return out
}
