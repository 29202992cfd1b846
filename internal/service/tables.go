package service

import (
	"fmt"
	"strings"

	"go-site-inventory/internal/export"
	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/repository"
)

func weightHeader(m ledger.Material) string {
	if m == ledger.Diesel {
		return "Volume"
	}
	return "Weight (t)"
}

func unitHeader(m ledger.Material) string {
	switch m {
	case ledger.Steel:
		return "Pieces"
	case ledger.Cement:
		return "Bags"
	}
	return "Litres"
}

func title(m ledger.Material, s string) string {
	name := string(m)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s %s", name, s)
}

// HistoryTable lays out transaction rows newest first as they are given.
func HistoryTable(m ledger.Material, records []repository.TxRecord) export.Table {
	t := export.Table{
		Title:   title(m, "history"),
		Headers: []string{"Date", "Type", "Variant", unitHeader(m), weightHeader(m), "Entered", "Unit", "Supplier / Recipient", "Attachment", "Note", "Recorded by"},
	}
	if m == ledger.Steel {
		t.Headers = append(t.Headers, "Wastage (t)")
	}
	for _, r := range records {
		attachment := ""
		if len(r.Attachments) > 0 {
			attachment = r.Attachments[0].Path
		}
		row := []interface{}{
			r.OccurredAt, string(r.Type), variantKey(m, r.Variant.Label(m)), r.Quantity, r.Weight,
			r.InputAmount, string(r.InputUnit), r.Counterparty, attachment, r.Note, r.CreatedBy,
		}
		if m == ledger.Steel {
			row = append(row, r.Wastage)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SummaryTables returns the balance sheet followed by supplier and contractor totals.
func SummaryTables(s *StockSummary) []export.Table {
	balance := export.Table{
		Title: title(s.Material, "summary"),
		Headers: []string{
			"Variant",
			"Opening " + unitHeader(s.Material), "Incoming " + unitHeader(s.Material),
			"Outgoing " + unitHeader(s.Material), "Closing " + unitHeader(s.Material),
			"Opening " + weightHeader(s.Material), "Incoming " + weightHeader(s.Material),
			"Outgoing " + weightHeader(s.Material), "Closing " + weightHeader(s.Material),
			"Transactions",
		},
	}
	for _, v := range append(append([]VariantSummary{}, s.Variants...), s.Total) {
		balance.Rows = append(balance.Rows, []interface{}{
			v.Variant,
			v.Units.Opening, v.Units.Incoming, v.Units.Outgoing, v.Units.Closing,
			v.Weight.Opening, v.Weight.Incoming, v.Weight.Outgoing, v.Weight.Closing,
			v.Transactions,
		})
	}

	partyTable := func(name string, parties []PartySummary) export.Table {
		t := export.Table{
			Title:   name,
			Headers: []string{"Name", unitHeader(s.Material), weightHeader(s.Material), "Transactions"},
		}
		for _, p := range parties {
			t.Rows = append(t.Rows, []interface{}{p.Name, p.Units, p.Weight, p.Transactions})
		}
		return t
	}
	return []export.Table{
		balance,
		partyTable("Suppliers", s.Suppliers),
		partyTable("Contractors", s.Contractors),
	}
}

func TallyTable(rows []TallyRow) export.Table {
	t := export.Table{
		Title:   "Steel tally",
		Headers: []string{"Variant", "Length (m)", "Brand", "Pieces", "Bar weight (kg)", "Expected (t)", "Stored (t)", "Drift (t)", "OK"},
	}
	for _, r := range rows {
		ok := "yes"
		if !r.OK {
			ok = "NO"
		}
		t.Rows = append(t.Rows, []interface{}{r.Variant, r.Length, r.Brand, r.Pieces, r.UnitWeightKg, r.Expected, r.Actual, r.Drift, ok})
	}
	return t
}
