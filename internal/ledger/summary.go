package ledger

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// GroupSummary totals the entries sharing one grouping key.
type GroupSummary struct {
	IncomingUnits  decimal.Decimal
	IncomingWeight decimal.Decimal
	OutgoingUnits  decimal.Decimal
	OutgoingWeight decimal.Decimal
	Members        []Entry
}

// KeyFunc extracts a grouping key. Entries reporting false are left out.
type KeyFunc func(Entry) (string, bool)

// SummarizeBy groups entries by key and totals each direction.
func SummarizeBy(entries iter.Seq[Entry], key KeyFunc) map[string]*GroupSummary {
	groups := make(map[string]*GroupSummary)
	for e := range entries {
		k, ok := key(e)
		if !ok {
			continue
		}
		g, found := groups[k]
		if !found {
			g = &GroupSummary{}
			groups[k] = g
		}
		switch e.Type {
		case Incoming:
			g.IncomingUnits = g.IncomingUnits.Add(e.Quantity)
			g.IncomingWeight = g.IncomingWeight.Add(e.Weight)
		case Outgoing:
			g.OutgoingUnits = g.OutgoingUnits.Add(e.Quantity)
			g.OutgoingWeight = g.OutgoingWeight.Add(e.Weight)
		}
		g.Members = append(g.Members, e)
	}
	return groups
}

// SortedKeys returns group names in lexical order.
func SortedKeys(groups map[string]*GroupSummary) []string {
	return slices.Sorted(maps.Keys(groups))
}

// BySupplier groups incoming entries by the party they were imported from.
func BySupplier(e Entry) (string, bool) {
	if e.Type != Incoming {
		return "", false
	}
	return ByCounterparty(e)
}

// ByContractor groups outgoing entries by recipient.
func ByContractor(e Entry) (string, bool) {
	if e.Type != Outgoing {
		return "", false
	}
	return ByCounterparty(e)
}

func ByCounterparty(e Entry) (string, bool) {
	name := strings.TrimSpace(e.Counterparty)
	return name, name != ""
}

func ByVariant(e Entry) (string, bool) {
	return e.Variant, e.Variant != ""
}

// Balance is the opening/incoming/outgoing/closing line of a stock report.
type Balance struct {
	Opening  decimal.Decimal
	Incoming decimal.Decimal
	Outgoing decimal.Decimal
	Closing  decimal.Decimal
}

// NewBalance derives Opening from the current closing level as
// closing − incoming + outgoing, floored at zero. This is only exact when
// the period covers every entry that touched the level; movements before
// the period window are not accounted for.
func NewBalance(closing, incoming, outgoing decimal.Decimal) Balance {
	opening, _ := floorAtZero(closing.Sub(incoming).Add(outgoing))
	return Balance{
		Opening:  opening,
		Incoming: incoming,
		Outgoing: outgoing,
		Closing:  closing,
	}
}
