package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	Incoming TxType = "incoming"
	Outgoing TxType = "outgoing"
)

func (t TxType) Valid() bool { return t == Incoming || t == Outgoing }

// Level is the stock held for one site and variant.
type Level struct {
	Quantity decimal.Decimal
	Weight   decimal.Decimal
}

// Entry is an immutable transaction-log row.
type Entry struct {
	ID           string
	SiteID       string
	Material     Material
	Type         TxType
	Variant      string
	Quantity     decimal.Decimal
	Weight       decimal.Decimal
	Counterparty string
	Attachment   string
	OccurredAt   time.Time
	Seq          int64
}

// Clamp records how much a subtraction had to be floored at zero.
// A non-zero clamp means the level and the log disagree.
type Clamp struct {
	Quantity decimal.Decimal
	Weight   decimal.Decimal
}

func (c Clamp) Active() bool {
	return c.Quantity.IsPositive() || c.Weight.IsPositive()
}

// Apply adds an incoming entry or subtracts an outgoing one.
func Apply(level Level, e Entry) (Level, Clamp) {
	if e.Type == Incoming {
		return add(level, e), Clamp{}
	}
	return subtract(level, e)
}

// Reverse undoes the effect of an entry that is being deleted.
func Reverse(level Level, e Entry) (Level, Clamp) {
	if e.Type == Incoming {
		return subtract(level, e)
	}
	return add(level, e), Clamp{}
}

func add(level Level, e Entry) Level {
	return Level{
		Quantity: level.Quantity.Add(e.Quantity),
		Weight:   level.Weight.Add(e.Weight),
	}
}

func subtract(level Level, e Entry) (Level, Clamp) {
	q, cq := floorAtZero(level.Quantity.Sub(e.Quantity))
	w, cw := floorAtZero(level.Weight.Sub(e.Weight))
	return Level{Quantity: q, Weight: w}, Clamp{Quantity: cq, Weight: cw}
}

func floorAtZero(d decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if d.IsNegative() {
		return decimal.Zero, d.Neg()
	}
	return d, decimal.Zero
}
