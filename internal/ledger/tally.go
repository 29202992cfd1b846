package ledger

import (
	"iter"

	"github.com/shopspring/decimal"
)

// DefaultTallyTolerance is the drift in tonnes accepted before a level is flagged.
var DefaultTallyTolerance = decimal.RequireFromString("0.001")

// Tally compares a stored weight with quantity × unit weight.
type Tally struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
	Drift    decimal.Decimal
	OK       bool
}

func VerifyTally(level Level, unitWeightKg, tolerance decimal.Decimal) Tally {
	expected := kgToTonnes(level.Quantity.Mul(unitWeightKg))
	drift := level.Weight.Sub(expected)
	return Tally{
		Expected: expected,
		Actual:   level.Weight,
		Drift:    drift,
		OK:       drift.Abs().LessThanOrEqual(tolerance),
	}
}

// Replay rebuilds a level from the log, applying entries in the order given.
// It also returns how many applications had to be clamped.
func Replay(entries iter.Seq[Entry]) (Level, int) {
	var level Level
	clamps := 0
	for e := range entries {
		var c Clamp
		level, c = Apply(level, e)
		if c.Active() {
			clamps++
		}
	}
	return level, clamps
}
