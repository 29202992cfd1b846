// Package ledger holds the stock arithmetic for site materials: unit conversion,
// level mutation from transactions, period filtering and grouped summaries.
//
// Everything here is pure. Callers persist the results.
package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Material string

const (
	Steel  Material = "steel"
	Cement Material = "cement"
	Diesel Material = "diesel"
)

var Materials = []Material{Steel, Cement, Diesel}

func ParseMaterial(s string) (Material, error) {
	m := Material(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", invalid("material", fmt.Sprintf("unknown material %q", s))
	}
	return m, nil
}

func (m Material) Valid() bool {
	switch m {
	case Steel, Cement, Diesel:
		return true
	}
	return false
}

// Unit is the unit an amount was entered in.
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitTonnes Unit = "tonnes"
	UnitPieces Unit = "pieces"
	UnitBags   Unit = "bags"
	UnitLitres Unit = "litres"
)

var (
	// DefaultRodLength is the standard TMT bar length in metres.
	DefaultRodLength = decimal.NewFromInt(12)
	// DefaultBagWeight applies to any cement grade missing from the table.
	DefaultBagWeight = decimal.NewFromInt(50)
)

// kg per linear metre, by bar diameter in mm.
var steelKgPerMetre = map[int]decimal.Decimal{
	6:  decimal.RequireFromString("0.222"),
	8:  decimal.RequireFromString("0.395"),
	10: decimal.RequireFromString("0.617"),
	12: decimal.RequireFromString("0.888"),
	16: decimal.RequireFromString("1.580"),
	20: decimal.RequireFromString("2.470"),
	25: decimal.RequireFromString("3.850"),
	28: decimal.RequireFromString("4.830"),
	32: decimal.RequireFromString("6.310"),
}

// SteelDiameters lists the supported bar diameters in ascending order.
var SteelDiameters = []int{6, 8, 10, 12, 16, 20, 25, 28, 32}

var cementKgPerBag = map[string]decimal.Decimal{
	"OPC 43 Grade": DefaultBagWeight,
	"OPC 53 Grade": DefaultBagWeight,
	"PPC":          DefaultBagWeight,
	"PSC":          DefaultBagWeight,
	"White Cement": DefaultBagWeight,
}

var CementGrades = []string{"OPC 43 Grade", "OPC 53 Grade", "PPC", "PSC", "White Cement"}

func IsSteelDiameter(d int) bool {
	_, ok := steelKgPerMetre[d]
	return ok
}

// SteelKgPerMetre has no fallback: an unknown diameter is rejected.
func SteelKgPerMetre(diameter int) (decimal.Decimal, error) {
	w, ok := steelKgPerMetre[diameter]
	if !ok {
		return decimal.Zero, invalid("diameter", fmt.Sprintf("unsupported steel diameter %dmm", diameter))
	}
	return w, nil
}

// SteelPieceWeight returns the weight of one bar in kg.
func SteelPieceWeight(diameter int, length decimal.Decimal) (decimal.Decimal, error) {
	perMetre, err := SteelKgPerMetre(diameter)
	if err != nil {
		return decimal.Zero, err
	}
	if length.IsZero() {
		length = DefaultRodLength
	}
	if !length.IsPositive() {
		return decimal.Zero, invalid("length", "rod length must be positive")
	}
	if !fitsScale(length, LengthScale) {
		return decimal.Zero, invalid("length", fmt.Sprintf("at most %d decimal places", LengthScale))
	}
	return perMetre.Mul(length), nil
}

// CementBagWeight never fails; unknown grades weigh DefaultBagWeight.
func CementBagWeight(grade string) decimal.Decimal {
	if w, ok := cementKgPerBag[strings.TrimSpace(grade)]; ok {
		return w
	}
	return DefaultBagWeight
}

// Variant identifies the sub-kind of a material. Diesel has none.
type Variant struct {
	Diameter int
	Length   decimal.Decimal
	Brand    string
	Grade    string
}

// Label is the grouping key of a variant: "12mm" for steel, the grade for cement.
func (v Variant) Label(m Material) string {
	switch m {
	case Steel:
		return SteelLabel(v.Diameter)
	case Cement:
		return strings.TrimSpace(v.Grade)
	}
	return ""
}

func SteelLabel(diameter int) string {
	return strconv.Itoa(diameter) + "mm"
}

// UnitWeightKg is the weight of one piece or bag. Diesel has no unit weight.
func UnitWeightKg(m Material, v Variant) (decimal.Decimal, error) {
	switch m {
	case Steel:
		return SteelPieceWeight(v.Diameter, v.Length)
	case Cement:
		return CementBagWeight(v.Grade), nil
	case Diesel:
		return decimal.Zero, invalid("material", "diesel has no unit weight")
	}
	return decimal.Zero, invalid("material", fmt.Sprintf("unknown material %q", m))
}

// Decimal places kept by the stock and history columns.
const (
	LengthScale   int32 = 3
	QuantityScale int32 = 4
	WeightScale   int32 = 6
)

// kgToTonnes rounds to WeightScale so stored weights match computed ones.
func kgToTonnes(kg decimal.Decimal) decimal.Decimal { return kg.Shift(-3).Round(WeightScale) }
