package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Input is one shipment as entered by the user.
type Input struct {
	Material Material
	Variant  Variant
	Amount   decimal.Decimal
	Unit     Unit
}

// Conversion is the stock effect of an Input.
// Quantity is pieces, bags or litres; Weight is tonnes (litres for diesel).
type Conversion struct {
	Quantity     decimal.Decimal
	Weight       decimal.Decimal
	Wastage      decimal.Decimal
	UnitWeightKg decimal.Decimal
}

// ConvertIncoming derives quantity and weight for a received shipment.
//
// Steel is entered by weight and floored to whole bars; the remainder is
// reported as Wastage. Cement is entered as a bag count. Diesel is taken
// verbatim whatever the declared unit (litres and kg are not converted).
func ConvertIncoming(in Input) (Conversion, error) {
	if err := checkAmount(in.Amount); err != nil {
		return Conversion{}, err
	}

	switch in.Material {
	case Steel:
		unitKg, err := SteelPieceWeight(in.Variant.Diameter, in.Variant.Length)
		if err != nil {
			return Conversion{}, err
		}
		inputKg := in.Amount
		if in.Unit == UnitTonnes {
			inputKg = in.Amount.Shift(3)
		}
		pieces, _ := inputKg.QuoRem(unitKg, 0)
		if pieces.IsZero() {
			return Conversion{}, invalid("amount", "less than one bar of this diameter and length")
		}
		weight := kgToTonnes(pieces.Mul(unitKg))
		return Conversion{
			Quantity:     pieces,
			Weight:       weight,
			Wastage:      kgToTonnes(inputKg).Sub(weight),
			UnitWeightKg: unitKg,
		}, nil

	case Cement:
		if !isWhole(in.Amount) {
			return Conversion{}, invalid("amount", "bag count must be a whole number")
		}
		bagKg := CementBagWeight(in.Variant.Grade)
		return Conversion{
			Quantity:     in.Amount,
			Weight:       kgToTonnes(in.Amount.Mul(bagKg)),
			Wastage:      decimal.Zero,
			UnitWeightKg: bagKg,
		}, nil

	case Diesel:
		return Conversion{
			Quantity: in.Amount,
			Weight:   in.Amount,
			Wastage:  decimal.Zero,
		}, nil
	}
	return Conversion{}, invalid("material", fmt.Sprintf("unknown material %q", in.Material))
}

// ConvertOutgoing derives the weight of a dispatch and checks it against the
// current level. Steel and cement take a piece/bag count, diesel a volume.
func ConvertOutgoing(in Input, current Level) (Conversion, error) {
	conv, err := outgoing(in)
	if err != nil {
		return Conversion{}, err
	}
	available := current.Quantity
	if in.Material == Diesel {
		available = current.Weight
	}
	if in.Amount.GreaterThan(available) {
		return Conversion{}, &InsufficientStockError{Requested: in.Amount, Available: available}
	}
	return conv, nil
}

// ValidateOutgoing runs the input checks of ConvertOutgoing without a level,
// so a request can be rejected before anything is locked or uploaded.
func ValidateOutgoing(in Input) error {
	_, err := outgoing(in)
	return err
}

func outgoing(in Input) (Conversion, error) {
	if err := checkAmount(in.Amount); err != nil {
		return Conversion{}, err
	}

	switch in.Material {
	case Steel, Cement:
		if !isWhole(in.Amount) {
			return Conversion{}, invalid("amount", "count must be a whole number")
		}
		unitKg, err := UnitWeightKg(in.Material, in.Variant)
		if err != nil {
			return Conversion{}, err
		}
		return Conversion{
			Quantity:     in.Amount,
			Weight:       kgToTonnes(in.Amount.Mul(unitKg)),
			Wastage:      decimal.Zero,
			UnitWeightKg: unitKg,
		}, nil

	case Diesel:
		return Conversion{Quantity: in.Amount, Weight: in.Amount, Wastage: decimal.Zero}, nil
	}
	return Conversion{}, invalid("material", fmt.Sprintf("unknown material %q", in.Material))
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if !fitsScale(amount, QuantityScale) {
		return invalid("amount", fmt.Sprintf("at most %d decimal places", QuantityScale))
	}
	return nil
}

func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

func isWhole(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}
