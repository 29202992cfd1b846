package validator

import (
	"errors"
	"fmt"
	"strings"

	"go-site-inventory/internal/ledger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

func (e *ErrorResponse) String() string {
	if e.Value != "" {
		return fmt.Sprintf("%s failed %s=%s", e.FailedField, e.Tag, e.Value)
	}
	return fmt.Sprintf("%s failed %s", e.FailedField, e.Tag)
}

// ErrValidation wraps every failure returned by Validate.
var ErrValidation = errors.New("validation failed")

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
	validate.RegisterValidation("steel_diameter", func(fl validator.FieldLevel) bool {
		return ledger.IsSteelDiameter(int(fl.Field().Int()))
	})
	validate.RegisterValidation("tx_type", func(fl validator.FieldLevel) bool {
		return ledger.TxType(strings.ToLower(fl.Field().String())).Valid()
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []*ErrorResponse{{FailedField: "body", Tag: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errs = append(errs, &element)
		}
	}
	return errs
}

// Validate returns the first failure as an error, or nil.
func Validate(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, "; "))
}
