package validator

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

type steelRequest struct {
	SiteID   uuid.UUID `validate:"uuid_required"`
	Diameter int       `validate:"steel_diameter"`
	Type     string    `validate:"tx_type"`
	Supplier string    `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	valid := steelRequest{SiteID: uuid.New(), Diameter: 12, Type: "incoming", Supplier: "Tata"}

	tests := []struct {
		name   string
		mutate func(*steelRequest)
		tag    string
	}{
		{"valid", func(*steelRequest) {}, ""},
		{"nil site", func(r *steelRequest) { r.SiteID = uuid.Nil }, "uuid_required"},
		{"odd diameter", func(r *steelRequest) { r.Diameter = 14 }, "steel_diameter"},
		{"bad type", func(r *steelRequest) { r.Type = "transfer" }, "tx_type"},
		{"upper-case type", func(r *steelRequest) { r.Type = "OUTGOING" }, ""},
		{"missing supplier", func(r *steelRequest) { r.Supplier = "" }, "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			errs := ValidateStruct(req)
			if tt.tag == "" {
				if len(errs) != 0 {
					t.Fatalf("ValidateStruct() = %v, want none", errs)
				}
				if err := Validate(req); err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if len(errs) != 1 || errs[0].Tag != tt.tag {
				t.Fatalf("ValidateStruct() = %v, want one %q failure", errs, tt.tag)
			}
			if err := Validate(req); !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, want ErrValidation", err)
			}
		})
	}
}
