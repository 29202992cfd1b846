package handler

import (
	"go-site-inventory/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type steelSize struct {
	Diameter      int             `json:"diameter"`
	Label         string          `json:"label"`
	KgPerMetre    decimal.Decimal `json:"kg_per_metre"`
	PieceWeightKg decimal.Decimal `json:"piece_weight_kg"`
}

type cementGrade struct {
	Grade       string          `json:"grade"`
	BagWeightKg decimal.Decimal `json:"bag_weight_kg"`
}

// GET /api/v1/materials
// Lists the steel sizes and cement grades the ledger accepts, with the unit
// weights used for conversion. Piece weight assumes the default rod length.
func GetMaterials(c *fiber.Ctx) error {
	steel := make([]steelSize, 0, len(ledger.SteelDiameters))
	for _, d := range ledger.SteelDiameters {
		perMetre, err := ledger.SteelKgPerMetre(d)
		if err != nil {
			return respondError(c, err)
		}
		steel = append(steel, steelSize{
			Diameter:      d,
			Label:         ledger.SteelLabel(d),
			KgPerMetre:    perMetre,
			PieceWeightKg: perMetre.Mul(ledger.DefaultRodLength),
		})
	}

	cement := make([]cementGrade, len(ledger.CementGrades))
	for i, g := range ledger.CementGrades {
		cement[i] = cementGrade{Grade: g, BagWeightKg: ledger.CementBagWeight(g)}
	}

	return c.JSON(fiber.Map{
		"materials":          ledger.Materials,
		"steel":              steel,
		"cement":             cement,
		"default_rod_length": ledger.DefaultRodLength,
	})
}
