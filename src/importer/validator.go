// backend/src/importer/validator.go
package importer

import (
	"fmt"

	"github.com/username/folioview/backend/src/models"
)

var recognizedSides = map[string]bool{
	models.SideBuy:      true,
	models.SideSell:     true,
	models.SideDeposit:  true,
	models.SideWithdraw: true,
}

// Validate scans converted records for out-of-range or missing values and
// returns advisory warnings, keyed by 1-based row and field. It never fails
// and never mutates the records; the rules are independent, so one record can
// produce several warnings.
func Validate(rs *RecordSet) []models.ValidationWarning {
	warnings := []models.ValidationWarning{}

	if rs.Schema == models.PortfolioTypeSnapshot {
		for i, rec := range rs.Snapshots {
			row := i + 1
			if rec.Symbol == "" {
				warnings = append(warnings, warn(row, models.FieldSymbol, rec.Symbol, "symbol is empty"))
			}
			if rec.Quantity <= 0 {
				warnings = append(warnings, warn(row, models.FieldQuantity, rec.Quantity, "quantity is not positive"))
			}
			if rec.CostBasis < 0 {
				warnings = append(warnings, warn(row, models.FieldCostBasis, rec.CostBasis, "cost basis is negative"))
			}
		}
		return warnings
	}

	for i, rec := range rs.Transactions {
		row := i + 1
		if rec.Symbol == "" {
			warnings = append(warnings, warn(row, models.FieldSymbol, rec.Symbol, "symbol is empty"))
		}
		if rec.Quantity <= 0 {
			warnings = append(warnings, warn(row, models.FieldQuantity, rec.Quantity, "quantity is not positive"))
		}
		if rec.Price < 0 {
			warnings = append(warnings, warn(row, models.FieldPrice, rec.Price, "price is negative"))
		}
		if rec.Fee < 0 {
			warnings = append(warnings, warn(row, models.FieldFee, rec.Fee, "fee is negative"))
		}
		if !recognizedSides[rec.Side] {
			warnings = append(warnings, warn(row, models.FieldSide, rec.Side,
				fmt.Sprintf("unrecognized side %q (expected BUY, SELL, DEPOSIT or WITHDRAW)", rec.Side)))
		}
	}
	return warnings
}

func warn(row int, field models.CanonicalField, value any, message string) models.ValidationWarning {
	return models.ValidationWarning{Row: row, Field: field, Value: value, Message: message}
}
