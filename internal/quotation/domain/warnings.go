package domain

import (
	"github.com/shopspring/decimal"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
)

const (
	WarningVehicleLiability = "vehicle_liability_below_floor"
	WarningCondoLiability   = "condo_liability_below_floor"
	WarningOtherMinimum     = "insured_value_below_minimum"
)

// Warning is an advisory underwriting finding. It never blocks a quotation.
type Warning struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Floors are the thresholds behind the advisory checks.
type Floors struct {
	VehicleLiability decimal.Decimal
	CondoLiability   decimal.Decimal
	OtherMinimum     decimal.Decimal
}

// Advise runs the advisory checks for ins against insurer sublimits. A check
// is skipped when the insured value or the sublimit it needs is unset.
func Advise(ins Insured, insurer *insurerdomain.Insurer, floors Floors) []Warning {
	var warnings []Warning

	switch r := ins.(type) {
	case *VehicleInsured:
		if r.LiabilityInsured.Valid && insurer.VehicleThirdPartyProperty.Valid {
			available := r.LiabilityInsured.Decimal.Mul(insurer.VehicleThirdPartyProperty.Decimal)
			if available.LessThan(floors.VehicleLiability) {
				warnings = append(warnings, Warning{
					Code:    WarningVehicleLiability,
					Field:   "liability_insured",
					Message: "liability for third-party property is " + available.StringFixed(2) + ", below " + floors.VehicleLiability.StringFixed(2),
				})
			}
		}
	case *CondoInsured:
		if r.LiabilityInsured.Valid && insurer.CondoContractors.Valid {
			available := r.LiabilityInsured.Decimal.Mul(insurer.CondoContractors.Decimal)
			if available.LessThan(floors.CondoLiability) {
				warnings = append(warnings, Warning{
					Code:    WarningCondoLiability,
					Field:   "liability_insured",
					Message: "liability for contractors is " + available.StringFixed(2) + ", below " + floors.CondoLiability.StringFixed(2),
				})
			}
		}
	case *OtherInsured:
		if r.ItemInsured.Valid && r.ItemInsured.Decimal.LessThan(floors.OtherMinimum) {
			warnings = append(warnings, Warning{
				Code:    WarningOtherMinimum,
				Field:   "item_insured",
				Message: "insured value is below the minimum of " + floors.OtherMinimum.StringFixed(2),
			})
		}
	}
	return warnings
}
