// Package domain defines how a premium is estimated from insured values.
package domain

import (
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
)

// Input is what a strategy needs to price one option.
type Input struct {
	Kind           assetdomain.Kind
	InsuredValues  map[string]decimal.Decimal
	CommissionRate decimal.Decimal
}

// Result is a premium estimate. Amounts are rounded to cents.
type Result struct {
	Kind                 assetdomain.Kind `json:"kind"`
	TotalInsured         decimal.Decimal  `json:"total_insured"`
	PremiumBase          decimal.Decimal  `json:"premium_base"`
	Tax                  decimal.Decimal  `json:"tax"`
	PremiumTotal         decimal.Decimal  `json:"premium_total"`
	CommissionRate       decimal.Decimal  `json:"commission_rate"`
	CommissionPercentage decimal.Decimal  `json:"commission_percentage"`
	CommissionTotal      decimal.Decimal  `json:"commission_total"`
}
