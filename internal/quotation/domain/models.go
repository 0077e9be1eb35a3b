package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
)

// Quotation is one insurer's offer for an asset. Exactly one insured-value
// record matching Kind is attached.
type Quotation struct {
	ID              snowflake.ID        `gorm:"primaryKey" json:"id"`
	Code            string              `gorm:"not null;uniqueIndex" json:"code"`
	AssetID         snowflake.ID        `gorm:"not null;index" json:"asset_id"`
	InsurerID       snowflake.ID        `gorm:"not null;index" json:"insurer_id"`
	Kind            assetdomain.Kind    `gorm:"not null" json:"kind"`
	FinancingPlanID *snowflake.ID       `json:"financing_plan_id,omitempty"`
	TotalPremium    decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"total_premium"`
	CreatedAt       time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"not null" json:"updated_at"`

	Home    *HomeInsured    `gorm:"-" json:"home,omitempty"`
	Vehicle *VehicleInsured `gorm:"-" json:"vehicle,omitempty"`
	Condo   *CondoInsured   `gorm:"-" json:"condo,omitempty"`
	Other   *OtherInsured   `gorm:"-" json:"other,omitempty"`

	DeductibleIDs []snowflake.ID `gorm:"-" json:"deductible_ids"`
	CoverageIDs   []snowflake.ID `gorm:"-" json:"coverage_ids"`
	HasPolicy     bool           `gorm:"-" json:"has_policy"`

	Deductibles []insurerdomain.Deductible `gorm:"-" json:"deductibles,omitempty"`
	Coverages   []insurerdomain.Coverage   `gorm:"-" json:"coverages,omitempty"`

	TotalInsured    decimal.Decimal `gorm:"-" json:"total_insured"`
	CommissionRate  decimal.Decimal `gorm:"-" json:"commission_rate"`
	TotalCommission decimal.Decimal `gorm:"-" json:"total_commission"`
	Warnings        []Warning       `gorm:"-" json:"warnings,omitempty"`
}

func (Quotation) TableName() string { return "quotations" }

// Insured returns the attached insured-value record, or nil.
func (q *Quotation) Insured() Insured {
	switch {
	case q.Home != nil:
		return q.Home
	case q.Vehicle != nil:
		return q.Vehicle
	case q.Condo != nil:
		return q.Condo
	case q.Other != nil:
		return q.Other
	}
	return nil
}

// Attach sets ins as the only insured-value record and keys it by the
// quotation id.
func (q *Quotation) Attach(ins Insured) {
	q.Home, q.Vehicle, q.Condo, q.Other = nil, nil, nil, nil
	ins.setQuotation(q.ID)
	switch r := ins.(type) {
	case *HomeInsured:
		q.Home = r
	case *VehicleInsured:
		q.Vehicle = r
	case *CondoInsured:
		q.Condo = r
	case *OtherInsured:
		q.Other = r
	}
}

// CanBecomePolicy reports whether a policy may be issued from q.
func (q *Quotation) CanBecomePolicy() bool {
	return !q.HasPolicy && q.TotalPremium.Valid
}

// Price fills the commission figures from insurer. Without a premium the
// commission is zero.
func (q *Quotation) Price(insurer *insurerdomain.Insurer) {
	if ins := q.Insured(); ins != nil {
		q.TotalInsured = TotalInsured(ins)
	}
	q.CommissionRate = decimal.Zero
	q.TotalCommission = decimal.Zero
	if insurer == nil {
		return
	}
	q.CommissionRate = insurer.CommissionRate(q.Kind)
	if q.TotalPremium.Valid {
		q.TotalCommission = q.TotalPremium.Decimal.Mul(q.CommissionRate).Round(2)
	}
}

// DeductibleLink and CoverageLink record the templates selected for a
// quotation.
type DeductibleLink struct {
	QuotationID  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	DeductibleID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
}

func (DeductibleLink) TableName() string { return "quotation_deductibles" }

type CoverageLink struct {
	QuotationID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	CoverageID  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
}

func (CoverageLink) TableName() string { return "quotation_coverages" }
