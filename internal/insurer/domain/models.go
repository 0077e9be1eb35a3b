package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"gorm.io/datatypes"
)

// Rates maps an asset kind to a commission fraction.
type Rates map[assetdomain.Kind]decimal.Decimal

type Insurer struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                 string       `gorm:"not null" json:"name"`
	AssistancePhone      string       `json:"assistance_phone,omitempty"`
	CommercialEmail      string       `json:"commercial_email,omitempty"`
	ClaimsEmail          string       `json:"claims_email,omitempty"`
	OfficeAddress        string       `json:"office_address,omitempty"`
	AssignedContact      string       `json:"assigned_contact,omitempty"`
	LogoURL              string       `gorm:"column:logo_url" json:"logo_url,omitempty"`
	OriginFlagURL        string       `gorm:"column:origin_flag_url" json:"origin_flag_url,omitempty"`
	InternationalBacking string       `json:"international_backing,omitempty"`

	CommissionRates         datatypes.JSONType[Rates] `json:"commission_rates"`
	OverrideCommissionRates datatypes.JSONType[Rates] `json:"override_commission_rates"`

	Sublimits

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Insurer) TableName() string { return "insurers" }

// Sublimits are ratios applied to a liability insured value to estimate the
// amount available for one sub-coverage. They drive advisory checks only.
type Sublimits struct {
	VehicleThirdPartyProperty decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"vehicle_third_party_property"`
	VehiclePatrimonial        decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"vehicle_patrimonial"`
	VehicleDeathOnePerson     decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"vehicle_death_one_person"`
	VehicleDeathManyPersons   decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"vehicle_death_many_persons"`

	CondoContractors     decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"condo_contractors"`
	CondoCross           decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"condo_cross"`
	CondoEmployer        decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"condo_employer"`
	CondoParking         decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"condo_parking"`
	CondoMedicalExpenses decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"condo_medical_expenses"`
}

// CommissionRate is the base plus override commission for kind. Missing
// entries count as zero.
func (i *Insurer) CommissionRate(kind assetdomain.Kind) decimal.Decimal {
	return i.CommissionRates.Data()[kind].Add(i.OverrideCommissionRates.Data()[kind])
}

type Deductible struct {
	ID             snowflake.ID        `gorm:"primaryKey" json:"id"`
	InsurerID      snowflake.ID        `gorm:"not null;index" json:"insurer_id"`
	Kind           assetdomain.Kind    `gorm:"not null" json:"kind"`
	Category       string              `gorm:"not null" json:"category"`
	DeductibleType string              `json:"deductible_type,omitempty"`
	Rate           decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"rate"`
	MinimumAmount  decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"minimum_amount"`
	CreatedAt      time.Time           `gorm:"not null" json:"created_at"`
}

func (Deductible) TableName() string { return "insurer_deductibles" }

// Effective is the deductible charged on a loss: the rate share of the loss,
// never below the floor.
func (d *Deductible) Effective(loss decimal.Decimal) decimal.Decimal {
	switch {
	case d.Rate.Valid && d.MinimumAmount.Valid:
		return decimal.Max(loss.Mul(d.Rate.Decimal), d.MinimumAmount.Decimal)
	case d.Rate.Valid:
		return loss.Mul(d.Rate.Decimal)
	case d.MinimumAmount.Valid:
		return d.MinimumAmount.Decimal
	}
	return decimal.Zero
}

type CoverageType string

const (
	CoverageTypeCoverage       CoverageType = "COBERTURA"
	CoverageTypeAssistance     CoverageType = "ASISTENCIA"
	CoverageTypeDifferentiator CoverageType = "DIFERENCIADOR"
)

func (t CoverageType) Valid() bool {
	switch t {
	case CoverageTypeCoverage, CoverageTypeAssistance, CoverageTypeDifferentiator:
		return true
	}
	return false
}

type Coverage struct {
	ID          snowflake.ID     `gorm:"primaryKey" json:"id"`
	InsurerID   snowflake.ID     `gorm:"not null;index" json:"insurer_id"`
	Kind        assetdomain.Kind `gorm:"not null" json:"kind"`
	ItemType    CoverageType     `gorm:"not null" json:"item_type"`
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description,omitempty"`
	CreatedAt   time.Time        `gorm:"not null" json:"created_at"`
}

func (Coverage) TableName() string { return "insurer_coverages" }

type FinancingPlan struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InsurerID   snowflake.ID    `gorm:"not null;index" json:"insurer_id"`
	Financier   string          `gorm:"not null" json:"financier"`
	MonthlyRate decimal.Decimal `gorm:"type:numeric(7,5);not null" json:"monthly_rate"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (FinancingPlan) TableName() string { return "insurer_financing_plans" }

// Installment is the periodic payment that amortizes premium over n periods.
// A zero rate splits the premium evenly.
func (f *FinancingPlan) Installment(premium decimal.Decimal, n int) decimal.Decimal {
	return Annuity(premium, f.MonthlyRate, n)
}

func (f *FinancingPlan) TotalFinanced(premium decimal.Decimal, n int) decimal.Decimal {
	return f.Installment(premium, n).Mul(decimal.NewFromInt(int64(n)))
}

func (f *FinancingPlan) FinancingCost(premium decimal.Decimal, n int) decimal.Decimal {
	return f.TotalFinanced(premium, n).Sub(premium)
}

// Annuity returns P·r(1+r)^n / ((1+r)^n − 1) rounded to cents, or P/n when r
// is zero. n below 1 yields zero.
func Annuity(premium, rate decimal.Decimal, n int) decimal.Decimal {
	if n < 1 {
		return decimal.Zero
	}
	periods := decimal.NewFromInt(int64(n))
	if !rate.IsPositive() {
		return premium.Div(periods).Round(2)
	}
	growth := decimal.NewFromInt(1).Add(rate).Pow(periods)
	return premium.Mul(rate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1))).Round(2)
}

// Templates groups the underwriting catalog of one insurer for one kind.
type Templates struct {
	Deductibles    []Deductible    `json:"deductibles"`
	Coverages      []Coverage      `json:"coverages"`
	FinancingPlans []FinancingPlan `json:"financing_plans"`
}
