package domain

import "github.com/shopspring/decimal"

// InsurerFields is the patchable part of an insurer; see patch.Apply.
type InsurerFields struct {
	Name                 *string `json:"name"`
	AssistancePhone      *string `json:"assistance_phone"`
	CommercialEmail      *string `json:"commercial_email"`
	ClaimsEmail          *string `json:"claims_email"`
	OfficeAddress        *string `json:"office_address"`
	AssignedContact      *string `json:"assigned_contact"`
	LogoURL              *string `json:"logo_url"`
	OriginFlagURL        *string `json:"origin_flag_url"`
	InternationalBacking *string `json:"international_backing"`

	VehicleThirdPartyProperty *decimal.Decimal `json:"vehicle_third_party_property"`
	VehiclePatrimonial        *decimal.Decimal `json:"vehicle_patrimonial"`
	VehicleDeathOnePerson     *decimal.Decimal `json:"vehicle_death_one_person"`
	VehicleDeathManyPersons   *decimal.Decimal `json:"vehicle_death_many_persons"`
	CondoContractors          *decimal.Decimal `json:"condo_contractors"`
	CondoCross                *decimal.Decimal `json:"condo_cross"`
	CondoEmployer             *decimal.Decimal `json:"condo_employer"`
	CondoParking              *decimal.Decimal `json:"condo_parking"`
	CondoMedicalExpenses      *decimal.Decimal `json:"condo_medical_expenses"`
}

// InsurerInput carries a create or a partial update. Rates replace the stored
// map as a whole when supplied.
type InsurerInput struct {
	InsurerFields
	CommissionRates         *Rates `json:"commission_rates"`
	OverrideCommissionRates *Rates `json:"override_commission_rates"`
}

type DeductibleInput struct {
	Kind           string           `json:"kind"`
	Category       string           `json:"category"`
	DeductibleType string           `json:"deductible_type"`
	Rate           *decimal.Decimal `json:"rate"`
	MinimumAmount  *decimal.Decimal `json:"minimum_amount"`
}

type CoverageInput struct {
	Kind        string       `json:"kind"`
	ItemType    CoverageType `json:"item_type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
}

type FinancingInput struct {
	Financier   string           `json:"financier"`
	MonthlyRate *decimal.Decimal `json:"monthly_rate"`
}
