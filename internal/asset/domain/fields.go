package domain

import "github.com/shopspring/decimal"

// Field sets for create and partial update. A nil pointer leaves the target
// value untouched; see patch.Apply.

type GeneralFields struct {
	Status             *string `json:"status"`
	Comments           *string `json:"comments"`
	ContinuousCoverage *bool   `json:"continuous_coverage"`
}

type HomeFields struct {
	PropertyType *string `json:"property_type"`
	City         *string `json:"city"`
	Address      *string `json:"address"`
	Floors       *int    `json:"floors"`
	YearBuilt    *int    `json:"year_built"`

	BuildingAppraisal            *decimal.Decimal `json:"building_appraisal"`
	NormalContentsAppraisal      *decimal.Decimal `json:"normal_contents_appraisal"`
	SpecialContentsAppraisal     *decimal.Decimal `json:"special_contents_appraisal"`
	ElectronicEquipmentAppraisal *decimal.Decimal `json:"electronic_equipment_appraisal"`
	MachineryAppraisal           *decimal.Decimal `json:"machinery_appraisal"`
}

type VehicleFields struct {
	VehicleType     *string `json:"vehicle_type"`
	Plate           *string `json:"plate"`
	Make            *string `json:"make"`
	Series          *string `json:"series"`
	ModelYear       *int    `json:"model_year"`
	DriverBirthYear *int    `json:"driver_birth_year"`
	FasecoldaCode   *string `json:"fasecolda_code"`

	VehicleAppraisal     *decimal.Decimal `json:"vehicle_appraisal"`
	AccessoriesAppraisal *decimal.Decimal `json:"accessories_appraisal"`
}

type CondoFields struct {
	CondoType      *string `json:"condo_type"`
	City           *string `json:"city"`
	Address        *string `json:"address"`
	Stratum        *int    `json:"stratum"`
	YearBuilt      *int    `json:"year_built"`
	Towers         *int    `json:"towers"`
	MaxFloors      *int    `json:"max_floors"`
	MaxBasements   *int    `json:"max_basements"`
	HouseUnits     *int    `json:"house_units"`
	ApartmentUnits *int    `json:"apartment_units"`
	ShopUnits      *int    `json:"shop_units"`
	OfficeUnits    *int    `json:"office_units"`
	OtherUnits     *int    `json:"other_units"`

	CommonAreaAppraisal          *decimal.Decimal `json:"common_area_appraisal"`
	PrivateAreaAppraisal         *decimal.Decimal `json:"private_area_appraisal"`
	MachineryAppraisal           *decimal.Decimal `json:"machinery_appraisal"`
	ElectronicEquipmentAppraisal *decimal.Decimal `json:"electronic_equipment_appraisal"`
	FurnitureAppraisal           *decimal.Decimal `json:"furniture_appraisal"`
}

type OtherFields struct {
	InsuranceType *string          `json:"insurance_type"`
	InsuredItem   *string          `json:"insured_item"`
	Details       *string          `json:"details"`
	ItemAppraisal *decimal.Decimal `json:"item_appraisal"`
}
