package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Asset is the common header of an insurable asset. Exactly one of Home,
// Vehicle, Condo or Other is loaded and it must match Kind.
type Asset struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Kind               Kind         `gorm:"not null;index" json:"kind"`
	Status             string       `json:"status,omitempty"`
	Comments           string       `json:"comments,omitempty"`
	ContinuousCoverage bool         `gorm:"not null;default:false" json:"continuous_coverage"`
	CreatedAt          time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null" json:"updated_at"`

	Home    *Home    `gorm:"-" json:"home,omitempty"`
	Vehicle *Vehicle `gorm:"-" json:"vehicle,omitempty"`
	Condo   *Condo   `gorm:"-" json:"condo,omitempty"`
	Other   *Other   `gorm:"-" json:"other,omitempty"`

	ClientIDs []snowflake.ID `gorm:"-" json:"client_ids"`
}

func (Asset) TableName() string { return "assets" }

// Variant is implemented by the four per-kind payloads.
type Variant interface {
	Kind() Kind
	// Appraisals returns the appraised values keyed by field name.
	Appraisals() map[string]decimal.NullDecimal
}

// Variant returns the loaded payload, or nil when none is attached.
func (a *Asset) Variant() Variant {
	switch {
	case a.Home != nil:
		return a.Home
	case a.Vehicle != nil:
		return a.Vehicle
	case a.Condo != nil:
		return a.Condo
	case a.Other != nil:
		return a.Other
	}
	return nil
}

// Validate checks that the tag is known and that exactly one payload of the
// tagged kind is attached.
func (a *Asset) Validate() error {
	if !a.Kind.Valid() {
		return ErrInvalidKind
	}
	attached := 0
	for _, set := range []bool{a.Home != nil, a.Vehicle != nil, a.Condo != nil, a.Other != nil} {
		if set {
			attached++
		}
	}
	if attached != 1 {
		return ErrVariantMismatch
	}
	if a.Variant().Kind() != a.Kind {
		return ErrVariantMismatch
	}
	return nil
}

// Appraisals returns the appraised values of the attached payload.
func (a *Asset) Appraisals() map[string]decimal.NullDecimal {
	if v := a.Variant(); v != nil {
		return v.Appraisals()
	}
	return map[string]decimal.NullDecimal{}
}

// Attach sets v as the only payload and keys it by the asset id.
func (a *Asset) Attach(v Variant) {
	a.Home, a.Vehicle, a.Condo, a.Other = nil, nil, nil, nil
	switch p := v.(type) {
	case *Home:
		p.AssetID = a.ID
		a.Home = p
	case *Vehicle:
		p.AssetID = a.ID
		a.Vehicle = p
	case *Condo:
		p.AssetID = a.ID
		a.Condo = p
	case *Other:
		p.AssetID = a.ID
		a.Other = p
	}
}

type Home struct {
	AssetID      snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"-"`
	PropertyType string       `json:"property_type,omitempty"`
	City         string       `json:"city,omitempty"`
	Address      string       `json:"address"`
	Floors       *int         `json:"floors,omitempty"`
	YearBuilt    *int         `json:"year_built,omitempty"`

	BuildingAppraisal            decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"building_appraisal"`
	NormalContentsAppraisal      decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"normal_contents_appraisal"`
	SpecialContentsAppraisal     decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"special_contents_appraisal"`
	ElectronicEquipmentAppraisal decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"electronic_equipment_appraisal"`
	MachineryAppraisal           decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"machinery_appraisal"`
}

func (Home) TableName() string { return "asset_homes" }
func (*Home) Kind() Kind       { return KindHome }

func (h *Home) Appraisals() map[string]decimal.NullDecimal {
	return map[string]decimal.NullDecimal{
		"building_appraisal":             h.BuildingAppraisal,
		"normal_contents_appraisal":      h.NormalContentsAppraisal,
		"special_contents_appraisal":     h.SpecialContentsAppraisal,
		"electronic_equipment_appraisal": h.ElectronicEquipmentAppraisal,
		"machinery_appraisal":            h.MachineryAppraisal,
	}
}

type Vehicle struct {
	AssetID         snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"-"`
	VehicleType     string       `json:"vehicle_type,omitempty"`
	Plate           string       `gorm:"not null;uniqueIndex" json:"plate"`
	Make            string       `json:"make,omitempty"`
	Series          string       `json:"series,omitempty"`
	ModelYear       *int         `json:"model_year,omitempty"`
	DriverBirthYear *int         `json:"driver_birth_year,omitempty"`
	FasecoldaCode   string       `json:"fasecolda_code,omitempty"`

	VehicleAppraisal     decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"vehicle_appraisal"`
	AccessoriesAppraisal decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"accessories_appraisal"`
}

func (Vehicle) TableName() string { return "asset_vehicles" }
func (*Vehicle) Kind() Kind       { return KindVehicle }

func (v *Vehicle) Appraisals() map[string]decimal.NullDecimal {
	return map[string]decimal.NullDecimal{
		"vehicle_appraisal":     v.VehicleAppraisal,
		"accessories_appraisal": v.AccessoriesAppraisal,
	}
}

type Condo struct {
	AssetID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"-"`
	CondoType      string       `json:"condo_type,omitempty"`
	City           string       `json:"city,omitempty"`
	Address        string       `json:"address"`
	Stratum        *int         `json:"stratum,omitempty"`
	YearBuilt      *int         `json:"year_built,omitempty"`
	Towers         *int         `json:"towers,omitempty"`
	MaxFloors      *int         `json:"max_floors,omitempty"`
	MaxBasements   *int         `json:"max_basements,omitempty"`
	HouseUnits     *int         `json:"house_units,omitempty"`
	ApartmentUnits *int         `json:"apartment_units,omitempty"`
	ShopUnits      *int         `json:"shop_units,omitempty"`
	OfficeUnits    *int         `json:"office_units,omitempty"`
	OtherUnits     *int         `json:"other_units,omitempty"`

	CommonAreaAppraisal          decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"common_area_appraisal"`
	PrivateAreaAppraisal         decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"private_area_appraisal"`
	MachineryAppraisal           decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"machinery_appraisal"`
	ElectronicEquipmentAppraisal decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"electronic_equipment_appraisal"`
	FurnitureAppraisal           decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"furniture_appraisal"`
}

func (Condo) TableName() string { return "asset_condos" }
func (*Condo) Kind() Kind       { return KindCondo }

func (c *Condo) Appraisals() map[string]decimal.NullDecimal {
	return map[string]decimal.NullDecimal{
		"common_area_appraisal":          c.CommonAreaAppraisal,
		"private_area_appraisal":         c.PrivateAreaAppraisal,
		"machinery_appraisal":            c.MachineryAppraisal,
		"electronic_equipment_appraisal": c.ElectronicEquipmentAppraisal,
		"furniture_appraisal":            c.FurnitureAppraisal,
	}
}

type Other struct {
	AssetID       snowflake.ID        `gorm:"primaryKey;autoIncrement:false" json:"-"`
	InsuranceType string              `json:"insurance_type,omitempty"`
	InsuredItem   string              `json:"insured_item"`
	Details       string              `json:"details,omitempty"`
	ItemAppraisal decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"item_appraisal"`
}

func (Other) TableName() string { return "asset_others" }
func (*Other) Kind() Kind       { return KindOther }

func (o *Other) Appraisals() map[string]decimal.NullDecimal {
	return map[string]decimal.NullDecimal{
		"item_appraisal": o.ItemAppraisal,
	}
}

// AssetClient links an asset to one of its holders.
type AssetClient struct {
	AssetID   snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"asset_id"`
	ClientID  snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"client_id"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (AssetClient) TableName() string { return "asset_clients" }
