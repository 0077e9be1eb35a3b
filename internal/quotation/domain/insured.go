package domain

import (
	"maps"
	"slices"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"github.com/smallbiznis/brokerage/pkg/validation"
)

// Insured is implemented by the four per-kind insured-value records.
type Insured interface {
	Kind() assetdomain.Kind
	// Limits pairs every capped insured value with the appraisal that bounds it.
	Limits() []Limit
	values() map[string]*decimal.NullDecimal
	setQuotation(id snowflake.ID)
}

// Limit ties an insured field to the asset appraisal field that caps it.
type Limit struct {
	Field          string
	AppraisalField string
	Value          decimal.NullDecimal
}

// NewInsured returns an empty record for kind.
func NewInsured(kind assetdomain.Kind) (Insured, error) {
	switch kind {
	case assetdomain.KindHome:
		return &HomeInsured{}, nil
	case assetdomain.KindVehicle:
		return &VehicleInsured{}, nil
	case assetdomain.KindCondo:
		return &CondoInsured{}, nil
	case assetdomain.KindOther:
		return &OtherInsured{}, nil
	}
	return nil, assetdomain.ErrInvalidKind
}

// Fields lists the insured-value names accepted for kind.
func Fields(kind assetdomain.Kind) []string {
	ins, err := NewInsured(kind)
	if err != nil {
		return nil
	}
	return slices.Sorted(maps.Keys(ins.values()))
}

// Fill copies values into ins. Unknown names and negative amounts are
// reported together.
func Fill(ins Insured, values map[string]decimal.Decimal) error {
	targets := ins.values()

	var v validation.Error
	for _, field := range slices.Sorted(maps.Keys(values)) {
		target, ok := targets[field]
		if !ok {
			v.Add(field, "unknown_field", field+" is not an insured value for "+string(ins.Kind()))
			continue
		}
		value := values[field]
		if value.IsNegative() {
			v.Add(field, "negative", field+" cannot be negative")
			continue
		}
		*target = decimal.NewNullDecimal(value.Round(2))
	}
	return v.Err()
}

// Values returns every insured value that is set, capped or not.
func Values(ins Insured) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for field, value := range ins.values() {
		if value.Valid {
			out[field] = value.Decimal
		}
	}
	return out
}

// CheckAppraisals reports every capped field whose insured value exceeds the
// asset appraisal. Fields with either side unset are not compared.
func CheckAppraisals(ins Insured, appraisals map[string]decimal.NullDecimal) error {
	var v validation.Error
	for _, limit := range ins.Limits() {
		appraisal := appraisals[limit.AppraisalField]
		if !limit.Value.Valid || !appraisal.Valid {
			continue
		}
		if limit.Value.Decimal.GreaterThan(appraisal.Decimal) {
			v.Add(limit.Field, "exceeds_appraisal",
				limit.Field+" ("+limit.Value.Decimal.StringFixed(2)+") exceeds "+limit.AppraisalField+" ("+appraisal.Decimal.StringFixed(2)+")")
		}
	}
	return v.Err()
}

// TotalInsured sums the capped values. Liability and special coverages are
// excluded.
func TotalInsured(ins Insured) decimal.Decimal {
	total := decimal.Zero
	for _, limit := range ins.Limits() {
		if limit.Value.Valid {
			total = total.Add(limit.Value.Decimal)
		}
	}
	return total
}

type HomeInsured struct {
	QuotationID snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"-"`

	BuildingInsured            decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"building_insured"`
	NormalContentsInsured      decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"normal_contents_insured"`
	SpecialContentsInsured     decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"special_contents_insured"`
	ElectronicEquipmentInsured decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"electronic_equipment_insured"`
	MachineryInsured           decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"machinery_insured"`
	LiabilityInsured           decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"liability_insured"`
}

func (HomeInsured) TableName() string               { return "quotation_homes" }
func (*HomeInsured) Kind() assetdomain.Kind         { return assetdomain.KindHome }
func (h *HomeInsured) setQuotation(id snowflake.ID) { h.QuotationID = id }

func (h *HomeInsured) Limits() []Limit {
	return []Limit{
		{Field: "building_insured", AppraisalField: "building_appraisal", Value: h.BuildingInsured},
		{Field: "normal_contents_insured", AppraisalField: "normal_contents_appraisal", Value: h.NormalContentsInsured},
		{Field: "special_contents_insured", AppraisalField: "special_contents_appraisal", Value: h.SpecialContentsInsured},
		{Field: "electronic_equipment_insured", AppraisalField: "electronic_equipment_appraisal", Value: h.ElectronicEquipmentInsured},
		{Field: "machinery_insured", AppraisalField: "machinery_appraisal", Value: h.MachineryInsured},
	}
}

func (h *HomeInsured) values() map[string]*decimal.NullDecimal {
	return map[string]*decimal.NullDecimal{
		"building_insured":             &h.BuildingInsured,
		"normal_contents_insured":      &h.NormalContentsInsured,
		"special_contents_insured":     &h.SpecialContentsInsured,
		"electronic_equipment_insured": &h.ElectronicEquipmentInsured,
		"machinery_insured":            &h.MachineryInsured,
		"liability_insured":            &h.LiabilityInsured,
	}
}

type VehicleInsured struct {
	QuotationID snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"-"`

	VehicleInsured     decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"vehicle_insured"`
	AccessoriesInsured decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"accessories_insured"`
	LiabilityInsured   decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"liability_insured"`
}

func (VehicleInsured) TableName() string               { return "quotation_vehicles" }
func (*VehicleInsured) Kind() assetdomain.Kind         { return assetdomain.KindVehicle }
func (v *VehicleInsured) setQuotation(id snowflake.ID) { v.QuotationID = id }

func (v *VehicleInsured) Limits() []Limit {
	return []Limit{
		{Field: "vehicle_insured", AppraisalField: "vehicle_appraisal", Value: v.VehicleInsured},
		{Field: "accessories_insured", AppraisalField: "accessories_appraisal", Value: v.AccessoriesInsured},
	}
}

func (v *VehicleInsured) values() map[string]*decimal.NullDecimal {
	return map[string]*decimal.NullDecimal{
		"vehicle_insured":     &v.VehicleInsured,
		"accessories_insured": &v.AccessoriesInsured,
		"liability_insured":   &v.LiabilityInsured,
	}
}

// CondoInsured carries the property values capped by the appraisal and the
// special liability coverages, which are not.
type CondoInsured struct {
	QuotationID snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"-"`

	CommonAreaInsured          decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"common_area_insured"`
	PrivateAreaInsured         decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"private_area_insured"`
	MachineryInsured           decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"machinery_insured"`
	ElectronicEquipmentInsured decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"electronic_equipment_insured"`
	FurnitureInsured           decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"furniture_insured"`

	DirectorsInsured             decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"directors_insured"`
	LiabilityInsured             decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"liability_insured"`
	DishonestyInsured            decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"dishonesty_insured"`
	CashInTransitTermInsured     decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"cash_in_transit_term_insured"`
	CashInTransitDispatchInsured decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"cash_in_transit_dispatch_insured"`
}

func (CondoInsured) TableName() string               { return "quotation_condos" }
func (*CondoInsured) Kind() assetdomain.Kind         { return assetdomain.KindCondo }
func (c *CondoInsured) setQuotation(id snowflake.ID) { c.QuotationID = id }

func (c *CondoInsured) Limits() []Limit {
	return []Limit{
		{Field: "common_area_insured", AppraisalField: "common_area_appraisal", Value: c.CommonAreaInsured},
		{Field: "private_area_insured", AppraisalField: "private_area_appraisal", Value: c.PrivateAreaInsured},
		{Field: "machinery_insured", AppraisalField: "machinery_appraisal", Value: c.MachineryInsured},
		{Field: "electronic_equipment_insured", AppraisalField: "electronic_equipment_appraisal", Value: c.ElectronicEquipmentInsured},
		{Field: "furniture_insured", AppraisalField: "furniture_appraisal", Value: c.FurnitureInsured},
	}
}

func (c *CondoInsured) values() map[string]*decimal.NullDecimal {
	return map[string]*decimal.NullDecimal{
		"common_area_insured":              &c.CommonAreaInsured,
		"private_area_insured":             &c.PrivateAreaInsured,
		"machinery_insured":                &c.MachineryInsured,
		"electronic_equipment_insured":     &c.ElectronicEquipmentInsured,
		"furniture_insured":                &c.FurnitureInsured,
		"directors_insured":                &c.DirectorsInsured,
		"liability_insured":                &c.LiabilityInsured,
		"dishonesty_insured":               &c.DishonestyInsured,
		"cash_in_transit_term_insured":     &c.CashInTransitTermInsured,
		"cash_in_transit_dispatch_insured": &c.CashInTransitDispatchInsured,
	}
}

type OtherInsured struct {
	QuotationID snowflake.ID        `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ItemInsured decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"item_insured"`
}

func (OtherInsured) TableName() string               { return "quotation_others" }
func (*OtherInsured) Kind() assetdomain.Kind         { return assetdomain.KindOther }
func (o *OtherInsured) setQuotation(id snowflake.ID) { o.QuotationID = id }

func (o *OtherInsured) Limits() []Limit {
	return []Limit{
		{Field: "item_insured", AppraisalField: "item_appraisal", Value: o.ItemInsured},
	}
}

func (o *OtherInsured) values() map[string]*decimal.NullDecimal {
	return map[string]*decimal.NullDecimal{
		"item_insured": &o.ItemInsured,
	}
}
