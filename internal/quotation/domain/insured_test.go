package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func nullAmount(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(amount(v)) }

func TestFillRejectsUnknownAndNegative(t *testing.T) {
	ins, err := NewInsured(assetdomain.KindVehicle)
	require.NoError(t, err)

	err = Fill(ins, map[string]decimal.Decimal{
		"vehicle_insured":   amount(50_000_000),
		"building_insured":  amount(1),
		"liability_insured": amount(-5),
	})
	vErr, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("building_insured"))
	assert.True(t, vErr.Has("liability_insured"))
	assert.False(t, vErr.Has("vehicle_insured"))
}

func TestFieldsPerKind(t *testing.T) {
	assert.Equal(t, []string{"item_insured"}, Fields(assetdomain.KindOther))
	assert.Len(t, Fields(assetdomain.KindCondo), 10)
	assert.Nil(t, Fields("BARCO"))
}

func TestCheckAppraisalsReportsEveryField(t *testing.T) {
	ins := &HomeInsured{
		BuildingInsured:       nullAmount(300_000_000),
		NormalContentsInsured: nullAmount(40_000_000),
		MachineryInsured:      nullAmount(10_000_000),
		LiabilityInsured:      nullAmount(900_000_000),
	}
	home := &assetdomain.Home{
		BuildingAppraisal:       nullAmount(250_000_000),
		NormalContentsAppraisal: nullAmount(30_000_000),
		MachineryAppraisal:      nullAmount(10_000_000),
	}

	err := CheckAppraisals(ins, home.Appraisals())
	vErr, ok := validation.As(err)
	require.True(t, ok)
	require.Len(t, vErr.Fields, 2)
	assert.Equal(t, "building_insured", vErr.Fields[0].Field)
	assert.Equal(t, "normal_contents_insured", vErr.Fields[1].Field)
	assert.Equal(t, "exceeds_appraisal", vErr.Fields[0].Code)
}

func TestCheckAppraisalsSkipsUnsetAppraisal(t *testing.T) {
	ins := &OtherInsured{ItemInsured: nullAmount(5_000_000)}
	assert.NoError(t, CheckAppraisals(ins, (&assetdomain.Other{}).Appraisals()))
}

func TestTotalInsuredExcludesLiability(t *testing.T) {
	ins := &CondoInsured{
		CommonAreaInsured:  nullAmount(1_000_000_000),
		PrivateAreaInsured: nullAmount(500_000_000),
		DirectorsInsured:   nullAmount(200_000_000),
		LiabilityInsured:   nullAmount(800_000_000),
	}
	assert.True(t, TotalInsured(ins).Equal(amount(1_500_000_000)))
	assert.Len(t, Values(ins), 4)
}

func TestAdvise(t *testing.T) {
	floors := Floors{
		VehicleLiability: amount(50_000_000),
		CondoLiability:   amount(100_000_000),
		OtherMinimum:     amount(1_000_000),
	}
	insurer := &insurerdomain.Insurer{}
	insurer.VehicleThirdPartyProperty = decimal.NewNullDecimal(decimal.RequireFromString("0.5"))
	insurer.CondoContractors = decimal.NewNullDecimal(decimal.RequireFromString("0.25"))

	t.Run("vehicle below floor", func(t *testing.T) {
		warnings := Advise(&VehicleInsured{LiabilityInsured: nullAmount(60_000_000)}, insurer, floors)
		require.Len(t, warnings, 1)
		assert.Equal(t, WarningVehicleLiability, warnings[0].Code)
	})

	t.Run("vehicle at floor", func(t *testing.T) {
		assert.Empty(t, Advise(&VehicleInsured{LiabilityInsured: nullAmount(100_000_000)}, insurer, floors))
	})

	t.Run("condo below floor", func(t *testing.T) {
		warnings := Advise(&CondoInsured{LiabilityInsured: nullAmount(300_000_000)}, insurer, floors)
		require.Len(t, warnings, 1)
		assert.Equal(t, WarningCondoLiability, warnings[0].Code)
	})

	t.Run("missing sublimit skips the check", func(t *testing.T) {
		assert.Empty(t, Advise(&VehicleInsured{LiabilityInsured: nullAmount(1)}, &insurerdomain.Insurer{}, floors))
	})

	t.Run("other below minimum", func(t *testing.T) {
		warnings := Advise(&OtherInsured{ItemInsured: nullAmount(900_000)}, insurer, floors)
		require.Len(t, warnings, 1)
		assert.Equal(t, WarningOtherMinimum, warnings[0].Code)
	})

	t.Run("home has no checks", func(t *testing.T) {
		assert.Empty(t, Advise(&HomeInsured{LiabilityInsured: nullAmount(1)}, insurer, floors))
	})
}

func TestQuotationPriceAndPolicyReadiness(t *testing.T) {
	insurer := &insurerdomain.Insurer{
		CommissionRates:         datatypes.NewJSONType(insurerdomain.Rates{assetdomain.KindVehicle: decimal.RequireFromString("0.10")}),
		OverrideCommissionRates: datatypes.NewJSONType(insurerdomain.Rates{assetdomain.KindVehicle: decimal.RequireFromString("0.02")}),
	}
	q := Quotation{Kind: assetdomain.KindVehicle}
	q.Attach(&VehicleInsured{VehicleInsured: nullAmount(80_000_000), LiabilityInsured: nullAmount(1)})

	q.Price(insurer)
	assert.True(t, q.TotalInsured.Equal(amount(80_000_000)))
	assert.True(t, q.TotalCommission.IsZero())
	assert.False(t, q.CanBecomePolicy())

	q.TotalPremium = nullAmount(2_500_000)
	q.Price(insurer)
	assert.True(t, q.CommissionRate.Equal(decimal.RequireFromString("0.12")))
	assert.True(t, q.TotalCommission.Equal(amount(300_000)))
	assert.True(t, q.CanBecomePolicy())

	q.HasPolicy = true
	assert.False(t, q.CanBecomePolicy())
}
