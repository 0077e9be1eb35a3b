package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	assetrepository "github.com/smallbiznis/brokerage/internal/asset/repository"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	insurerrepository "github.com/smallbiznis/brokerage/internal/insurer/repository"
	"github.com/smallbiznis/brokerage/internal/quotation/domain"
	"github.com/smallbiznis/brokerage/internal/quotation/repository"
	ratingservice "github.com/smallbiznis/brokerage/internal/rating/service"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func setup(t *testing.T) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&assetdomain.Asset{},
		&assetdomain.Home{},
		&assetdomain.Vehicle{},
		&assetdomain.Condo{},
		&assetdomain.Other{},
		&assetdomain.AssetClient{},
		&insurerdomain.Insurer{},
		&insurerdomain.Deductible{},
		&insurerdomain.Coverage{},
		&insurerdomain.FinancingPlan{},
		&domain.Quotation{},
		&domain.HomeInsured{},
		&domain.VehicleInsured{},
		&domain.CondoInsured{},
		&domain.OtherInsured{},
		&domain.DeductibleLink{},
		&domain.CoverageLink{},
	))
	require.NoError(t, conn.Exec(`CREATE TABLE policies (id INTEGER PRIMARY KEY, quotation_id INTEGER NOT NULL)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := fixture{db: conn, node: node}
	f.svc = f.service(repository.Provide())
	return f
}

func (f fixture) service(repo domain.Repository) domain.Service {
	holder := config.NewStaticRatingConfigHolder(config.DefaultRatingConfig())
	return New(Params{
		DB:           f.db,
		Log:          zap.NewNop(),
		GenID:        f.node,
		Clock:        clock.NewFakeClock(time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)),
		Repo:         repo,
		AssetRepo:    assetrepository.Provide(),
		InsurerRepo:  insurerrepository.Provide(),
		Rating:       ratingservice.NewService(ratingservice.ServiceParam{Log: zap.NewNop(), Config: holder}),
		RatingConfig: holder,
	})
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f fixture) vehicle(t *testing.T, appraisal int64) *assetdomain.Asset {
	t.Helper()
	now := time.Now().UTC()
	asset := &assetdomain.Asset{ID: f.node.Generate(), Kind: assetdomain.KindVehicle, CreatedAt: now, UpdatedAt: now}
	asset.Attach(&assetdomain.Vehicle{
		Plate:                "P" + asset.ID.String(),
		VehicleAppraisal:     decimal.NewNullDecimal(amount(appraisal)),
		AccessoriesAppraisal: decimal.NewNullDecimal(amount(5_000_000)),
	})
	require.NoError(t, assetrepository.Provide().Insert(context.Background(), f.db, asset))
	return asset
}

func (f fixture) other(t *testing.T) *assetdomain.Asset {
	t.Helper()
	now := time.Now().UTC()
	asset := &assetdomain.Asset{ID: f.node.Generate(), Kind: assetdomain.KindOther, CreatedAt: now, UpdatedAt: now}
	asset.Attach(&assetdomain.Other{InsuredItem: "Joyas", ItemAppraisal: decimal.NewNullDecimal(amount(3_000_000))})
	require.NoError(t, assetrepository.Provide().Insert(context.Background(), f.db, asset))
	return asset
}

func (f fixture) insurer(t *testing.T) *insurerdomain.Insurer {
	t.Helper()
	now := time.Now().UTC()
	insurer := &insurerdomain.Insurer{
		ID:   f.node.Generate(),
		Name: "Seguros Andinos",
		CommissionRates: datatypes.NewJSONType(insurerdomain.Rates{
			assetdomain.KindVehicle: decimal.RequireFromString("0.10"),
		}),
		OverrideCommissionRates: datatypes.NewJSONType(insurerdomain.Rates{
			assetdomain.KindVehicle: decimal.RequireFromString("0.02"),
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}
	insurer.VehicleThirdPartyProperty = decimal.NewNullDecimal(decimal.RequireFromString("0.5"))
	require.NoError(t, insurerrepository.Provide().Insert(context.Background(), f.db, insurer))
	return insurer
}

func (f fixture) deductible(t *testing.T, insurerID snowflake.ID, kind assetdomain.Kind) snowflake.ID {
	t.Helper()
	item := &insurerdomain.Deductible{
		ID:        f.node.Generate(),
		InsurerID: insurerID,
		Kind:      kind,
		Category:  "Pérdida parcial",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, insurerrepository.Provide().InsertDeductible(context.Background(), f.db, item))
	return item.ID
}

func (f fixture) financing(t *testing.T, insurerID snowflake.ID) snowflake.ID {
	t.Helper()
	plan := &insurerdomain.FinancingPlan{
		ID:          f.node.Generate(),
		InsurerID:   insurerID,
		Financier:   "Finesa",
		MonthlyRate: decimal.RequireFromString("0.015"),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, insurerrepository.Provide().InsertFinancing(context.Background(), f.db, plan))
	return plan.ID
}

func TestCreateQuotation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	asset := f.vehicle(t, 80_000_000)
	insurer := f.insurer(t)
	other := f.insurer(t)

	own := f.deductible(t, insurer.ID, assetdomain.KindVehicle)
	wrongKind := f.deductible(t, insurer.ID, assetdomain.KindHome)
	foreign := f.deductible(t, other.ID, assetdomain.KindVehicle)
	plan := f.financing(t, insurer.ID)
	premium := amount(2_500_000)

	q, err := f.svc.Create(ctx, domain.CreateQuotationRequest{
		AssetID:   asset.ID.String(),
		InsurerID: insurer.ID.String(),
		Kind:      "vehiculo",
		InsuredValues: map[string]decimal.Decimal{
			"vehicle_insured":   amount(80_000_000),
			"liability_insured": amount(200_000_000),
		},
		TotalPremium:    &premium,
		FinancingPlanID: plan.String(),
		DeductibleIDs:   []string{own.String(), wrongKind.String(), foreign.String(), "garbage"},
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^2025-03-OPC-[0-9A-F]{8}$`), q.Code)
	assert.Equal(t, time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC), q.CreatedAt)
	assert.Equal(t, []snowflake.ID{own}, q.DeductibleIDs)
	assert.Empty(t, q.CoverageIDs)
	require.NotNil(t, q.FinancingPlanID)
	assert.Equal(t, plan, *q.FinancingPlanID)
	assert.Empty(t, q.Warnings)
	assert.True(t, q.TotalInsured.Equal(amount(80_000_000)))
	assert.True(t, q.TotalCommission.Equal(amount(300_000)))

	got, err := f.svc.GetByID(ctx, q.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got.Vehicle)
	assert.True(t, got.Vehicle.LiabilityInsured.Decimal.Equal(amount(200_000_000)))
	require.Len(t, got.Deductibles, 1)
	assert.Equal(t, own, got.Deductibles[0].ID)
	assert.False(t, got.HasPolicy)
	assert.True(t, got.CanBecomePolicy())
}

func TestCreateQuotationRejectsValuesAboveAppraisal(t *testing.T) {
	f := setup(t)
	asset := f.vehicle(t, 80_000_000)
	insurer := f.insurer(t)

	_, err := f.svc.Create(context.Background(), domain.CreateQuotationRequest{
		AssetID:   asset.ID.String(),
		InsurerID: insurer.ID.String(),
		Kind:      "VEHICULO",
		InsuredValues: map[string]decimal.Decimal{
			"vehicle_insured":     amount(80_000_001),
			"accessories_insured": amount(6_000_000),
		},
	})
	vErr, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("vehicle_insured"))
	assert.True(t, vErr.Has("accessories_insured"))

	var count int64
	require.NoError(t, f.db.Model(&domain.Quotation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateQuotationChecksReferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	asset := f.vehicle(t, 80_000_000)
	insurer := f.insurer(t)
	other := f.insurer(t)

	_, err := f.svc.Create(ctx, domain.CreateQuotationRequest{AssetID: "123", InsurerID: insurer.ID.String(), Kind: "VEHICULO"})
	assert.ErrorIs(t, err, assetdomain.ErrNotFound)

	_, err = f.svc.Create(ctx, domain.CreateQuotationRequest{AssetID: asset.ID.String(), InsurerID: "123", Kind: "VEHICULO"})
	assert.ErrorIs(t, err, insurerdomain.ErrNotFound)

	_, err = f.svc.Create(ctx, domain.CreateQuotationRequest{AssetID: asset.ID.String(), InsurerID: insurer.ID.String(), Kind: "HOGAR"})
	vErr, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "kind_mismatch", vErr.Fields[0].Code)

	_, err = f.svc.Create(ctx, domain.CreateQuotationRequest{
		AssetID:         asset.ID.String(),
		InsurerID:       insurer.ID.String(),
		Kind:            "VEHICULO",
		FinancingPlanID: f.financing(t, other.ID).String(),
	})
	vErr, ok = validation.As(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("financing_plan_id"))
}

func TestCreateQuotationWarningsDoNotBlock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	insurer := f.insurer(t)

	q, err := f.svc.Create(ctx, domain.CreateQuotationRequest{
		AssetID:       f.vehicle(t, 80_000_000).ID.String(),
		InsurerID:     insurer.ID.String(),
		Kind:          "VEHICULO",
		InsuredValues: map[string]decimal.Decimal{"liability_insured": amount(60_000_000)},
	})
	require.NoError(t, err)
	require.Len(t, q.Warnings, 1)
	assert.Equal(t, domain.WarningVehicleLiability, q.Warnings[0].Code)

	q, err = f.svc.Create(ctx, domain.CreateQuotationRequest{
		AssetID:       f.other(t).ID.String(),
		InsurerID:     insurer.ID.String(),
		Kind:          "OTRO",
		InsuredValues: map[string]decimal.Decimal{"item_insured": amount(500_000)},
	})
	require.NoError(t, err)
	require.Len(t, q.Warnings, 1)
	assert.Equal(t, domain.WarningOtherMinimum, q.Warnings[0].Code)
}

func TestPremiumAndDeleteBlockedByPolicy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	asset := f.vehicle(t, 80_000_000)
	insurer := f.insurer(t)

	create := func() domain.Quotation {
		q, err := f.svc.Create(ctx, domain.CreateQuotationRequest{
			AssetID:       asset.ID.String(),
			InsurerID:     insurer.ID.String(),
			Kind:          "VEHICULO",
			InsuredValues: map[string]decimal.Decimal{"vehicle_insured": amount(70_000_000)},
		})
		require.NoError(t, err)
		return q
	}

	free := create()
	_, err := f.svc.UpdatePremium(ctx, free.ID.String(), decimal.Zero)
	_, ok := validation.As(err)
	assert.True(t, ok)

	updated, err := f.svc.UpdatePremium(ctx, free.ID.String(), decimal.RequireFromString("1800000.456"))
	require.NoError(t, err)
	assert.Equal(t, "1800000.46", updated.TotalPremium.Decimal.StringFixed(2))
	assert.True(t, updated.CanBecomePolicy())

	issued := create()
	require.NoError(t, f.db.Exec(`INSERT INTO policies (id, quotation_id) VALUES (?, ?)`, 1, issued.ID).Error)

	_, err = f.svc.UpdatePremium(ctx, issued.ID.String(), amount(1))
	assert.ErrorIs(t, err, domain.ErrHasPolicy)
	assert.ErrorIs(t, f.svc.Delete(ctx, issued.ID.String()), domain.ErrHasPolicy)

	require.NoError(t, f.svc.Delete(ctx, free.ID.String()))
	_, err = f.svc.GetByID(ctx, free.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var insured int64
	require.NoError(t, f.db.Model(&domain.VehicleInsured{}).Where("quotation_id = ?", free.ID).Count(&insured).Error)
	assert.Zero(t, insured)
}

func TestListQuotations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.vehicle(t, 80_000_000)
	second := f.vehicle(t, 90_000_000)
	insurer := f.insurer(t)

	for _, asset := range []*assetdomain.Asset{first, first, second} {
		_, err := f.svc.Create(ctx, domain.CreateQuotationRequest{
			AssetID:   asset.ID.String(),
			InsurerID: insurer.ID.String(),
			Kind:      "VEHICULO",
		})
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, domain.ListQuotationRequest{Kind: "vehiculo"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byAsset, err := f.svc.ListByAsset(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Len(t, byAsset, 2)

	_, err = f.svc.ListByAsset(ctx, "42")
	assert.ErrorIs(t, err, assetdomain.ErrNotFound)
}

func TestSimulate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	insurer := f.insurer(t)
	asset := f.vehicle(t, 80_000_000)

	sim, err := f.svc.Simulate(ctx, domain.SimulateRequest{
		InsurerID: insurer.ID.String(),
		AssetID:   asset.ID.String(),
		InsuredValues: map[string]decimal.Decimal{
			"vehicle_insured":   amount(80_000_000),
			"liability_insured": amount(20_000_000),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "200000", sim.PremiumBase.String())
	assert.Equal(t, "238000", sim.PremiumTotal.String())
	assert.Equal(t, "24000", sim.CommissionTotal.String())

	_, err = f.svc.Simulate(ctx, domain.SimulateRequest{InsurerID: insurer.ID.String()})
	_, ok := validation.As(err)
	assert.True(t, ok)

	var count int64
	require.NoError(t, f.db.Model(&domain.Quotation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSimulateFinancingAndDeductibles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	insurer := f.insurer(t)
	other := f.insurer(t)
	plan := f.financing(t, insurer.ID)
	foreignPlan := f.financing(t, other.ID)
	foreign := f.deductible(t, other.ID, assetdomain.KindVehicle)

	partial := &insurerdomain.Deductible{
		ID:            f.node.Generate(),
		InsurerID:     insurer.ID,
		Kind:          assetdomain.KindVehicle,
		Category:      "Pérdida total",
		Rate:          decimal.NewNullDecimal(decimal.RequireFromString("0.10")),
		MinimumAmount: decimal.NewNullDecimal(amount(1_000_000)),
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, insurerrepository.Provide().InsertDeductible(ctx, f.db, partial))

	loss := amount(20_000_000)
	req := domain.SimulateRequest{
		InsurerID: insurer.ID.String(),
		Kind:      "vehiculo",
		InsuredValues: map[string]decimal.Decimal{
			"vehicle_insured":   amount(80_000_000),
			"liability_insured": amount(20_000_000),
		},
		FinancingPlanID: plan.String(),
		Installments:    12,
		LossAmount:      &loss,
		DeductibleIDs:   []string{partial.ID.String(), foreign.String()},
	}
	sim, err := f.svc.Simulate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "238000", sim.PremiumTotal.String())

	require.NotNil(t, sim.Financing)
	assert.Equal(t, 12, sim.Financing.Installments)
	assert.Equal(t, "21819.84", sim.Financing.Installment.StringFixed(2))
	assert.Equal(t, "261838.08", sim.Financing.TotalFinanced.StringFixed(2))
	assert.Equal(t, "23838.08", sim.Financing.FinancingCost.StringFixed(2))

	require.Len(t, sim.Deductibles, 1)
	assert.Equal(t, partial.ID.String(), sim.Deductibles[0].DeductibleID)
	assert.Equal(t, "2000000.00", sim.Deductibles[0].Amount.StringFixed(2))

	req.FinancingPlanID = foreignPlan.String()
	_, err = f.svc.Simulate(ctx, req)
	vErr, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_reference", vErr.Fields[0].Code)

	req.FinancingPlanID = plan.String()
	req.Installments = 0
	_, err = f.svc.Simulate(ctx, req)
	vErr, ok = validation.As(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("installments"))
}

var errLinkWrite = errors.New("link write failed")

type failingLinksRepo struct {
	domain.Repository
}

func (failingLinksRepo) InsertDeductibleLinks(context.Context, *gorm.DB, snowflake.ID, []snowflake.ID) error {
	return errLinkWrite
}

func TestCreateQuotationRollsBackOnLinkFailure(t *testing.T) {
	f := setup(t)
	asset := f.vehicle(t, 80_000_000)
	insurer := f.insurer(t)
	own := f.deductible(t, insurer.ID, assetdomain.KindVehicle)
	premium := amount(2_500_000)

	svc := f.service(failingLinksRepo{Repository: repository.Provide()})
	_, err := svc.Create(context.Background(), domain.CreateQuotationRequest{
		AssetID:       asset.ID.String(),
		InsurerID:     insurer.ID.String(),
		Kind:          "vehiculo",
		InsuredValues: map[string]decimal.Decimal{"vehicle_insured": amount(80_000_000)},
		TotalPremium:  &premium,
		DeductibleIDs: []string{own.String()},
	})
	require.ErrorIs(t, err, errLinkWrite)

	for _, model := range []any{&domain.Quotation{}, &domain.VehicleInsured{}, &domain.DeductibleLink{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
}
