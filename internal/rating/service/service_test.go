package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"github.com/smallbiznis/brokerage/internal/config"
	ratingdomain "github.com/smallbiznis/brokerage/internal/rating/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStrategy(cfg config.RatingConfig) ratingdomain.Strategy {
	return NewService(ServiceParam{
		Log:    zap.NewNop(),
		Config: config.NewStaticRatingConfigHolder(cfg),
	})
}

func TestRateDefaultFormula(t *testing.T) {
	strategy := newStrategy(config.DefaultRatingConfig())

	result, err := strategy.Rate(context.Background(), ratingdomain.Input{
		Kind: assetdomain.KindVehicle,
		InsuredValues: map[string]decimal.Decimal{
			"vehicle_insured":     decimal.NewFromInt(80_000_000),
			"accessories_insured": decimal.NewFromInt(5_000_000),
			"liability_insured":   decimal.NewFromInt(15_000_000),
		},
		CommissionRate: decimal.RequireFromString("0.12"),
	})
	require.NoError(t, err)

	assert.Equal(t, "100000000", result.TotalInsured.String())
	assert.Equal(t, "200000", result.PremiumBase.String())
	assert.Equal(t, "38000", result.Tax.String())
	assert.Equal(t, "238000", result.PremiumTotal.String())
	assert.Equal(t, "24000", result.CommissionTotal.String())
	assert.Equal(t, "12", result.CommissionPercentage.String())
}

func TestRateFollowsConfig(t *testing.T) {
	cfg := config.DefaultRatingConfig()
	cfg.SimulationRate = 0.01
	cfg.TaxRate = 0
	strategy := newStrategy(cfg)

	result, err := strategy.Rate(context.Background(), ratingdomain.Input{
		Kind:          assetdomain.KindOther,
		InsuredValues: map[string]decimal.Decimal{"item_insured": decimal.NewFromInt(2_000_000)},
	})
	require.NoError(t, err)
	assert.Equal(t, "20000", result.PremiumBase.String())
	assert.True(t, result.Tax.IsZero())
	assert.True(t, result.CommissionTotal.IsZero())
}

func TestRateRejectsBadInput(t *testing.T) {
	strategy := newStrategy(config.DefaultRatingConfig())

	_, err := strategy.Rate(context.Background(), ratingdomain.Input{Kind: "BARCO"})
	assert.ErrorIs(t, err, ratingdomain.ErrInvalidKind)

	_, err = strategy.Rate(context.Background(), ratingdomain.Input{
		Kind:          assetdomain.KindHome,
		InsuredValues: map[string]decimal.Decimal{"building_insured": decimal.NewFromInt(-1)},
	})
	assert.ErrorIs(t, err, ratingdomain.ErrNegativeInsured)
}
