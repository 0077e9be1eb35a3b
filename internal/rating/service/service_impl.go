package service

import (
	"context"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/brokerage/internal/config"
	ratingdomain "github.com/smallbiznis/brokerage/internal/rating/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	log *zap.Logger
	cfg *config.RatingConfigHolder
}

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Config *config.RatingConfigHolder
}

func NewService(p ServiceParam) ratingdomain.Strategy {
	return &Service{
		log: p.Log.Named("rating.service"),
		cfg: p.Config,
	}
}

// Rate applies the configured simulation rate to the sum of every insured
// value, then adds tax and computes the commission on the base premium.
func (s *Service) Rate(ctx context.Context, in ratingdomain.Input) (ratingdomain.Result, error) {
	if !in.Kind.Valid() {
		return ratingdomain.Result{}, ratingdomain.ErrInvalidKind
	}

	total := decimal.Zero
	for _, field := range slices.Sorted(maps.Keys(in.InsuredValues)) {
		value := in.InsuredValues[field]
		if value.IsNegative() {
			return ratingdomain.Result{}, ratingdomain.ErrNegativeInsured
		}
		total = total.Add(value)
	}

	cfg := s.cfg.Get()
	base := total.Mul(cfg.Simulation()).Round(2)
	tax := base.Mul(cfg.Tax()).Round(2)
	commission := base.Mul(in.CommissionRate).Round(2)

	s.log.Debug("premium rated",
		zap.String("kind", string(in.Kind)),
		zap.String("total_insured", total.String()),
		zap.String("premium_base", base.String()),
	)

	return ratingdomain.Result{
		Kind:                 in.Kind,
		TotalInsured:         total,
		PremiumBase:          base,
		Tax:                  tax,
		PremiumTotal:         base.Add(tax),
		CommissionRate:       in.CommissionRate,
		CommissionPercentage: in.CommissionRate.Mul(hundred),
		CommissionTotal:      commission,
	}, nil
}
