package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	"github.com/smallbiznis/brokerage/internal/observability/metrics"
	"github.com/smallbiznis/brokerage/internal/quotation/domain"
	ratingdomain "github.com/smallbiznis/brokerage/internal/rating/domain"
	"github.com/smallbiznis/brokerage/internal/sequence"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	AssetRepo    assetdomain.Repository
	InsurerRepo  insurerdomain.Repository
	Rating       ratingdomain.Strategy
	RatingConfig *config.RatingConfigHolder
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	assetRepo    assetdomain.Repository
	insurerRepo  insurerdomain.Repository
	rating       ratingdomain.Strategy
	ratingConfig *config.RatingConfigHolder
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("quotation.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		assetRepo:    p.AssetRepo,
		insurerRepo:  p.InsurerRepo,
		rating:       p.Rating,
		ratingConfig: p.RatingConfig,
		metrics:      p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateQuotationRequest) (domain.Quotation, error) {
	assetID, err := parseID(req.AssetID, assetdomain.ErrInvalidID)
	if err != nil {
		return domain.Quotation{}, err
	}
	insurerID, err := parseID(req.InsurerID, insurerdomain.ErrInvalidID)
	if err != nil {
		return domain.Quotation{}, err
	}

	asset, err := s.assetRepo.FindByID(ctx, s.db, assetID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if asset == nil {
		return domain.Quotation{}, assetdomain.ErrNotFound
	}
	insurer, err := s.insurerRepo.FindByID(ctx, s.db, insurerID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if insurer == nil {
		return domain.Quotation{}, insurerdomain.ErrNotFound
	}

	kind, err := assetdomain.ParseKind(req.Kind)
	if err != nil {
		return domain.Quotation{}, validation.New("kind", "invalid_value", "kind must be one of HOGAR, VEHICULO, COPROPIEDAD, OTRO")
	}
	if kind != asset.Kind {
		return domain.Quotation{}, validation.New("kind", "kind_mismatch",
			fmt.Sprintf("kind %s does not match asset kind %s", kind, asset.Kind))
	}

	ins, err := domain.NewInsured(kind)
	if err != nil {
		return domain.Quotation{}, err
	}
	if err := domain.Fill(ins, req.InsuredValues); err != nil {
		return domain.Quotation{}, err
	}
	if err := domain.CheckAppraisals(ins, asset.Appraisals()); err != nil {
		return domain.Quotation{}, err
	}

	now := s.clock.Now().UTC()
	code, err := sequence.New(sequence.QuotationTemplate, now)
	if err != nil {
		return domain.Quotation{}, err
	}
	q := domain.Quotation{
		ID:        s.genID.Generate(),
		Code:      code,
		AssetID:   asset.ID,
		InsurerID: insurer.ID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.TotalPremium != nil {
		if !req.TotalPremium.IsPositive() {
			return domain.Quotation{}, validation.New("total_premium", "not_positive", "total_premium must be greater than zero")
		}
		q.TotalPremium = decimal.NewNullDecimal(req.TotalPremium.Round(2))
	}
	q.Attach(ins)

	if strings.TrimSpace(req.FinancingPlanID) != "" {
		planID, err := snowflake.ParseString(strings.TrimSpace(req.FinancingPlanID))
		if err != nil {
			return domain.Quotation{}, validation.New("financing_plan_id", "invalid_value", "financing_plan_id is not a valid id")
		}
		plan, err := s.insurerRepo.FindFinancing(ctx, s.db, planID)
		if err != nil {
			return domain.Quotation{}, err
		}
		if plan == nil || plan.InsurerID != insurer.ID {
			return domain.Quotation{}, validation.New("financing_plan_id", "invalid_reference", "financing plan does not belong to the insurer")
		}
		q.FinancingPlanID = &plan.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deductibles, err := s.insurerRepo.FilterDeductibleIDs(ctx, tx, insurer.ID, kind, parseIDs(req.DeductibleIDs))
		if err != nil {
			return err
		}
		coverages, err := s.insurerRepo.FilterCoverageIDs(ctx, tx, insurer.ID, kind, parseIDs(req.CoverageIDs))
		if err != nil {
			return err
		}

		if err := s.repo.Insert(ctx, tx, &q); err != nil {
			return err
		}
		if err := s.repo.InsertDeductibleLinks(ctx, tx, q.ID, deductibles); err != nil {
			return err
		}
		if err := s.repo.InsertCoverageLinks(ctx, tx, q.ID, coverages); err != nil {
			return err
		}
		q.DeductibleIDs = append([]snowflake.ID{}, deductibles...)
		q.CoverageIDs = append([]snowflake.ID{}, coverages...)
		return nil
	})
	if err != nil {
		return domain.Quotation{}, err
	}

	q.Price(insurer)
	q.Warnings = domain.Advise(ins, insurer, s.floors())
	s.metrics.RecordQuotationCreated(ctx, string(kind))
	for _, w := range q.Warnings {
		s.metrics.RecordUnderwritingWarning(ctx, string(kind), w.Code)
	}
	if len(q.Warnings) > 0 {
		s.log.Info("quotation created with underwriting warnings",
			zap.String("quotation_code", q.Code),
			zap.Int("warnings", len(q.Warnings)),
		)
	}
	return q, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Quotation, error) {
	quotationID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Quotation{}, err
	}
	q, err := s.repo.FindByID(ctx, s.db, quotationID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if q == nil {
		return domain.Quotation{}, domain.ErrNotFound
	}
	if err := s.price(ctx, map[snowflake.ID]*insurerdomain.Insurer{}, q); err != nil {
		return domain.Quotation{}, err
	}
	if q.Deductibles, err = s.insurerRepo.FindDeductiblesByIDs(ctx, s.db, q.DeductibleIDs); err != nil {
		return domain.Quotation{}, err
	}
	if q.Coverages, err = s.insurerRepo.FindCoveragesByIDs(ctx, s.db, q.CoverageIDs); err != nil {
		return domain.Quotation{}, err
	}
	return *q, nil
}

func (s *Service) List(ctx context.Context, req domain.ListQuotationRequest) ([]domain.Quotation, error) {
	var (
		filter domain.ListQuotationFilter
		err    error
	)
	if strings.TrimSpace(req.AssetID) != "" {
		if filter.AssetID, err = parseID(req.AssetID, assetdomain.ErrInvalidID); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(req.InsurerID) != "" {
		if filter.InsurerID, err = parseID(req.InsurerID, insurerdomain.ErrInvalidID); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(req.Kind) != "" {
		if filter.Kind, err = assetdomain.ParseKind(req.Kind); err != nil {
			return nil, validation.New("kind", "invalid_value", "kind must be one of HOGAR, VEHICULO, COPROPIEDAD, OTRO")
		}
	}
	return s.list(ctx, filter)
}

func (s *Service) ListByAsset(ctx context.Context, assetID string) ([]domain.Quotation, error) {
	id, err := parseID(assetID, assetdomain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	asset, err := s.assetRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, assetdomain.ErrNotFound
	}
	return s.list(ctx, domain.ListQuotationFilter{AssetID: id})
}

func (s *Service) UpdatePremium(ctx context.Context, id string, premium decimal.Decimal) (domain.Quotation, error) {
	quotationID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if !premium.IsPositive() {
		return domain.Quotation{}, validation.New("total_premium", "not_positive", "total_premium must be greater than zero")
	}

	var updated *domain.Quotation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.repo.FindByID(ctx, tx, quotationID)
		if err != nil {
			return err
		}
		if q == nil {
			return domain.ErrNotFound
		}
		if q.HasPolicy {
			return domain.ErrHasPolicy
		}
		rows, err := s.repo.UpdatePremium(ctx, tx, quotationID, premium.Round(2))
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrHasPolicy
		}
		updated, err = s.repo.FindByID(ctx, tx, quotationID)
		return err
	})
	if err != nil {
		return domain.Quotation{}, err
	}
	if err := s.price(ctx, map[snowflake.ID]*insurerdomain.Insurer{}, updated); err != nil {
		return domain.Quotation{}, err
	}
	return *updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	quotationID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.repo.FindByID(ctx, tx, quotationID)
		if err != nil {
			return err
		}
		if q == nil {
			return domain.ErrNotFound
		}
		if q.HasPolicy {
			return domain.ErrHasPolicy
		}
		return s.repo.Delete(ctx, tx, quotationID)
	})
}

// Simulate prices insured values through the rating strategy. Nothing is
// stored.
func (s *Service) Simulate(ctx context.Context, req domain.SimulateRequest) (domain.Simulation, error) {
	insurerID, err := parseID(req.InsurerID, insurerdomain.ErrInvalidID)
	if err != nil {
		return domain.Simulation{}, err
	}
	insurer, err := s.insurerRepo.FindByID(ctx, s.db, insurerID)
	if err != nil {
		return domain.Simulation{}, err
	}
	if insurer == nil {
		return domain.Simulation{}, insurerdomain.ErrNotFound
	}

	var kind assetdomain.Kind
	if strings.TrimSpace(req.AssetID) != "" {
		assetID, err := parseID(req.AssetID, assetdomain.ErrInvalidID)
		if err != nil {
			return domain.Simulation{}, err
		}
		asset, err := s.assetRepo.FindByID(ctx, s.db, assetID)
		if err != nil {
			return domain.Simulation{}, err
		}
		if asset == nil {
			return domain.Simulation{}, assetdomain.ErrNotFound
		}
		kind = asset.Kind
	} else if kind, err = assetdomain.ParseKind(req.Kind); err != nil {
		return domain.Simulation{}, validation.New("kind", "invalid_value", "kind or asset_id is required")
	}

	ins, err := domain.NewInsured(kind)
	if err != nil {
		return domain.Simulation{}, err
	}
	if err := domain.Fill(ins, req.InsuredValues); err != nil {
		return domain.Simulation{}, err
	}

	result, err := s.rating.Rate(ctx, ratingdomain.Input{
		Kind:           kind,
		InsuredValues:  domain.Values(ins),
		CommissionRate: insurer.CommissionRate(kind),
	})
	if err != nil {
		return domain.Simulation{}, err
	}
	sim := domain.Simulation{
		InsurerID: insurer.ID.String(),
		AssetID:   strings.TrimSpace(req.AssetID),
		Result:    result,
	}

	if strings.TrimSpace(req.FinancingPlanID) != "" {
		sim.Financing, err = s.estimateFinancing(ctx, insurer.ID, req, result.PremiumTotal)
		if err != nil {
			return domain.Simulation{}, err
		}
	}
	if req.LossAmount != nil {
		sim.Deductibles, err = s.estimateDeductibles(ctx, insurer.ID, kind, req)
		if err != nil {
			return domain.Simulation{}, err
		}
	}
	return sim, nil
}

func (s *Service) estimateFinancing(ctx context.Context, insurerID snowflake.ID, req domain.SimulateRequest, premium decimal.Decimal) (*domain.FinancingEstimate, error) {
	planID, err := snowflake.ParseString(strings.TrimSpace(req.FinancingPlanID))
	if err != nil {
		return nil, validation.New("financing_plan_id", "invalid_value", "financing_plan_id is not a valid id")
	}
	if req.Installments < 1 {
		return nil, validation.New("installments", "invalid_value", "installments must be at least 1")
	}
	plan, err := s.insurerRepo.FindFinancing(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || plan.InsurerID != insurerID {
		return nil, validation.New("financing_plan_id", "invalid_reference", "financing plan does not belong to the insurer")
	}
	return &domain.FinancingEstimate{
		PlanID:        plan.ID.String(),
		Financier:     plan.Financier,
		MonthlyRate:   plan.MonthlyRate,
		Installments:  req.Installments,
		Installment:   plan.Installment(premium, req.Installments),
		TotalFinanced: plan.TotalFinanced(premium, req.Installments),
		FinancingCost: plan.FinancingCost(premium, req.Installments),
	}, nil
}

// estimateDeductibles skips selections that belong to another insurer or
// kind, the same way Create does.
func (s *Service) estimateDeductibles(ctx context.Context, insurerID snowflake.ID, kind assetdomain.Kind, req domain.SimulateRequest) ([]domain.DeductibleEstimate, error) {
	loss := req.LossAmount.Round(2)
	if loss.IsNegative() {
		return nil, validation.New("loss_amount", "invalid_value", "loss_amount must not be negative")
	}
	ids, err := s.insurerRepo.FilterDeductibleIDs(ctx, s.db, insurerID, kind, parseIDs(req.DeductibleIDs))
	if err != nil {
		return nil, err
	}
	items, err := s.insurerRepo.FindDeductiblesByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DeductibleEstimate, 0, len(items))
	for i := range items {
		out = append(out, domain.DeductibleEstimate{
			DeductibleID: items[i].ID.String(),
			Category:     items[i].Category,
			LossAmount:   loss,
			Amount:       items[i].Effective(loss).Round(2),
		})
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, filter domain.ListQuotationFilter) ([]domain.Quotation, error) {
	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	insurers := make(map[snowflake.ID]*insurerdomain.Insurer)
	out := make([]domain.Quotation, 0, len(items))
	for _, item := range items {
		if err := s.price(ctx, insurers, item); err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

// price fills the commission figures, caching insurers across calls.
func (s *Service) price(ctx context.Context, insurers map[snowflake.ID]*insurerdomain.Insurer, q *domain.Quotation) error {
	insurer, ok := insurers[q.InsurerID]
	if !ok {
		found, err := s.insurerRepo.FindByID(ctx, s.db, q.InsurerID)
		if err != nil {
			return err
		}
		insurers[q.InsurerID] = found
		insurer = found
	}
	q.Price(insurer)
	return nil
}

func (s *Service) floors() domain.Floors {
	cfg := s.ratingConfig.Get()
	return domain.Floors{
		VehicleLiability: cfg.VehicleFloor(),
		CondoLiability:   cfg.CondoFloor(),
		OtherMinimum:     cfg.OtherMinimum(),
	}
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

// parseIDs drops anything that is not a valid id; selections that do not
// resolve are skipped rather than rejected.
func parseIDs(values []string) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(values))
	seen := make(map[snowflake.ID]struct{}, len(values))
	for _, value := range values {
		id, err := snowflake.ParseString(strings.TrimSpace(value))
		if err != nil || id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
