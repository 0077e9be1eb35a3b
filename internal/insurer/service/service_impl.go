package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/insurer/domain"
	"github.com/smallbiznis/brokerage/pkg/patch"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("insurer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, input domain.InsurerInput) (domain.Insurer, error) {
	now := s.clock.Now().UTC()
	insurer := domain.Insurer{
		ID:                      s.genID.Generate(),
		CommissionRates:         datatypes.NewJSONType(domain.Rates{}),
		OverrideCommissionRates: datatypes.NewJSONType(domain.Rates{}),
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := applyInput(&insurer, input); err != nil {
		return domain.Insurer{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &insurer); err != nil {
		return domain.Insurer{}, fmt.Errorf("insert insurer: %w", err)
	}
	return insurer, nil
}

func (s *Service) Update(ctx context.Context, id string, input domain.InsurerInput) (domain.Insurer, error) {
	insurerID, err := parseID(id)
	if err != nil {
		return domain.Insurer{}, err
	}

	var updated domain.Insurer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insurer, err := s.repo.FindByID(ctx, tx, insurerID)
		if err != nil {
			return err
		}
		if insurer == nil {
			return domain.ErrNotFound
		}
		if err := applyInput(insurer, input); err != nil {
			return err
		}
		insurer.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, insurer); err != nil {
			return err
		}
		updated = *insurer
		return nil
	})
	if err != nil {
		return domain.Insurer{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	insurerID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insurer, err := s.repo.FindByID(ctx, tx, insurerID)
		if err != nil {
			return err
		}
		if insurer == nil {
			return domain.ErrNotFound
		}
		quotations, err := s.repo.CountQuotations(ctx, tx, insurerID)
		if err != nil {
			return err
		}
		if quotations > 0 {
			return domain.ErrHasQuotations
		}
		return s.repo.Delete(ctx, tx, insurerID)
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Insurer, error) {
	insurer, err := s.load(ctx, id)
	if err != nil {
		return domain.Insurer{}, err
	}
	return *insurer, nil
}

func (s *Service) List(ctx context.Context, name string) ([]domain.Insurer, error) {
	items, err := s.repo.List(ctx, s.db, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, err
	}
	insurers := make([]domain.Insurer, 0, len(items))
	for _, item := range items {
		insurers = append(insurers, *item)
	}
	return insurers, nil
}

func (s *Service) CreateDeductible(ctx context.Context, insurerID string, input domain.DeductibleInput) (domain.Deductible, error) {
	insurer, err := s.load(ctx, insurerID)
	if err != nil {
		return domain.Deductible{}, err
	}

	var v validation.Error
	kind, kindErr := assetdomain.ParseKind(input.Kind)
	if kindErr != nil {
		v.Add("kind", "invalid_value", "kind must be one of HOGAR, VEHICULO, COPROPIEDAD, OTRO")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		v.Add("category", "required", "category is required")
	}
	if input.Rate != nil && (input.Rate.IsNegative() || input.Rate.GreaterThan(decimal.NewFromInt(1))) {
		v.Add("rate", "out_of_range", "rate must be between 0 and 1")
	}
	if input.MinimumAmount != nil && input.MinimumAmount.IsNegative() {
		v.Add("minimum_amount", "negative", "minimum_amount cannot be negative")
	}
	if err := v.Err(); err != nil {
		return domain.Deductible{}, err
	}

	item := domain.Deductible{
		ID:             s.genID.Generate(),
		InsurerID:      insurer.ID,
		Kind:           kind,
		Category:       category,
		DeductibleType: strings.TrimSpace(input.DeductibleType),
		CreatedAt:      s.clock.Now().UTC(),
	}
	if input.Rate != nil {
		item.Rate = decimal.NewNullDecimal(*input.Rate)
	}
	if input.MinimumAmount != nil {
		item.MinimumAmount = decimal.NewNullDecimal(input.MinimumAmount.Round(2))
	}
	if err := s.repo.InsertDeductible(ctx, s.db, &item); err != nil {
		return domain.Deductible{}, fmt.Errorf("insert deductible: %w", err)
	}
	return item, nil
}

func (s *Service) CreateCoverage(ctx context.Context, insurerID string, input domain.CoverageInput) (domain.Coverage, error) {
	insurer, err := s.load(ctx, insurerID)
	if err != nil {
		return domain.Coverage{}, err
	}

	var v validation.Error
	kind, kindErr := assetdomain.ParseKind(input.Kind)
	if kindErr != nil {
		v.Add("kind", "invalid_value", "kind must be one of HOGAR, VEHICULO, COPROPIEDAD, OTRO")
	}
	itemType := domain.CoverageType(strings.ToUpper(strings.TrimSpace(string(input.ItemType))))
	if !itemType.Valid() {
		v.Add("item_type", "invalid_value", "item_type must be COBERTURA, ASISTENCIA or DIFERENCIADOR")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		v.Add("name", "required", "name is required")
	}
	if err := v.Err(); err != nil {
		return domain.Coverage{}, err
	}

	item := domain.Coverage{
		ID:          s.genID.Generate(),
		InsurerID:   insurer.ID,
		Kind:        kind,
		ItemType:    itemType,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.InsertCoverage(ctx, s.db, &item); err != nil {
		return domain.Coverage{}, fmt.Errorf("insert coverage: %w", err)
	}
	return item, nil
}

func (s *Service) CreateFinancing(ctx context.Context, insurerID string, input domain.FinancingInput) (domain.FinancingPlan, error) {
	insurer, err := s.load(ctx, insurerID)
	if err != nil {
		return domain.FinancingPlan{}, err
	}

	var v validation.Error
	financier := strings.TrimSpace(input.Financier)
	if financier == "" {
		v.Add("financier", "required", "financier is required")
	}
	switch {
	case input.MonthlyRate == nil:
		v.Add("monthly_rate", "required", "monthly_rate is required")
	case input.MonthlyRate.IsNegative():
		v.Add("monthly_rate", "negative", "monthly_rate cannot be negative")
	}
	if err := v.Err(); err != nil {
		return domain.FinancingPlan{}, err
	}

	item := domain.FinancingPlan{
		ID:          s.genID.Generate(),
		InsurerID:   insurer.ID,
		Financier:   financier,
		MonthlyRate: *input.MonthlyRate,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.InsertFinancing(ctx, s.db, &item); err != nil {
		return domain.FinancingPlan{}, fmt.Errorf("insert financing plan: %w", err)
	}
	return item, nil
}

func (s *Service) ListDeductibles(ctx context.Context, insurerID, kind string) ([]domain.Deductible, error) {
	insurer, k, err := s.scope(ctx, insurerID, kind)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDeductibles(ctx, s.db, insurer.ID, k)
}

func (s *Service) ListCoverages(ctx context.Context, insurerID, kind string) ([]domain.Coverage, error) {
	insurer, k, err := s.scope(ctx, insurerID, kind)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCoverages(ctx, s.db, insurer.ID, k)
}

func (s *Service) ListFinancing(ctx context.Context, insurerID string) ([]domain.FinancingPlan, error) {
	insurer, err := s.load(ctx, insurerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListFinancing(ctx, s.db, insurer.ID)
}

// Templates returns the deductibles and coverages for kind plus every
// financing plan of the insurer.
func (s *Service) Templates(ctx context.Context, insurerID, kind string) (domain.Templates, error) {
	insurer, k, err := s.scope(ctx, insurerID, kind)
	if err != nil {
		return domain.Templates{}, err
	}

	var out domain.Templates
	if out.Deductibles, err = s.repo.ListDeductibles(ctx, s.db, insurer.ID, k); err != nil {
		return domain.Templates{}, err
	}
	if out.Coverages, err = s.repo.ListCoverages(ctx, s.db, insurer.ID, k); err != nil {
		return domain.Templates{}, err
	}
	if out.FinancingPlans, err = s.repo.ListFinancing(ctx, s.db, insurer.ID); err != nil {
		return domain.Templates{}, err
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Insurer, error) {
	insurerID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	insurer, err := s.repo.FindByID(ctx, s.db, insurerID)
	if err != nil {
		return nil, err
	}
	if insurer == nil {
		return nil, domain.ErrNotFound
	}
	return insurer, nil
}

func (s *Service) scope(ctx context.Context, insurerID, kind string) (*domain.Insurer, assetdomain.Kind, error) {
	k, err := assetdomain.ParseKind(kind)
	if err != nil {
		return nil, "", validation.New("kind", "invalid_value", "kind must be one of HOGAR, VEHICULO, COPROPIEDAD, OTRO")
	}
	insurer, err := s.load(ctx, insurerID)
	if err != nil {
		return nil, "", err
	}
	return insurer, k, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

var one = decimal.NewFromInt(1)

// applyInput merges input into insurer and validates the result.
func applyInput(insurer *domain.Insurer, input domain.InsurerInput) error {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := patch.Apply(insurer, input.InsurerFields); err != nil {
		return err
	}

	var v validation.Error
	if insurer.Name == "" {
		v.Add("name", "required", "name is required")
	}
	if input.CommissionRates != nil {
		validateRates(&v, "commission_rates", *input.CommissionRates)
		insurer.CommissionRates = datatypes.NewJSONType(*input.CommissionRates)
	}
	if input.OverrideCommissionRates != nil {
		validateRates(&v, "override_commission_rates", *input.OverrideCommissionRates)
		insurer.OverrideCommissionRates = datatypes.NewJSONType(*input.OverrideCommissionRates)
	}

	sublimits := map[string]decimal.NullDecimal{
		"vehicle_third_party_property": insurer.VehicleThirdPartyProperty,
		"vehicle_patrimonial":          insurer.VehiclePatrimonial,
		"vehicle_death_one_person":     insurer.VehicleDeathOnePerson,
		"vehicle_death_many_persons":   insurer.VehicleDeathManyPersons,
		"condo_contractors":            insurer.CondoContractors,
		"condo_cross":                  insurer.CondoCross,
		"condo_employer":               insurer.CondoEmployer,
		"condo_parking":                insurer.CondoParking,
		"condo_medical_expenses":       insurer.CondoMedicalExpenses,
	}
	for _, field := range slices.Sorted(maps.Keys(sublimits)) {
		if value := sublimits[field]; value.Valid && (value.Decimal.IsNegative() || value.Decimal.GreaterThan(one)) {
			v.Add(field, "out_of_range", field+" must be between 0 and 1")
		}
	}
	return v.Err()
}

func validateRates(v *validation.Error, field string, rates domain.Rates) {
	for _, kind := range slices.Sorted(maps.Keys(rates)) {
		if !kind.Valid() {
			v.Add(field, "invalid_kind", "unknown asset kind "+string(kind))
			continue
		}
		if rate := rates[kind]; rate.IsNegative() || !rate.LessThan(one) {
			v.Add(field, "out_of_range", "rate for "+string(kind)+" must be in [0, 1)")
		}
	}
}
