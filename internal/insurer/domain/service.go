package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(context.Context, InsurerInput) (Insurer, error)
	Update(ctx context.Context, id string, input InsurerInput) (Insurer, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Insurer, error)
	List(ctx context.Context, name string) ([]Insurer, error)

	CreateDeductible(ctx context.Context, insurerID string, input DeductibleInput) (Deductible, error)
	CreateCoverage(ctx context.Context, insurerID string, input CoverageInput) (Coverage, error)
	CreateFinancing(ctx context.Context, insurerID string, input FinancingInput) (FinancingPlan, error)

	ListDeductibles(ctx context.Context, insurerID, kind string) ([]Deductible, error)
	ListCoverages(ctx context.Context, insurerID, kind string) ([]Coverage, error)
	ListFinancing(ctx context.Context, insurerID string) ([]FinancingPlan, error)
	Templates(ctx context.Context, insurerID, kind string) (Templates, error)
}

var (
	ErrInvalidID     = errors.New("invalid_insurer_id")
	ErrNotFound      = errors.New("insurer_not_found")
	ErrHasQuotations = errors.New("insurer_has_quotations")
)
