package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	ratingdomain "github.com/smallbiznis/brokerage/internal/rating/domain"
)

type CreateQuotationRequest struct {
	AssetID         string                     `json:"asset_id"`
	InsurerID       string                     `json:"insurer_id"`
	Kind            string                     `json:"kind"`
	InsuredValues   map[string]decimal.Decimal `json:"insured_values"`
	TotalPremium    *decimal.Decimal           `json:"total_premium,omitempty"`
	FinancingPlanID string                     `json:"financing_plan_id,omitempty"`
	DeductibleIDs   []string                   `json:"deductible_ids,omitempty"`
	CoverageIDs     []string                   `json:"coverage_ids,omitempty"`
}

type ListQuotationRequest struct {
	AssetID   string
	InsurerID string
	Kind      string
}

// SimulateRequest prices insured values for an insurer without persisting
// anything. Kind is taken from the asset when AssetID is given. A financing
// plan adds the financed totals; a loss amount adds the deductible charged
// by each selected template.
type SimulateRequest struct {
	InsurerID       string                     `json:"insurer_id"`
	AssetID         string                     `json:"asset_id,omitempty"`
	Kind            string                     `json:"kind,omitempty"`
	InsuredValues   map[string]decimal.Decimal `json:"insured_values"`
	FinancingPlanID string                     `json:"financing_plan_id,omitempty"`
	Installments    int                        `json:"installments,omitempty"`
	LossAmount      *decimal.Decimal           `json:"loss_amount,omitempty"`
	DeductibleIDs   []string                   `json:"deductible_ids,omitempty"`
}

type Simulation struct {
	InsurerID   string               `json:"insurer_id"`
	AssetID     string               `json:"asset_id,omitempty"`
	Financing   *FinancingEstimate   `json:"financing,omitempty"`
	Deductibles []DeductibleEstimate `json:"deductibles,omitempty"`
	ratingdomain.Result
}

type FinancingEstimate struct {
	PlanID        string          `json:"plan_id"`
	Financier     string          `json:"financier"`
	MonthlyRate   decimal.Decimal `json:"monthly_rate"`
	Installments  int             `json:"installments"`
	Installment   decimal.Decimal `json:"installment"`
	TotalFinanced decimal.Decimal `json:"total_financed"`
	FinancingCost decimal.Decimal `json:"financing_cost"`
}

type DeductibleEstimate struct {
	DeductibleID string          `json:"deductible_id"`
	Category     string          `json:"category"`
	LossAmount   decimal.Decimal `json:"loss_amount"`
	Amount       decimal.Decimal `json:"amount"`
}

type Service interface {
	Create(context.Context, CreateQuotationRequest) (Quotation, error)
	GetByID(ctx context.Context, id string) (Quotation, error)
	List(context.Context, ListQuotationRequest) ([]Quotation, error)
	ListByAsset(ctx context.Context, assetID string) ([]Quotation, error)
	UpdatePremium(ctx context.Context, id string, premium decimal.Decimal) (Quotation, error)
	Delete(ctx context.Context, id string) error
	Simulate(context.Context, SimulateRequest) (Simulation, error)
}

var (
	ErrInvalidID = errors.New("invalid_quotation_id")
	ErrNotFound  = errors.New("quotation_not_found")
	ErrHasPolicy = errors.New("quotation_has_policy")
)
