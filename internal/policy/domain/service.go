package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CreatePolicyRequest issues a policy from a quotation. Dates are
// YYYY-MM-DD. Installments defaults to 1, Frequency to monthly and
// GeneratePlan to true.
type CreatePolicyRequest struct {
	QuotationID         string           `json:"quotation_id"`
	StartDate           string           `json:"start_date"`
	EndDate             string           `json:"end_date"`
	PaymentMedium       string           `json:"payment_medium"`
	InsurerPolicyNumber string           `json:"insurer_policy_number,omitempty"`
	PremiumTotal        *decimal.Decimal `json:"premium_total,omitempty"`
	OtherCosts          *decimal.Decimal `json:"other_costs,omitempty"`
	Installments        *int             `json:"installments,omitempty"`
	Frequency           string           `json:"frequency,omitempty"`
	GeneratePlan        *bool            `json:"generate_plan,omitempty"`
}

type ListPolicyRequest struct {
	CarteraStatus string
	From          string
	To            string
	ActiveOnly    bool
}

// RegisterPaymentRequest records a payment. Amount defaults to the amount due
// and PaidDate to today.
type RegisterPaymentRequest struct {
	PolicyID  string           `json:"-"`
	Number    int              `json:"-"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	PaidDate  string           `json:"paid_date,omitempty"`
	Reference string           `json:"reference,omitempty"`
}

type OverdueReport struct {
	AsOf         time.Time       `json:"as_of"`
	Reclassified int64           `json:"reclassified"`
	Count        int             `json:"count"`
	Total        decimal.Decimal `json:"total"`
	Installments []Installment   `json:"installments"`
}

// PortfolioReport summarizes every policy whose coverage has not ended.
type PortfolioReport struct {
	AsOf               time.Time             `json:"as_of"`
	ActivePolicies     int                   `json:"active_policies"`
	ByCartera          map[CarteraStatus]int `json:"by_cartera"`
	TotalPremium       decimal.Decimal       `json:"total_premium"`
	TotalCommission    decimal.Decimal       `json:"total_commission"`
	UnpaidInstallments int                   `json:"unpaid_installments"`
	UnpaidAmount       decimal.Decimal       `json:"unpaid_amount"`
	Policies           []Policy              `json:"-"`
}

type Service interface {
	Create(context.Context, CreatePolicyRequest) (Policy, error)
	GetByID(ctx context.Context, id string) (Policy, error)
	GetByCode(ctx context.Context, code string) (Policy, error)
	List(context.Context, ListPolicyRequest) ([]Policy, error)
	UpdateCarteraStatus(ctx context.Context, id string, status string) (Policy, error)
	RegisterPayment(context.Context, RegisterPaymentRequest) (Policy, error)
	ListOverdue(ctx context.Context, today time.Time) (OverdueReport, error)
	ReclassifyOverdue(ctx context.Context, today time.Time) (OverdueReport, error)
	Cancel(ctx context.Context, id string, reason string) (Policy, error)
	PortfolioReport(ctx context.Context, today time.Time) (PortfolioReport, error)
}

var (
	ErrInvalidID              = errors.New("invalid_policy_id")
	ErrNotFound               = errors.New("policy_not_found")
	ErrInstallmentNotFound    = errors.New("installment_not_found")
	ErrQuotationNotIssuable   = errors.New("quotation_not_issuable")
	ErrQuotationAlreadyIssued = errors.New("quotation_already_issued")
	ErrInstallmentNotPayable  = errors.New("installment_not_payable")
	ErrPolicyNotCancellable   = errors.New("policy_not_cancellable")
	ErrConcurrentUpdate       = errors.New("policy_concurrent_update")
)
