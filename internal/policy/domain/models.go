package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CarteraStatus is the collection state of a policy.
type CarteraStatus string

const (
	CarteraCurrent    CarteraStatus = "Al Día"
	CarteraPastDue    CarteraStatus = "Vencida"
	CarteraDelinquent CarteraStatus = "En Mora"
	CarteraCancelled  CarteraStatus = "Cancelada"
)

func ParseCarteraStatus(value string) (CarteraStatus, error) {
	switch status := CarteraStatus(strings.TrimSpace(value)); status {
	case CarteraCurrent, CarteraPastDue, CarteraDelinquent, CarteraCancelled:
		return status, nil
	}
	return "", fmt.Errorf("invalid cartera status %q", value)
}

type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "PENDING"
	InstallmentPaid      InstallmentStatus = "PAID"
	InstallmentOverdue   InstallmentStatus = "OVERDUE"
	InstallmentCancelled InstallmentStatus = "CANCELLED"
)

// Frequency is the spacing between installment due dates.
type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyAnnual     Frequency = "annual"
)

var frequencyAliases = map[string]Frequency{
	"monthly":    FrequencyMonthly,
	"mensual":    FrequencyMonthly,
	"quarterly":  FrequencyQuarterly,
	"trimestral": FrequencyQuarterly,
	"semiannual": FrequencySemiannual,
	"semestral":  FrequencySemiannual,
	"annual":     FrequencyAnnual,
	"anual":      FrequencyAnnual,
}

// ParseFrequency accepts the English names and their Spanish equivalents.
// An empty value is monthly.
func ParseFrequency(value string) (Frequency, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return FrequencyMonthly, nil
	}
	if f, ok := frequencyAliases[value]; ok {
		return f, nil
	}
	return "", fmt.Errorf("invalid payment frequency %q", value)
}

// Months returns the number of months between two due dates.
func (f Frequency) Months() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencySemiannual:
		return 6
	case FrequencyAnnual:
		return 12
	default:
		return 1
	}
}

// Policy is an issued contract. Installments are loaded by the repository
// and ordered by number.
type Policy struct {
	ID                  snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code                string          `gorm:"not null;uniqueIndex" json:"code"`
	QuotationID         snowflake.ID    `gorm:"not null;uniqueIndex" json:"quotation_id"`
	InsurerPolicyNumber *string         `json:"insurer_policy_number,omitempty"`
	StartDate           time.Time       `gorm:"not null" json:"start_date"`
	EndDate             time.Time       `gorm:"not null" json:"end_date"`
	PaymentMedium       string          `gorm:"not null" json:"payment_medium"`
	Frequency           Frequency       `gorm:"not null" json:"frequency"`
	CarteraStatus       CarteraStatus   `gorm:"not null;index" json:"cartera_status"`
	NetPremium          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"net_premium"`
	Tax                 decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"tax"`
	OtherCosts          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"other_costs"`
	Commission          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"commission"`
	CancellationReason  *string         `json:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time      `json:"cancelled_at,omitempty"`
	Version             int64           `gorm:"not null" json:"version"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`

	Installments []Installment `gorm:"-" json:"installments"`

	TotalPremium         decimal.Decimal `gorm:"-" json:"total_premium"`
	CoverageDays         int             `gorm:"-" json:"coverage_days"`
	Active               bool            `gorm:"-" json:"is_active"`
	CommissionPercentage decimal.Decimal `gorm:"-" json:"commission_percentage"`
	Summary              PaymentSummary  `gorm:"-" json:"payment_summary"`
}

func (Policy) TableName() string { return "policies" }

// Total is net premium plus tax plus other costs.
func (p *Policy) Total() decimal.Decimal {
	return p.NetPremium.Add(p.Tax).Add(p.OtherCosts)
}

func (p *Policy) Days() int {
	return int(p.EndDate.Sub(p.StartDate).Hours() / 24)
}

// IsActive reports whether today falls within the coverage period, both
// ends included.
func (p *Policy) IsActive(today time.Time) bool {
	return !today.Before(p.StartDate) && !today.After(p.EndDate)
}

// CommissionShare is commission over net premium as a percentage.
func (p *Policy) CommissionShare() decimal.Decimal {
	if !p.NetPremium.IsPositive() {
		return decimal.Zero
	}
	return p.Commission.Div(p.NetPremium).Mul(decimal.NewFromInt(100)).Round(2)
}

// Cancellable returns ErrPolicyNotCancellable unless the policy is in force
// and its cartera is neither past due nor already cancelled.
func (p *Policy) Cancellable(today time.Time) error {
	if !p.IsActive(today) {
		return fmt.Errorf("%w: policy is not in force", ErrPolicyNotCancellable)
	}
	switch p.CarteraStatus {
	case CarteraPastDue:
		return fmt.Errorf("%w: policy has past due installments", ErrPolicyNotCancellable)
	case CarteraCancelled:
		return fmt.Errorf("%w: policy is already cancelled", ErrPolicyNotCancellable)
	}
	return nil
}

// Installment returns the installment with the given number, or nil.
func (p *Policy) Installment(number int) *Installment {
	for i := range p.Installments {
		if p.Installments[i].Number == number {
			return &p.Installments[i]
		}
	}
	return nil
}

type PaymentSummary struct {
	Total         int             `json:"total_installments"`
	Paid          int             `json:"paid_installments"`
	Pending       int             `json:"pending_installments"`
	Overdue       int             `json:"overdue_installments"`
	Cancelled     int             `json:"cancelled_installments"`
	PlanAmount    decimal.Decimal `json:"plan_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

// Summarize counts installments by status. Pending amount covers pending and
// overdue installments; paid amount is what was actually received.
func (p *Policy) Summarize() PaymentSummary {
	summary := PaymentSummary{
		Total:         len(p.Installments),
		PlanAmount:    decimal.Zero,
		PaidAmount:    decimal.Zero,
		PendingAmount: decimal.Zero,
	}
	for _, inst := range p.Installments {
		summary.PlanAmount = summary.PlanAmount.Add(inst.Amount)
		switch inst.Status {
		case InstallmentPaid:
			summary.Paid++
			if inst.PaidAmount.Valid {
				summary.PaidAmount = summary.PaidAmount.Add(inst.PaidAmount.Decimal)
			} else {
				summary.PaidAmount = summary.PaidAmount.Add(inst.Amount)
			}
		case InstallmentPending:
			summary.Pending++
			summary.PendingAmount = summary.PendingAmount.Add(inst.Amount)
		case InstallmentOverdue:
			summary.Overdue++
			summary.PendingAmount = summary.PendingAmount.Add(inst.Amount)
		case InstallmentCancelled:
			summary.Cancelled++
		}
	}
	return summary
}

// Derive fills the computed fields of p and its installments.
func (p *Policy) Derive(today time.Time, lateDailyRate decimal.Decimal, portalBaseURL string) {
	p.TotalPremium = p.Total()
	p.CoverageDays = p.Days()
	p.Active = p.IsActive(today)
	p.CommissionPercentage = p.CommissionShare()
	p.Summary = p.Summarize()
	for i := range p.Installments {
		p.Installments[i].Derive(today, lateDailyRate, portalBaseURL)
	}
}

// NextCartera recomputes the cartera status from the installments. A
// cancelled policy stays cancelled.
func NextCartera(current CarteraStatus, installments []Installment, today time.Time) CarteraStatus {
	if current == CarteraCancelled {
		return current
	}
	for _, inst := range installments {
		if inst.Payable() && inst.DueDate.Before(today) {
			return CarteraPastDue
		}
	}
	return CarteraCurrent
}

type Installment struct {
	ID               snowflake.ID        `gorm:"primaryKey" json:"id"`
	PolicyID         snowflake.ID        `gorm:"not null;uniqueIndex:ux_policy_installments_number" json:"policy_id"`
	Number           int                 `gorm:"not null;uniqueIndex:ux_policy_installments_number" json:"number"`
	Amount           decimal.Decimal     `gorm:"type:numeric(18,2);not null" json:"amount"`
	DueDate          time.Time           `gorm:"not null;index" json:"due_date"`
	Status           InstallmentStatus   `gorm:"not null;index" json:"status"`
	PaidAmount       decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"paid_amount"`
	PaidDate         *time.Time          `json:"paid_date,omitempty"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
	PortalToken      string              `gorm:"not null" json:"-"`
	CreatedAt        time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"not null" json:"updated_at"`

	DaysUntilDue int             `gorm:"-" json:"days_until_due"`
	Overdue      bool            `gorm:"-" json:"is_overdue"`
	CanPay       bool            `gorm:"-" json:"payable"`
	LateCharge   decimal.Decimal `gorm:"-" json:"late_charge"`
	PortalLink   string          `gorm:"-" json:"portal_link,omitempty"`
}

func (Installment) TableName() string { return "policy_installments" }

// DaysUntil is negative once the due date has passed.
func (i *Installment) DaysUntil(today time.Time) int {
	return int(i.DueDate.Sub(today).Hours() / 24)
}

func (i *Installment) IsOverdue(today time.Time) bool {
	return i.Payable() && today.After(i.DueDate)
}

func (i *Installment) Payable() bool {
	return i.Status == InstallmentPending || i.Status == InstallmentOverdue
}

// Charge is amount × daily rate × days late, zero unless overdue.
func (i *Installment) Charge(today time.Time, dailyRate decimal.Decimal) decimal.Decimal {
	if !i.IsOverdue(today) {
		return decimal.Zero
	}
	days := decimal.NewFromInt(int64(-i.DaysUntil(today)))
	return i.Amount.Mul(dailyRate).Mul(days).Round(2)
}

// Link builds the payment-portal URL for the installment.
func (i *Installment) Link(baseURL string) string {
	if strings.TrimSpace(baseURL) == "" || i.PortalToken == "" {
		return ""
	}
	return fmt.Sprintf("%s/pay/%s?token=%s", strings.TrimRight(baseURL, "/"), i.ID, i.PortalToken)
}

func (i *Installment) Derive(today time.Time, lateDailyRate decimal.Decimal, portalBaseURL string) {
	i.DaysUntilDue = i.DaysUntil(today)
	i.Overdue = i.IsOverdue(today)
	i.CanPay = i.Payable()
	i.LateCharge = i.Charge(today, lateDailyRate)
	i.PortalLink = i.Link(portalBaseURL)
}
