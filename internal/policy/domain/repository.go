package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListPolicyFilter struct {
	CarteraStatus CarteraStatus
	StartFrom     *time.Time
	StartTo       *time.Time
	ActiveOn      *time.Time
	EndingAfter   *time.Time
}

type PaidInstallment struct {
	PolicyID  snowflake.ID
	Number    int
	Amount    decimal.Decimal
	PaidDate  time.Time
	Reference *string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *Policy) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Policy, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Policy, error)
	ExistsForQuotation(ctx context.Context, db *gorm.DB, quotationID snowflake.ID) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListPolicyFilter) ([]*Policy, error)

	// Version-guarded policy updates. Zero rows means the version moved.
	UpdateCartera(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, status CarteraStatus, at time.Time) (int64, error)
	Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, reason string, at time.Time) (int64, error)

	// Status-guarded installment updates. Zero rows means nothing was payable.
	MarkInstallmentPaid(ctx context.Context, db *gorm.DB, paid PaidInstallment, at time.Time) (int64, error)
	CancelInstallments(ctx context.Context, db *gorm.DB, policyID snowflake.ID, at time.Time) (int64, error)
	MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time, at time.Time) (int64, error)
	ListOverdue(ctx context.Context, db *gorm.DB, today time.Time) ([]Installment, error)
}
