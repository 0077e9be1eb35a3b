package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/policy/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert writes the policy and its schedule. Callers run it inside a
// transaction.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Policy) error {
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	if len(p.Installments) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&p.Installments).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Policy, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Policy, error) {
	return r.findOne(ctx, db, "code = ?", strings.TrimSpace(code))
}

func (r *repo) ExistsForQuotation(ctx context.Context, db *gorm.DB, quotationID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Policy{}).
		Where("quotation_id = ?", quotationID).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListPolicyFilter) ([]*domain.Policy, error) {
	stmt := db.WithContext(ctx).Model(&domain.Policy{})
	if filter.CarteraStatus != "" {
		stmt = stmt.Where("cartera_status = ?", filter.CarteraStatus)
	}
	if filter.StartFrom != nil {
		stmt = stmt.Where("start_date >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		stmt = stmt.Where("start_date <= ?", *filter.StartTo)
	}
	if filter.ActiveOn != nil {
		stmt = stmt.Where("start_date <= ? AND end_date >= ?", *filter.ActiveOn, *filter.ActiveOn)
	}
	if filter.EndingAfter != nil {
		stmt = stmt.Where("end_date >= ?", *filter.EndingAfter)
	}

	var items []*domain.Policy
	if err := stmt.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	if err := r.loadInstallments(ctx, db, items...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateCartera(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, status domain.CarteraStatus, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE policies SET cartera_status = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		status,
		at,
		id,
		version,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, reason string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE policies
		 SET cartera_status = ?, cancellation_reason = ?, cancelled_at = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ? AND cartera_status <> ?`,
		domain.CarteraCancelled,
		reason,
		at,
		at,
		id,
		version,
		domain.CarteraCancelled,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) MarkInstallmentPaid(ctx context.Context, db *gorm.DB, paid domain.PaidInstallment, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE policy_installments
		 SET status = ?, paid_amount = ?, paid_date = ?, payment_reference = ?, updated_at = ?
		 WHERE policy_id = ? AND number = ? AND status IN (?, ?)`,
		domain.InstallmentPaid,
		paid.Amount,
		paid.PaidDate,
		paid.Reference,
		at,
		paid.PolicyID,
		paid.Number,
		domain.InstallmentPending,
		domain.InstallmentOverdue,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) CancelInstallments(ctx context.Context, db *gorm.DB, policyID snowflake.ID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE policy_installments SET status = ?, updated_at = ?
		 WHERE policy_id = ? AND status IN (?, ?)`,
		domain.InstallmentCancelled,
		at,
		policyID,
		domain.InstallmentPending,
		domain.InstallmentOverdue,
	)
	return result.RowsAffected, result.Error
}

// MarkOverdue flips pending installments due before today.
func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE policy_installments SET status = ?, updated_at = ?
		 WHERE status = ? AND due_date < ?`,
		domain.InstallmentOverdue,
		at,
		domain.InstallmentPending,
		today,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, today time.Time) ([]domain.Installment, error) {
	var items []domain.Installment
	err := db.WithContext(ctx).
		Where("status IN ? AND due_date < ?", []domain.InstallmentStatus{domain.InstallmentPending, domain.InstallmentOverdue}, today).
		Order("due_date asc, policy_id asc, number asc").
		Find(&items).Error
	return items, err
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Policy, error) {
	var p domain.Policy
	result := db.WithContext(ctx).Where(query, arg).Limit(1).Find(&p)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	if err := r.loadInstallments(ctx, db, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) loadInstallments(ctx context.Context, db *gorm.DB, policies ...*domain.Policy) error {
	if len(policies) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(policies))
	byID := make(map[snowflake.ID]*domain.Policy, len(policies))
	for _, p := range policies {
		p.Installments = []domain.Installment{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var items []domain.Installment
	if err := db.WithContext(ctx).
		Where("policy_id IN ?", ids).
		Order("policy_id asc, number asc").
		Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		if p, ok := byID[item.PolicyID]; ok {
			p.Installments = append(p.Installments, item)
		}
	}
	return nil
}
