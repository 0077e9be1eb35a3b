package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/brokerage/internal/quotation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert writes the insured-value record and then the header.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, q *domain.Quotation) error {
	ins := q.Insured()
	if ins == nil {
		return domain.ErrNotFound
	}
	if err := db.WithContext(ctx).Create(ins).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO quotations (id, code, asset_id, insurer_id, kind, financing_plan_id, total_premium, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID,
		q.Code,
		q.AssetID,
		q.InsurerID,
		q.Kind,
		q.FinancingPlanID,
		q.TotalPremium,
		q.CreatedAt,
		q.UpdatedAt,
	).Error
}

// Delete removes the selections, the insured-value record and the header.
// Callers run it inside a transaction.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	for _, stmt := range []string{
		`DELETE FROM quotation_deductibles WHERE quotation_id = ?`,
		`DELETE FROM quotation_coverages WHERE quotation_id = ?`,
		`DELETE FROM quotation_homes WHERE quotation_id = ?`,
		`DELETE FROM quotation_vehicles WHERE quotation_id = ?`,
		`DELETE FROM quotation_condos WHERE quotation_id = ?`,
		`DELETE FROM quotation_others WHERE quotation_id = ?`,
		`DELETE FROM quotations WHERE id = ?`,
	} {
		if err := db.WithContext(ctx).Exec(stmt, id).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Quotation, error) {
	var q domain.Quotation
	result := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&q)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	if err := r.hydrate(ctx, db, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListQuotationFilter) ([]*domain.Quotation, error) {
	stmt := db.WithContext(ctx).Model(&domain.Quotation{})
	if filter.AssetID != 0 {
		stmt = stmt.Where("asset_id = ?", filter.AssetID)
	}
	if filter.InsurerID != 0 {
		stmt = stmt.Where("insurer_id = ?", filter.InsurerID)
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}

	var items []*domain.Quotation
	if err := stmt.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := r.hydrate(ctx, db, item); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// UpdatePremium only touches quotations without a policy.
func (r *repo) UpdatePremium(ctx context.Context, db *gorm.DB, id snowflake.ID, premium decimal.Decimal) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE quotations SET total_premium = ?, updated_at = ?
		 WHERE id = ? AND NOT EXISTS (SELECT 1 FROM policies WHERE policies.quotation_id = quotations.id)`,
		premium,
		time.Now().UTC(),
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertDeductibleLinks(ctx context.Context, db *gorm.DB, quotationID snowflake.ID, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	links := make([]domain.DeductibleLink, 0, len(ids))
	for _, id := range ids {
		links = append(links, domain.DeductibleLink{QuotationID: quotationID, DeductibleID: id})
	}
	return db.WithContext(ctx).Create(&links).Error
}

func (r *repo) InsertCoverageLinks(ctx context.Context, db *gorm.DB, quotationID snowflake.ID, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	links := make([]domain.CoverageLink, 0, len(ids))
	for _, id := range ids {
		links = append(links, domain.CoverageLink{QuotationID: quotationID, CoverageID: id})
	}
	return db.WithContext(ctx).Create(&links).Error
}

func (r *repo) hydrate(ctx context.Context, db *gorm.DB, q *domain.Quotation) error {
	ins, err := domain.NewInsured(q.Kind)
	if err != nil {
		return err
	}
	result := db.WithContext(ctx).Where("quotation_id = ?", q.ID).Limit(1).Find(ins)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		q.Attach(ins)
	}

	q.DeductibleIDs = []snowflake.ID{}
	if err := db.WithContext(ctx).Table("quotation_deductibles").
		Where("quotation_id = ?", q.ID).
		Order("deductible_id asc").
		Pluck("deductible_id", &q.DeductibleIDs).Error; err != nil {
		return err
	}
	q.CoverageIDs = []snowflake.ID{}
	if err := db.WithContext(ctx).Table("quotation_coverages").
		Where("quotation_id = ?", q.ID).
		Order("coverage_id asc").
		Pluck("coverage_id", &q.CoverageIDs).Error; err != nil {
		return err
	}

	var policies int64
	if err := db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM policies WHERE quotation_id = ?`, q.ID).
		Scan(&policies).Error; err != nil {
		return err
	}
	q.HasPolicy = policies > 0
	return nil
}
