package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"github.com/smallbiznis/brokerage/internal/insurer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, insurer *domain.Insurer) error {
	return db.WithContext(ctx).Create(insurer).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, insurer *domain.Insurer) error {
	return db.WithContext(ctx).Save(insurer).Error
}

// Delete removes the insurer together with its template catalog. Callers run
// it inside a transaction.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	for _, stmt := range []string{
		`DELETE FROM insurer_deductibles WHERE insurer_id = ?`,
		`DELETE FROM insurer_coverages WHERE insurer_id = ?`,
		`DELETE FROM insurer_financing_plans WHERE insurer_id = ?`,
		`DELETE FROM insurers WHERE id = ?`,
	} {
		if err := db.WithContext(ctx).Exec(stmt, id).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Insurer, error) {
	var insurer domain.Insurer
	result := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&insurer)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &insurer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, name string) ([]*domain.Insurer, error) {
	var insurers []*domain.Insurer
	stmt := db.WithContext(ctx).Model(&domain.Insurer{})
	if name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+name+"%")
	}
	if err := stmt.Order("name asc, id asc").Find(&insurers).Error; err != nil {
		return nil, err
	}
	return insurers, nil
}

func (r *repo) CountQuotations(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM quotations WHERE insurer_id = ?`, id).Scan(&count).Error
	return count, err
}

func (r *repo) InsertDeductible(ctx context.Context, db *gorm.DB, item *domain.Deductible) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO insurer_deductibles (id, insurer_id, kind, category, deductible_type, rate, minimum_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.InsurerID,
		item.Kind,
		item.Category,
		item.DeductibleType,
		item.Rate,
		item.MinimumAmount,
		item.CreatedAt,
	).Error
}

func (r *repo) InsertCoverage(ctx context.Context, db *gorm.DB, item *domain.Coverage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO insurer_coverages (id, insurer_id, kind, item_type, name, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.InsurerID,
		item.Kind,
		item.ItemType,
		item.Name,
		item.Description,
		item.CreatedAt,
	).Error
}

func (r *repo) InsertFinancing(ctx context.Context, db *gorm.DB, item *domain.FinancingPlan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO insurer_financing_plans (id, insurer_id, financier, monthly_rate, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID,
		item.InsurerID,
		item.Financier,
		item.MonthlyRate,
		item.CreatedAt,
	).Error
}

func (r *repo) ListDeductibles(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind) ([]domain.Deductible, error) {
	items := []domain.Deductible{}
	err := db.WithContext(ctx).
		Where("insurer_id = ? AND kind = ?", insurerID, kind).
		Order("category asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) ListCoverages(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind) ([]domain.Coverage, error) {
	items := []domain.Coverage{}
	err := db.WithContext(ctx).
		Where("insurer_id = ? AND kind = ?", insurerID, kind).
		Order("item_type asc, name asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) ListFinancing(ctx context.Context, db *gorm.DB, insurerID snowflake.ID) ([]domain.FinancingPlan, error) {
	items := []domain.FinancingPlan{}
	err := db.WithContext(ctx).
		Where("insurer_id = ?", insurerID).
		Order("monthly_rate asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) FindFinancing(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FinancingPlan, error) {
	var plan domain.FinancingPlan
	result := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&plan)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) FilterDeductibleIDs(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind, ids []snowflake.ID) ([]snowflake.ID, error) {
	return filterIDs(ctx, db, "insurer_deductibles", insurerID, kind, ids)
}

func (r *repo) FilterCoverageIDs(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind, ids []snowflake.ID) ([]snowflake.ID, error) {
	return filterIDs(ctx, db, "insurer_coverages", insurerID, kind, ids)
}

func (r *repo) FindDeductiblesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Deductible, error) {
	items := []domain.Deductible{}
	if len(ids) == 0 {
		return items, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&items).Error
	return items, err
}

func (r *repo) FindCoveragesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Coverage, error) {
	items := []domain.Coverage{}
	if len(ids) == 0 {
		return items, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&items).Error
	return items, err
}

func filterIDs(ctx context.Context, db *gorm.DB, table string, insurerID snowflake.ID, kind assetdomain.Kind, ids []snowflake.ID) ([]snowflake.ID, error) {
	out := []snowflake.ID{}
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).
		Table(table).
		Where("insurer_id = ? AND kind = ? AND id IN ?", insurerID, kind, ids).
		Order("id asc").
		Pluck("id", &out).Error
	return out, err
}
