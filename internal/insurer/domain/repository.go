package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, insurer *Insurer) error
	Update(ctx context.Context, db *gorm.DB, insurer *Insurer) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Insurer, error)
	List(ctx context.Context, db *gorm.DB, name string) ([]*Insurer, error)
	CountQuotations(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)

	InsertDeductible(ctx context.Context, db *gorm.DB, item *Deductible) error
	InsertCoverage(ctx context.Context, db *gorm.DB, item *Coverage) error
	InsertFinancing(ctx context.Context, db *gorm.DB, item *FinancingPlan) error

	ListDeductibles(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind) ([]Deductible, error)
	ListCoverages(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind) ([]Coverage, error)
	ListFinancing(ctx context.Context, db *gorm.DB, insurerID snowflake.ID) ([]FinancingPlan, error)
	FindFinancing(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FinancingPlan, error)

	// FilterDeductibleIDs returns the subset of ids owned by insurer for kind.
	FilterDeductibleIDs(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind, ids []snowflake.ID) ([]snowflake.ID, error)
	FilterCoverageIDs(ctx context.Context, db *gorm.DB, insurerID snowflake.ID, kind assetdomain.Kind, ids []snowflake.ID) ([]snowflake.ID, error)
	FindDeductiblesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Deductible, error)
	FindCoveragesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Coverage, error)
}
