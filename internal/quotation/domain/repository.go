package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"gorm.io/gorm"
)

type ListQuotationFilter struct {
	AssetID   snowflake.ID
	InsurerID snowflake.ID
	Kind      assetdomain.Kind
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, q *Quotation) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Quotation, error)
	List(ctx context.Context, db *gorm.DB, filter ListQuotationFilter) ([]*Quotation, error)
	UpdatePremium(ctx context.Context, db *gorm.DB, id snowflake.ID, premium decimal.Decimal) (int64, error)

	InsertDeductibleLinks(ctx context.Context, db *gorm.DB, quotationID snowflake.ID, ids []snowflake.ID) error
	InsertCoverageLinks(ctx context.Context, db *gorm.DB, quotationID snowflake.ID, ids []snowflake.ID) error
}
