package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, asset *Asset) error
	Update(ctx context.Context, db *gorm.DB, asset *Asset) error
	Delete(ctx context.Context, db *gorm.DB, asset *Asset) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Asset, error)
	List(ctx context.Context, db *gorm.DB, filter ListAssetFilter, page pagination.Pagination) ([]*Asset, error)
	CountQuotations(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)

	FindClientLink(ctx context.Context, db *gorm.DB, assetID, clientID snowflake.ID) (*AssetClient, error)
	InsertClientLink(ctx context.Context, db *gorm.DB, link *AssetClient) error
	DeleteClientLink(ctx context.Context, db *gorm.DB, assetID, clientID snowflake.ID) (int64, error)
	ListClientIDs(ctx context.Context, db *gorm.DB, assetID snowflake.ID) ([]snowflake.ID, error)
}

type ListAssetFilter struct {
	Kind     Kind
	ClientID snowflake.ID
}
