package repository

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/asset/domain"
	"github.com/smallbiznis/brokerage/pkg/db/option"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, asset *domain.Asset) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO assets (id, kind, status, comments, continuous_coverage, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		asset.ID,
		asset.Kind,
		asset.Status,
		asset.Comments,
		asset.ContinuousCoverage,
		asset.CreatedAt,
		asset.UpdatedAt,
	).Error
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(asset.Variant()).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, asset *domain.Asset) error {
	err := db.WithContext(ctx).Exec(
		`UPDATE assets SET status = ?, comments = ?, continuous_coverage = ?, updated_at = ?
		 WHERE id = ?`,
		asset.Status,
		asset.Comments,
		asset.ContinuousCoverage,
		asset.UpdatedAt,
		asset.ID,
	).Error
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Save(asset.Variant()).Error
}

// Delete removes the payload row, the client links and the header, in that
// order. Callers run it inside a transaction.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, asset *domain.Asset) error {
	variant := asset.Variant()
	if variant == nil {
		return domain.ErrVariantMismatch
	}
	if err := db.WithContext(ctx).Where("asset_id = ?", asset.ID).Delete(variant).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(`DELETE FROM asset_clients WHERE asset_id = ?`, asset.ID).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM assets WHERE id = ?`, asset.ID).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Asset, error) {
	var asset domain.Asset
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, status, comments, continuous_coverage, created_at, updated_at
		 FROM assets WHERE id = ?`,
		id,
	).Scan(&asset).Error
	if err != nil {
		return nil, err
	}
	if asset.ID == 0 {
		return nil, nil
	}
	if err := r.hydrate(ctx, db, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAssetFilter, page pagination.Pagination) ([]*domain.Asset, error) {
	var assets []*domain.Asset
	stmt := db.WithContext(ctx).Model(&domain.Asset{})
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.ClientID != 0 {
		stmt = stmt.Where("id IN (SELECT asset_id FROM asset_clients WHERE client_id = ?)", filter.ClientID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("id desc").Find(&assets).Error; err != nil {
		return nil, err
	}
	for _, asset := range assets {
		if err := r.hydrate(ctx, db, asset); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

func (r *repo) CountQuotations(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM quotations WHERE asset_id = ?`, id).Scan(&count).Error
	return count, err
}

func (r *repo) FindClientLink(ctx context.Context, db *gorm.DB, assetID, clientID snowflake.ID) (*domain.AssetClient, error) {
	var link domain.AssetClient
	err := db.WithContext(ctx).Raw(
		`SELECT asset_id, client_id, created_at FROM asset_clients WHERE asset_id = ? AND client_id = ?`,
		assetID,
		clientID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.AssetID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) InsertClientLink(ctx context.Context, db *gorm.DB, link *domain.AssetClient) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO asset_clients (asset_id, client_id, created_at) VALUES (?, ?, ?)`,
		link.AssetID,
		link.ClientID,
		link.CreatedAt,
	).Error
}

func (r *repo) DeleteClientLink(ctx context.Context, db *gorm.DB, assetID, clientID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM asset_clients WHERE asset_id = ? AND client_id = ?`,
		assetID,
		clientID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListClientIDs(ctx context.Context, db *gorm.DB, assetID snowflake.ID) ([]snowflake.ID, error) {
	ids := []snowflake.ID{}
	err := db.WithContext(ctx).Raw(
		`SELECT client_id FROM asset_clients WHERE asset_id = ? ORDER BY created_at, client_id`,
		assetID,
	).Scan(&ids).Error
	return ids, err
}

// hydrate loads the payload matching the header's kind and the client links.
func (r *repo) hydrate(ctx context.Context, db *gorm.DB, asset *domain.Asset) error {
	var variant domain.Variant
	switch asset.Kind {
	case domain.KindHome:
		variant = &domain.Home{}
	case domain.KindVehicle:
		variant = &domain.Vehicle{}
	case domain.KindCondo:
		variant = &domain.Condo{}
	case domain.KindOther:
		variant = &domain.Other{}
	default:
		return fmt.Errorf("asset %s: %w", asset.ID, domain.ErrInvalidKind)
	}

	result := db.WithContext(ctx).Where("asset_id = ?", asset.ID).Limit(1).Find(variant)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("asset %s: %w", asset.ID, domain.ErrVariantMismatch)
	}
	asset.Attach(variant)

	ids, err := r.ListClientIDs(ctx, db, asset.ID)
	if err != nil {
		return err
	}
	asset.ClientIDs = ids
	return nil
}
