package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/brokerage/pkg/db/pagination"
)

type CreateAssetRequest struct {
	Kind    Kind           `json:"kind"`
	General GeneralFields  `json:"general"`
	Home    *HomeFields    `json:"home,omitempty"`
	Vehicle *VehicleFields `json:"vehicle,omitempty"`
	Condo   *CondoFields   `json:"condo,omitempty"`
	Other   *OtherFields   `json:"other,omitempty"`
}

// UpdateAssetRequest merges only the supplied fields. The variant patch must
// match the asset's kind.
type UpdateAssetRequest struct {
	General *GeneralFields `json:"general,omitempty"`
	Home    *HomeFields    `json:"home,omitempty"`
	Vehicle *VehicleFields `json:"vehicle,omitempty"`
	Condo   *CondoFields   `json:"condo,omitempty"`
	Other   *OtherFields   `json:"other,omitempty"`
}

type ListAssetRequest struct {
	PageToken string
	PageSize  int
	Kind      string
	ClientID  string
}

type ListAssetResponse struct {
	pagination.PageInfo
	Assets []Asset `json:"assets"`
}

type Service interface {
	Create(context.Context, CreateAssetRequest) (Asset, error)
	Update(ctx context.Context, id string, req UpdateAssetRequest) (Asset, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Asset, error)
	List(context.Context, ListAssetRequest) (ListAssetResponse, error)
	ListByClient(ctx context.Context, clientID string) ([]Asset, error)

	AssignClient(ctx context.Context, assetID, clientID string) (AssetClient, error)
	UnassignClient(ctx context.Context, assetID, clientID string) error
}

var (
	ErrInvalidID       = errors.New("invalid_asset_id")
	ErrNotFound        = errors.New("asset_not_found")
	ErrVariantMismatch = errors.New("asset_variant_mismatch")
	ErrHasQuotations   = errors.New("asset_has_quotations")
	ErrLinkNotFound    = errors.New("asset_client_link_not_found")
)
