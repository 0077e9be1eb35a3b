package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/brokerage/internal/asset/domain"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/pkg/db/option"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"github.com/smallbiznis/brokerage/pkg/patch"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clientRepo clientdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("asset.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAssetRequest) (domain.Asset, error) {
	kind, err := domain.ParseKind(string(req.Kind))
	if err != nil {
		return domain.Asset{}, validation.New("kind", "invalid_value", "kind must be one of HOGAR, VEHICULO, COPROPIEDAD, OTRO")
	}

	variant, fields, err := newVariant(kind, req)
	if err != nil {
		return domain.Asset{}, err
	}
	if err := patch.Apply(variant, fields); err != nil {
		return domain.Asset{}, err
	}

	now := s.clock.Now().UTC()
	asset := domain.Asset{
		ID:        s.genID.Generate(),
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
		ClientIDs: []snowflake.ID{},
	}
	if err := patch.Apply(&asset, req.General); err != nil {
		return domain.Asset{}, err
	}
	asset.Attach(variant)
	normalizeVariant(variant)

	if err := validateAsset(&asset); err != nil {
		return domain.Asset{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &asset)
	})
	if err != nil {
		return domain.Asset{}, fmt.Errorf("insert asset: %w", err)
	}
	return asset, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateAssetRequest) (domain.Asset, error) {
	assetID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Asset{}, err
	}

	var updated domain.Asset
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := s.repo.FindByID(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return domain.ErrNotFound
		}

		if req.General != nil {
			if err := patch.Apply(asset, req.General); err != nil {
				return err
			}
		}
		fields, err := variantPatch(asset.Kind, req)
		if err != nil {
			return err
		}
		if fields != nil {
			if err := patch.Apply(asset.Variant(), fields); err != nil {
				return err
			}
		}
		normalizeVariant(asset.Variant())
		if err := validateAsset(asset); err != nil {
			return err
		}

		asset.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, asset); err != nil {
			return err
		}
		updated = *asset
		return nil
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	assetID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := s.repo.FindByID(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return domain.ErrNotFound
		}
		quotations, err := s.repo.CountQuotations(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if quotations > 0 {
			return domain.ErrHasQuotations
		}
		return s.repo.Delete(ctx, tx, asset)
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Asset, error) {
	assetID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Asset{}, err
	}
	asset, err := s.repo.FindByID(ctx, s.db, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	if asset == nil {
		return domain.Asset{}, domain.ErrNotFound
	}
	return *asset, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAssetRequest) (domain.ListAssetResponse, error) {
	var filter domain.ListAssetFilter
	if strings.TrimSpace(req.Kind) != "" {
		kind, err := domain.ParseKind(req.Kind)
		if err != nil {
			return domain.ListAssetResponse{}, validation.New("kind", "invalid_value", "unknown asset kind")
		}
		filter.Kind = kind
	}
	if strings.TrimSpace(req.ClientID) != "" {
		clientID, err := parseID(req.ClientID, clientdomain.ErrInvalidID)
		if err != nil {
			return domain.ListAssetResponse{}, err
		}
		filter.ClientID = clientID
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListAssetResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, option.PageSize(req.PageSize), func(a *domain.Asset) string {
		return a.ID.String()
	})

	assets := make([]domain.Asset, 0, len(items))
	for _, item := range items {
		assets = append(assets, *item)
	}
	return domain.ListAssetResponse{PageInfo: pageInfo, Assets: assets}, nil
}

// ListByClient returns every asset linked to the client, unpaginated.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]domain.Asset, error) {
	id, err := parseID(clientID, clientdomain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, clientdomain.ErrNotFound
	}

	assets := []domain.Asset{}
	page := pagination.Pagination{}
	for {
		items, err := s.repo.List(ctx, s.db, domain.ListAssetFilter{ClientID: id}, page)
		if err != nil {
			return nil, err
		}
		items, info := pagination.Trim(items, option.PageSize(0), func(a *domain.Asset) string {
			return a.ID.String()
		})
		for _, item := range items {
			assets = append(assets, *item)
		}
		if !info.HasMore {
			return assets, nil
		}
		page.PageToken = info.NextPageToken
	}
}

// AssignClient links a client to an asset. Assigning an existing link
// returns it unchanged.
func (s *Service) AssignClient(ctx context.Context, assetID, clientID string) (domain.AssetClient, error) {
	aID, err := parseID(assetID, domain.ErrInvalidID)
	if err != nil {
		return domain.AssetClient{}, err
	}
	cID, err := parseID(clientID, clientdomain.ErrInvalidID)
	if err != nil {
		return domain.AssetClient{}, err
	}

	var link domain.AssetClient
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := s.repo.FindByID(ctx, tx, aID)
		if err != nil {
			return err
		}
		if asset == nil {
			return domain.ErrNotFound
		}
		client, err := s.clientRepo.FindByID(ctx, tx, cID)
		if err != nil {
			return err
		}
		if client == nil {
			return clientdomain.ErrNotFound
		}

		existing, err := s.repo.FindClientLink(ctx, tx, aID, cID)
		if err != nil {
			return err
		}
		if existing != nil {
			link = *existing
			return nil
		}

		link = domain.AssetClient{AssetID: aID, ClientID: cID, CreatedAt: s.clock.Now().UTC()}
		return s.repo.InsertClientLink(ctx, tx, &link)
	})
	if err != nil {
		return domain.AssetClient{}, err
	}
	return link, nil
}

func (s *Service) UnassignClient(ctx context.Context, assetID, clientID string) error {
	aID, err := parseID(assetID, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	cID, err := parseID(clientID, clientdomain.ErrInvalidID)
	if err != nil {
		return err
	}

	removed, err := s.repo.DeleteClientLink(ctx, s.db, aID, cID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

// newVariant returns an empty payload for kind together with the request's
// patch for it. Supplying a patch for another kind is rejected.
func newVariant(kind domain.Kind, req domain.CreateAssetRequest) (domain.Variant, any, error) {
	fields, err := variantPatch(kind, domain.UpdateAssetRequest{
		Home:    req.Home,
		Vehicle: req.Vehicle,
		Condo:   req.Condo,
		Other:   req.Other,
	})
	if err != nil {
		return nil, nil, err
	}
	if fields == nil {
		return nil, nil, validation.Required(variantField(kind))
	}

	switch kind {
	case domain.KindHome:
		return &domain.Home{}, fields, nil
	case domain.KindVehicle:
		return &domain.Vehicle{}, fields, nil
	case domain.KindCondo:
		return &domain.Condo{}, fields, nil
	default:
		return &domain.Other{}, fields, nil
	}
}

func variantPatch(kind domain.Kind, req domain.UpdateAssetRequest) (any, error) {
	patches := map[domain.Kind]any{}
	if req.Home != nil {
		patches[domain.KindHome] = req.Home
	}
	if req.Vehicle != nil {
		patches[domain.KindVehicle] = req.Vehicle
	}
	if req.Condo != nil {
		patches[domain.KindCondo] = req.Condo
	}
	if req.Other != nil {
		patches[domain.KindOther] = req.Other
	}

	var v validation.Error
	for other := range patches {
		if other != kind {
			v.Add(variantField(other), "kind_mismatch", "fields do not belong to a "+string(kind)+" asset")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return patches[kind], nil
}

func variantField(kind domain.Kind) string {
	switch kind {
	case domain.KindHome:
		return "home"
	case domain.KindVehicle:
		return "vehicle"
	case domain.KindCondo:
		return "condo"
	default:
		return "other"
	}
}

func normalizeVariant(v domain.Variant) {
	switch p := v.(type) {
	case *domain.Home:
		p.Address = strings.TrimSpace(p.Address)
		p.City = strings.TrimSpace(p.City)
	case *domain.Vehicle:
		p.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p.Plate), " ", ""))
	case *domain.Condo:
		p.Address = strings.TrimSpace(p.Address)
		p.City = strings.TrimSpace(p.City)
	case *domain.Other:
		p.InsuredItem = strings.TrimSpace(p.InsuredItem)
	}
}

func validateAsset(asset *domain.Asset) error {
	if err := asset.Validate(); err != nil {
		return err
	}

	var v validation.Error
	switch p := asset.Variant().(type) {
	case *domain.Home:
		if p.Address == "" {
			v.Add("address", "required", "address is required")
		}
	case *domain.Vehicle:
		if p.Plate == "" {
			v.Add("plate", "required", "plate is required")
		}
	case *domain.Condo:
		if p.Address == "" {
			v.Add("address", "required", "address is required")
		}
	case *domain.Other:
		if p.InsuredItem == "" {
			v.Add("insured_item", "required", "insured_item is required")
		}
	}

	appraisals := asset.Appraisals()
	for _, field := range slices.Sorted(maps.Keys(appraisals)) {
		if value := appraisals[field]; value.Valid && value.Decimal.LessThan(decimal.Zero) {
			v.Add(field, "negative", field+" cannot be negative")
		}
	}
	return v.Err()
}
