package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/pkg/db/option"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateClientRequest) (domain.Client, error) {
	var v validation.Error
	name := strings.TrimSpace(req.Name)
	if name == "" {
		v.Add("name", "required", "name is required")
	}
	docType := strings.ToUpper(strings.TrimSpace(req.DocumentType))
	if docType == "" {
		v.Add("document_type", "required", "document_type is required")
	}
	docNumber := strings.TrimSpace(req.DocumentNumber)
	if docNumber == "" {
		v.Add("document_number", "required", "document_number is required")
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			v.Add("email", "invalid_format", "email is not a valid address")
		}
	}
	clientType := req.ClientType
	if clientType == "" {
		clientType = domain.ClientTypeNatural
	}
	if !clientType.Valid() {
		v.Add("client_type", "invalid_value", "client_type must be PERSONA_NATURAL or PERSONA_JURIDICA")
	}
	if err := v.Err(); err != nil {
		return domain.Client{}, err
	}

	now := s.clock.Now().UTC()
	client := domain.Client{
		ID:             s.genID.Generate(),
		Name:           name,
		DocumentType:   docType,
		DocumentNumber: docNumber,
		Email:          email,
		Phone:          strings.TrimSpace(req.Phone),
		ClientType:     clientType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return client, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Client, error) {
	clientID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || clientID == 0 {
		return domain.Client{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	filter := domain.ListClientFilter{
		Name:           strings.ToLower(strings.TrimSpace(req.Name)),
		DocumentNumber: strings.TrimSpace(req.DocumentNumber),
	}
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, option.PageSize(req.PageSize), func(c *domain.Client) string {
		return c.ID.String()
	})

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		clients = append(clients, *item)
	}
	return domain.ListClientResponse{PageInfo: pageInfo, Clients: clients}, nil
}
