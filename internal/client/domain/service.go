package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/brokerage/pkg/db/pagination"
)

type CreateClientRequest struct {
	Name           string     `json:"name"`
	DocumentType   string     `json:"document_type"`
	DocumentNumber string     `json:"document_number"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	ClientType     ClientType `json:"client_type"`
}

type ListClientRequest struct {
	PageToken      string
	PageSize       int
	Name           string
	DocumentNumber string
}

type ListClientFilter struct {
	Name           string
	DocumentNumber string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	GetByID(ctx context.Context, id string) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)
}

var (
	ErrInvalidID = errors.New("invalid_client_id")
	ErrNotFound  = errors.New("client_not_found")
)
