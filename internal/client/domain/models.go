package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ClientType string

const (
	ClientTypeNatural   ClientType = "PERSONA_NATURAL"
	ClientTypeJuridical ClientType = "PERSONA_JURIDICA"
)

func (t ClientType) Valid() bool {
	return t == ClientTypeNatural || t == ClientTypeJuridical
}

// Client is a policyholder that assets can be assigned to. The document
// number is unique per document type.
type Client struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"not null" json:"name"`
	DocumentType   string       `gorm:"column:document_type;not null;uniqueIndex:ux_clients_document" json:"document_type"`
	DocumentNumber string       `gorm:"column:document_number;not null;uniqueIndex:ux_clients_document" json:"document_number"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	ClientType     ClientType   `gorm:"column:client_type;not null" json:"client_type"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }
