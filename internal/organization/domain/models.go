// Package domain holds the tenant anchor every billing record hangs off.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Organization struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Slug      string       `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_organizations_slug"`
	Country   string       `json:"country" gorm:"type:text;not null"`
	Currency  string       `json:"currency" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Organization) TableName() string { return "organizations" }

type Repository interface {
	Insert(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context) ([]Organization, error)
}

type CreateRequest struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

type Response struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrSlugTaken   = errors.New("slug_taken")
	ErrNotFound    = errors.New("not_found")
)
