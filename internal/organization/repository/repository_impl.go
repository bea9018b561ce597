package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldrate/internal/organization/domain"
	dbpkg "github.com/smallbiznis/fieldrate/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "slug = ?", slug).Error
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) List(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	if err := r.db.WithContext(ctx).Order("id").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}
