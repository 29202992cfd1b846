package repository

import (
	"context"

	"go-site-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SiteRepository interface {
	Create(ctx context.Context, site *model.Site) error
	FindAll(ctx context.Context) ([]model.Site, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Site, error)
	FindByCode(ctx context.Context, code string) (*model.Site, error)
}

type siteRepo struct {
	db *gorm.DB
}

func NewSiteRepo(db *gorm.DB) SiteRepository {
	return &siteRepo{db}
}

func (r *siteRepo) Create(ctx context.Context, site *model.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}

func (r *siteRepo) FindAll(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	err := r.db.WithContext(ctx).Order("code ASC").Find(&sites).Error
	return sites, err
}

func (r *siteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	var site model.Site
	if err := r.db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *siteRepo) FindByCode(ctx context.Context, code string) (*model.Site, error) {
	var site model.Site
	if err := r.db.WithContext(ctx).First(&site, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &site, nil
}
