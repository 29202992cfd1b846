package service

import (
	"context"
	"errors"
	"strings"

	"go-site-inventory/internal/model"
	"go-site-inventory/internal/repository"
	"go-site-inventory/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDuplicateSiteCode = errors.New("site code already exists")

type SiteService interface {
	Create(ctx context.Context, req *CreateSiteRequest, actor Actor) (*model.Site, error)
	List(ctx context.Context) ([]model.Site, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Site, error)
}

type CreateSiteRequest struct {
	Code     string `json:"code" validate:"required,max=20,alphanum"`
	Name     string `json:"name" validate:"required,max=255"`
	Location string `json:"location" validate:"max=255"`
}

type siteService struct {
	repo repository.SiteRepository
}

func NewSiteService(repo repository.SiteRepository) SiteService {
	return &siteService{repo: repo}
}

func (s *siteService) Create(ctx context.Context, req *CreateSiteRequest, actor Actor) (*model.Site, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, ErrDuplicateSiteCode
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	site := &model.Site{Code: req.Code, Name: req.Name, Location: strings.TrimSpace(req.Location)}
	site.CreatedBy = actor.ID
	site.UpdatedBy = actor.ID
	if err := s.repo.Create(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

func (s *siteService) List(ctx context.Context) ([]model.Site, error) {
	return s.repo.FindAll(ctx)
}

func (s *siteService) Get(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	return findSite(ctx, s.repo, id)
}
