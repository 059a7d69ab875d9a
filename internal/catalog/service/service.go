package service

import (
	"context"
	"errors"
	"strings"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/catalog/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/catalog/repository"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
)

type CatalogService struct {
	repo repository.Repository
}

func NewCatalogService(repo repository.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) Designers(ctx context.Context, specialty string) ([]domain.Designer, error) {
	items, err := s.repo.ListDesigners(ctx, strings.TrimSpace(specialty))
	return items, internal(err)
}

func (s *CatalogService) Designer(ctx context.Context, id string) (*domain.Designer, error) {
	d, err := s.repo.GetDesigner(ctx, id)
	return d, notFound(err, "designer not found")
}

func (s *CatalogService) Materials(ctx context.Context, category string) ([]domain.Material, error) {
	items, err := s.repo.ListMaterials(ctx, strings.TrimSpace(category))
	return items, internal(err)
}

func (s *CatalogService) Material(ctx context.Context, id string) (*domain.Material, error) {
	m, err := s.repo.GetMaterial(ctx, id)
	return m, notFound(err, "material not found")
}

func (s *CatalogService) Regions(ctx context.Context, country string) ([]domain.Region, error) {
	items, err := s.repo.ListRegions(ctx, strings.TrimSpace(country))
	return items, internal(err)
}

func (s *CatalogService) Region(ctx context.Context, id string) (*domain.Region, error) {
	g, err := s.repo.GetRegion(ctx, id)
	return g, notFound(err, "region not found")
}

// Seed upserts every entry of seed by id.
func (s *CatalogService) Seed(ctx context.Context, seed domain.Seed) (domain.SeedResult, error) {
	res, err := s.repo.Upsert(ctx, seed)
	if err != nil {
		return res, apperr.Internal(err)
	}
	logging.FromContext(ctx).Info("catalog seeded",
		"designers", res.Designers, "materials", res.Materials, "regions", res.Regions)
	return res, nil
}

func internal(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Internal(err)
}

func notFound(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return internal(err)
}
