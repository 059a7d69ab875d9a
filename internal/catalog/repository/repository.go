package repository

import (
	"context"

	"github.com/buildwise-ai/buildwise-backend/internal/catalog/domain"
)

// Repository is the read side of the catalog plus the seed upsert. Filters are
// exact, case-insensitive matches; an empty filter lists everything.
type Repository interface {
	ListDesigners(ctx context.Context, specialty string) ([]domain.Designer, error)
	GetDesigner(ctx context.Context, id string) (*domain.Designer, error)
	ListMaterials(ctx context.Context, category string) ([]domain.Material, error)
	GetMaterial(ctx context.Context, id string) (*domain.Material, error)
	ListRegions(ctx context.Context, country string) ([]domain.Region, error)
	GetRegion(ctx context.Context, id string) (*domain.Region, error)

	Upsert(ctx context.Context, seed domain.Seed) (domain.SeedResult, error)
}
