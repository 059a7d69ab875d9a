package repository

import (
	"context"

	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
)

// Repository persists projects with their embedded floor plans. Lookups are by
// id only; ownership is decided by the service. Implementations return
// domain.ErrNotFound for unknown ids and domain.ErrDuplicateID when Create
// hits an existing id.
type Repository interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id string) (*domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Project, error)
	Update(ctx context.Context, id string, patch domain.Patch) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
	// AppendFloorPlan adds fp to the project's list in a single atomic write.
	AppendFloorPlan(ctx context.Context, projectID string, fp domain.FloorPlan) error
}
