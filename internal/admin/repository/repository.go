package repository

import (
	"context"
	"time"

	"github.com/buildwise-ai/buildwise-backend/internal/admin/domain"
)

type Repository interface {
	// Create fails with domain.ErrDuplicatePending when the email already has
	// a pending request.
	Create(ctx context.Context, req *domain.Request) error
	// Decide moves the request with token from pending to status in a single
	// conditional write. A request that is no longer pending yields
	// domain.ErrAlreadyProcessed and is left unchanged.
	Decide(ctx context.Context, token string, status domain.Status, at time.Time) (*domain.Request, error)
	List(ctx context.Context, status domain.Status) ([]domain.Request, error)
}
