package repository

import (
	"context"

	"github.com/buildwise-ai/buildwise-backend/internal/users/domain"
)

// Repository persists user profiles. Implementations return domain.ErrNotFound
// for unknown users.
type Repository interface {
	Get(ctx context.Context, uid string) (*domain.User, error)
	// Sync inserts the user with role "user" or refreshes identity fields and
	// the last login time of an existing one. The role is never changed here.
	// An email held by another identity yields domain.ErrEmailTaken.
	Sync(ctx context.Context, req domain.SyncRequest) (*domain.User, error)
	Update(ctx context.Context, uid string, req domain.UpdateRequest) (*domain.User, error)
	// SetRoleByEmail updates the single user holding email and reports
	// whether one existed.
	SetRoleByEmail(ctx context.Context, email, role string) (bool, error)
}
