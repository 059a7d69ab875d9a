package service

import (
	"context"
	"errors"
	"strings"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/users/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/users/repository"
)

type UserService struct {
	repo repository.Repository
}

func NewUserService(repo repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// Get returns the caller's profile.
func (s *UserService) Get(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Sync creates or refreshes the profile of a signed-in identity. The email is
// the token's verified email claim, or a placeholder derived from the uid.
func (s *UserService) Sync(ctx context.Context, req domain.SyncRequest) (*domain.User, error) {
	if strings.TrimSpace(req.FirebaseUID) == "" {
		return nil, apperr.Unauthorized("user not authenticated")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		req.Email = req.FirebaseUID + domain.PlaceholderDomain
	}

	u, err := s.repo.Sync(ctx, req)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, apperr.Conflict("email is already linked to another account")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, uid string, req domain.UpdateRequest) (*domain.User, error) {
	u, err := s.repo.Update(ctx, uid, req)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// RoleOf returns the stored role of uid, or "" for an unsynced identity.
func (s *UserService) RoleOf(ctx context.Context, uid string) (string, error) {
	u, err := s.repo.Get(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// PromoteByEmail grants the admin role to the user registered with email.
func (s *UserService) PromoteByEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.HasSuffix(email, domain.PlaceholderDomain) {
		return apperr.NotFound("no synced user with email " + email)
	}
	ok, err := s.repo.SetRoleByEmail(ctx, email, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("no synced user with email " + email)
	}
	return nil
}
