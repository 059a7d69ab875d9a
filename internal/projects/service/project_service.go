package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/repository"
)

const (
	DefaultUnit     = "ft"
	DefaultCurrency = "USD"

	maxIDAttempts = 5
)

// CreateInput carries a new project's fields as submitted by the owner.
type CreateInput struct {
	Name           string
	Description    string
	LandDimensions domain.LandDimensions
	Budget         domain.Budget
	Location       domain.Location
	Preferences    domain.Preferences
}

// ProjectService handles project business logic and ownership checks.
type ProjectService struct {
	repo  repository.Repository
	now   func() time.Time
	newID func() (string, error)
}

func NewProjectService(repo repository.Repository) *ProjectService {
	return &ProjectService{
		repo: repo,
		now:  time.Now,
		newID: func() (string, error) {
			return domain.NewPublicID(domain.PublicIDPrefix)
		},
	}
}

// Create validates and stores a new project owned by uid. A public id that
// collides with an existing one is regenerated.
func (s *ProjectService) Create(ctx context.Context, uid string, in CreateInput) (*domain.Project, error) {
	if uid == "" {
		return nil, apperr.Unauthorized("user not authenticated")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.MissingField("name")
	}
	if in.LandDimensions.Length <= 0 {
		return nil, apperr.BadRequest("landDimensions.length", "landDimensions.length must be greater than 0")
	}
	if in.LandDimensions.Width <= 0 {
		return nil, apperr.BadRequest("landDimensions.width", "landDimensions.width must be greater than 0")
	}

	land := in.LandDimensions.WithArea()
	if land.Unit == "" {
		land.Unit = DefaultUnit
	}
	budget := in.Budget
	if budget.Currency == "" {
		budget.Currency = DefaultCurrency
	}

	now := s.now().UTC()
	p := &domain.Project{
		UserID:         uid,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		LandDimensions: land,
		Budget:         budget,
		Location:       in.Location,
		Preferences:    in.Preferences,
		Status:         domain.StatusPlanning,
		FloorPlans:     []domain.FloorPlan{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		p.ID = id

		err = s.repo.Create(ctx, p)
		if err == nil {
			logging.FromContext(ctx).Info("project created", "project_id", p.ID, "user_id", uid)
			return p, nil
		}
		if !errors.Is(err, domain.ErrDuplicateID) {
			return nil, apperr.Internal(err)
		}
	}
	return nil, apperr.Internal(errors.New("could not allocate a unique project id"))
}

// List returns uid's projects, newest first.
func (s *ProjectService) List(ctx context.Context, uid string) ([]domain.Project, error) {
	if uid == "" {
		return nil, apperr.Unauthorized("user not authenticated")
	}
	items, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

// Get loads a project and checks that uid owns it.
func (s *ProjectService) Get(ctx context.Context, uid, id string) (*domain.Project, error) {
	if uid == "" {
		return nil, apperr.Unauthorized("user not authenticated")
	}
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p.UserID != uid {
		return nil, apperr.Forbidden("not the owner of this project")
	}
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, uid, id string, patch domain.Patch) (*domain.Project, error) {
	current, err := s.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.BadRequest("name", "name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.BadRequest("status", "status must be one of: Planning, In Progress, Completed")
	}
	if patch.Budget != nil && patch.Budget.Currency == "" {
		b := *patch.Budget
		b.Currency = DefaultCurrency
		patch.Budget = &b
	}
	if patch.Empty() {
		return current, nil
	}

	p, err := s.repo.Update(ctx, id, patch)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, uid, id string) error {
	if _, err := s.Get(ctx, uid, id); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("project not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	logging.FromContext(ctx).Info("project deleted", "project_id", id, "user_id", uid)
	return nil
}

// AppendFloorPlan adds fp to the project's floor-plan list. Ownership must
// already have been checked through Get.
func (s *ProjectService) AppendFloorPlan(ctx context.Context, projectID string, fp domain.FloorPlan) error {
	err := s.repo.AppendFloorPlan(ctx, projectID, fp)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("project not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
