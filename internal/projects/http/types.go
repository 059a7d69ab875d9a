package http

import (
	"context"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/service"
)

// TemplateInstantiator copies a template into a freshly created project.
type TemplateInstantiator interface {
	FromTemplate(ctx context.Context, uid, projectID, templateID string) (*domain.FloorPlan, error)
}

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	projects  *service.ProjectService
	templates TemplateInstantiator
	// createPolicy governs the template copy that follows project creation.
	createPolicy apperr.Policy
}

// New builds the handler. templates may be nil, in which case a templateId on
// create is ignored.
func New(projects *service.ProjectService, templates TemplateInstantiator) *Handler {
	return &Handler{
		projects:     projects,
		templates:    templates,
		createPolicy: apperr.BestEffort,
	}
}
