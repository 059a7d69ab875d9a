package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
	"github.com/buildwise-ai/buildwise-backend/internal/generator"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/templates"
)

// Projects is the owner-checked project access floor plan use cases need.
type Projects interface {
	Get(ctx context.Context, uid, id string) (*domain.Project, error)
	AppendFloorPlan(ctx context.Context, projectID string, fp domain.FloorPlan) error
}

type Enhancer interface {
	Run(ctx context.Context, image []byte, opts enhance.Options) (*enhance.Result, error)
}

type Images interface {
	Save(ctx context.Context, source, projectID string, cat imagestore.Category) (*imagestore.Saved, error)
	SaveBytes(ctx context.Context, data []byte, contentType, projectID string, cat imagestore.Category) (*imagestore.Saved, error)
	Remove(publicURL string) error
}

type TemplateCopier interface {
	Copy(ctx context.Context, templateID, projectID string) (*templates.Metadata, error)
}

// Deps wires the collaborators. Generator defaults to generator.Disabled.
type Deps struct {
	Projects  Projects
	Images    Images
	Enhancer  Enhancer
	Generator generator.Generator
	Templates TemplateCopier
}

// Service runs the floor plan use cases: every new plan is persisted as an
// image first and then appended to its project.
type Service struct {
	projects  Projects
	images    Images
	enhancer  Enhancer
	gen       generator.Generator
	templates TemplateCopier
	now       func() time.Time
}

func New(d Deps) *Service {
	if d.Generator == nil {
		d.Generator = generator.Disabled{}
	}
	return &Service{
		projects:  d.Projects,
		images:    d.Images,
		enhancer:  d.Enhancer,
		gen:       d.Generator,
		templates: d.Templates,
		now:       time.Now,
	}
}

// Authorize fails with NotFound or Forbidden unless uid owns the project.
func (s *Service) Authorize(ctx context.Context, uid, projectID string) error {
	_, err := s.projects.Get(ctx, uid, projectID)
	return err
}

func (s *Service) List(ctx context.Context, uid, projectID string) ([]domain.FloorPlan, error) {
	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}
	if p.FloorPlans == nil {
		return []domain.FloorPlan{}, nil
	}
	return p.FloorPlans, nil
}

func (s *Service) Get(ctx context.Context, uid, projectID, planID string) (*domain.FloorPlan, error) {
	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}
	for i := range p.FloorPlans {
		if p.FloorPlans[i].ID == planID {
			return &p.FloorPlans[i], nil
		}
	}
	return nil, apperr.NotFound("floor plan not found")
}

// Generate asks the configured AI provider for a plan built from the project's
// data plus the caller's extra text.
func (s *Service) Generate(ctx context.Context, uid, projectID, extra string) (*domain.FloorPlan, error) {
	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}

	prompt := generator.BuildPrompt(promptInput(p, extra))
	src, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	saved, err := s.images.Save(ctx, src, p.ID, imagestore.CategoryFloorPlan)
	if err != nil {
		return nil, err
	}

	fp := s.newPlan(p, saved.URL, s.gen.Name())
	fp.Prompt = prompt
	fp.Dimensions = &domain.PlanDimensions{
		Width:  p.LandDimensions.Width,
		Length: p.LandDimensions.Length,
		Unit:   p.LandDimensions.Unit,
	}
	fp.TotalArea = p.LandDimensions.TotalArea
	return s.append(ctx, fp, saved.URL)
}

// Enhance runs the external processing tool on an uploaded image.
func (s *Service) Enhance(ctx context.Context, uid, projectID string, image []byte, opts enhance.Options) (*domain.FloorPlan, error) {
	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}
	if s.enhancer == nil {
		return nil, apperr.New(apperr.KindDependencyMissing, "floor plan enhancement is not configured")
	}

	res, err := s.enhancer.Run(ctx, image, opts)
	if err != nil {
		return nil, err
	}

	saved, err := s.images.SaveBytes(ctx, res.Image, http.DetectContentType(res.Image), p.ID, imagestore.CategoryFloorPlan)
	if err != nil {
		return nil, err
	}

	fp := s.newPlan(p, saved.URL, domain.GeneratorEnhanced)
	fp.ColorScheme = string(opts.Scheme)
	written := []string{saved.URL}

	if len(res.View3D) > 0 {
		view, err := s.images.SaveBytes(ctx, res.View3D, http.DetectContentType(res.View3D), p.ID, imagestore.Category3DView)
		if err != nil {
			s.discard(ctx, written...)
			return nil, err
		}
		fp.View3DURL = view.URL
		written = append(written, view.URL)
	}
	if res.Data != nil {
		applyPlanData(&fp, res.Data)
	}
	return s.append(ctx, fp, written...)
}

// FromTemplate copies a template into the project and records it as a plan.
func (s *Service) FromTemplate(ctx context.Context, uid, projectID, templateID string) (*domain.FloorPlan, error) {
	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, apperr.MissingField("templateId")
	}
	if s.templates == nil {
		return nil, &apperr.Error{Kind: apperr.KindTemplateNotFound, Message: "template " + templateID + " not found"}
	}

	md, err := s.templates.Copy(ctx, templateID, p.ID)
	if err != nil {
		return nil, err
	}

	fp := s.newPlan(p, md.ImageURL, domain.GeneratorTemplate)
	fp.TemplateID = templateID
	if md.Dimensions.Width > 0 || md.Dimensions.Length > 0 {
		fp.Dimensions = &domain.PlanDimensions{
			Width:  md.Dimensions.Width,
			Length: md.Dimensions.Length,
			Unit:   md.Dimensions.Unit,
		}
		fp.TotalArea = md.Dimensions.Width * md.Dimensions.Length
	}
	return s.append(ctx, fp, md.ImageURL)
}

// SaveImage persists a client-supplied image under the project without
// creating a floor plan.
func (s *Service) SaveImage(ctx context.Context, uid, projectID, source string, cat imagestore.Category) (*imagestore.Saved, error) {
	p, err := s.projects.Get(ctx, uid, projectID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, apperr.MissingField("source")
	}
	return s.images.Save(ctx, source, p.ID, cat)
}

func (s *Service) newPlan(p *domain.Project, imageURL, gen string) domain.FloorPlan {
	return domain.FloorPlan{
		ID:        uuid.NewString(),
		ProjectID: p.ID,
		UserID:    p.UserID,
		ImageURL:  imageURL,
		Generator: gen,
		CreatedAt: s.now().UTC(),
	}
}

// append records fp on its project. On failure the images listed in written
// are removed so no file is left without a plan.
func (s *Service) append(ctx context.Context, fp domain.FloorPlan, written ...string) (*domain.FloorPlan, error) {
	if err := s.projects.AppendFloorPlan(ctx, fp.ProjectID, fp); err != nil {
		s.discard(ctx, written...)
		return nil, err
	}
	logging.FromContext(ctx).Info("floor plan added",
		"project_id", fp.ProjectID, "floor_plan_id", fp.ID, "generator", fp.Generator)
	return &fp, nil
}

func (s *Service) discard(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if err := s.images.Remove(u); err != nil {
			logging.FromContext(ctx).Warn("orphaned image not removed", "url", u, "error", err)
		}
	}
}

func promptInput(p *domain.Project, extra string) generator.PromptInput {
	return generator.PromptInput{
		Length:    p.LandDimensions.Length,
		Width:     p.LandDimensions.Width,
		Unit:      p.LandDimensions.Unit,
		Bedrooms:  p.Preferences.Bedrooms,
		Bathrooms: p.Preferences.Bathrooms,
		Kitchens:  p.Preferences.Kitchens,
		Floors:    p.Preferences.Floors,
		Style:     p.Preferences.Style,
		Rooms:     p.Preferences.Rooms,
		Budget:    p.Budget.Amount,
		Currency:  p.Budget.Currency,
		City:      p.Location.City,
		Country:   p.Location.Country,
		Extra:     extra,
	}
}

func applyPlanData(fp *domain.FloorPlan, data *enhance.PlanData) {
	for _, r := range data.Rooms {
		fp.Rooms = append(fp.Rooms, domain.PlanRoom{
			Name:   r.Name,
			Type:   r.Type,
			Width:  r.Width,
			Length: r.Length,
			Area:   r.Area,
		})
	}
	if data.Dimensions != nil {
		fp.Dimensions = &domain.PlanDimensions{
			Width:  data.Dimensions.Width,
			Length: data.Dimensions.Length,
			Unit:   data.Dimensions.Unit,
		}
	}
	fp.TotalArea = data.TotalArea
}
