package service

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
	"github.com/buildwise-ai/buildwise-backend/internal/generator"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/templates"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n-floor-plan-")

type fakeProjects struct {
	projects  map[string]*domain.Project
	appendErr error
}

func (f *fakeProjects) Get(_ context.Context, uid, id string) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperr.NotFound("project not found")
	}
	if p.UserID != uid {
		return nil, apperr.Forbidden("not the owner of this project")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) AppendFloorPlan(_ context.Context, id string, fp domain.FloorPlan) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	p, ok := f.projects[id]
	if !ok {
		return apperr.NotFound("project not found")
	}
	p.FloorPlans = append(p.FloorPlans, fp)
	return nil
}

type fakeGenerator struct {
	prompt string
}

func (g *fakeGenerator) Name() string { return "openai" }

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes), nil
}

type fakeEnhancer struct {
	calls int
	opts  enhance.Options
	res   *enhance.Result
	err   error
}

func (e *fakeEnhancer) Run(_ context.Context, _ []byte, opts enhance.Options) (*enhance.Result, error) {
	e.calls++
	e.opts = opts
	return e.res, e.err
}

type fakeTemplates struct{}

func (fakeTemplates) Copy(_ context.Context, templateID, projectID string) (*templates.Metadata, error) {
	if templateID != "modern-3bed" {
		return nil, &apperr.Error{Kind: apperr.KindTemplateNotFound, Message: "template " + templateID + " not found"}
	}
	return &templates.Metadata{
		ProjectID:        projectID,
		ImageURL:         "/uploads/floor-plans/" + projectID + "/copy.png",
		Dimensions:       templates.Dimensions{Width: 30, Length: 40, Unit: "ft"},
		SourceTemplateID: templateID,
	}, nil
}

type fixture struct {
	svc      *Service
	projects *fakeProjects
	gen      *fakeGenerator
	enhancer *fakeEnhancer
	public   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	public := t.TempDir()
	projects := &fakeProjects{projects: map[string]*domain.Project{
		"bw-10000-1000": {
			ID:             "bw-10000-1000",
			UserID:         "owner",
			LandDimensions: domain.LandDimensions{Length: 60, Width: 40, Unit: "ft", TotalArea: 2400},
			Preferences:    domain.Preferences{Bedrooms: 3, Bathrooms: 2},
		},
	}}
	gen := &fakeGenerator{}
	enh := &fakeEnhancer{}
	svc := New(Deps{
		Projects:  projects,
		Images:    imagestore.New(imagestore.Options{PublicDir: public}),
		Enhancer:  enh,
		Generator: gen,
		Templates: fakeTemplates{},
	})
	return &fixture{svc: svc, projects: projects, gen: gen, enhancer: enh, public: public}
}

func (f *fixture) plans() []domain.FloorPlan {
	return f.projects.projects["bw-10000-1000"].FloorPlans
}

func (f *fixture) fileFor(t *testing.T, url string) []byte {
	t.Helper()
	rel := strings.TrimPrefix(url, "/uploads/")
	b, err := os.ReadFile(filepath.Join(f.public, "uploads", filepath.FromSlash(rel)))
	require.NoError(t, err)
	return b
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)

	fp, err := f.svc.Generate(context.Background(), "owner", "bw-10000-1000", "Open kitchen.")
	require.NoError(t, err)

	assert.Equal(t, "openai", fp.Generator)
	assert.Contains(t, f.gen.prompt, "60 x 40 ft")
	assert.Contains(t, f.gen.prompt, "Open kitchen.")
	assert.Equal(t, f.gen.prompt, fp.Prompt)
	assert.Equal(t, 2400.0, fp.TotalArea)
	assert.True(t, strings.HasPrefix(fp.ImageURL, "/uploads/floor-plans/bw-10000-1000/"))
	assert.Equal(t, pngBytes, f.fileFor(t, fp.ImageURL))

	require.Len(t, f.plans(), 1)
	assert.Equal(t, fp.ID, f.plans()[0].ID)
}

func TestGenerate_DisabledProvider(t *testing.T) {
	f := newFixture(t)
	f.svc.gen = generator.Disabled{}

	_, err := f.svc.Generate(context.Background(), "owner", "bw-10000-1000", "")
	assert.True(t, errors.Is(err, apperr.ErrDependencyMissing))
	assert.Empty(t, f.plans())
}

func TestEnhance(t *testing.T) {
	f := newFixture(t)
	view := []byte("\x89PNG\r\n\x1a\n-3d-")
	f.enhancer.res = &enhance.Result{
		Image:  pngBytes,
		View3D: view,
		Data: &enhance.PlanData{
			Rooms:      []enhance.Room{{Name: "Kitchen", Width: 10, Length: 12, Area: 120}},
			Dimensions: &enhance.Dimensions{Width: 40, Length: 60, Unit: "ft"},
			TotalArea:  2400,
		},
	}

	opts := enhance.Options{Scheme: enhance.SchemeBlueprint, Capabilities: enhance.Render3D | enhance.ExportData}
	fp, err := f.svc.Enhance(context.Background(), "owner", "bw-10000-1000", []byte("raw"), opts)
	require.NoError(t, err)

	assert.Equal(t, domain.GeneratorEnhanced, fp.Generator)
	assert.Equal(t, "blueprint", fp.ColorScheme)
	require.Len(t, fp.Rooms, 1)
	assert.Equal(t, "Kitchen", fp.Rooms[0].Name)
	require.NotNil(t, fp.Dimensions)
	assert.Equal(t, 60.0, fp.Dimensions.Length)
	assert.Equal(t, 2400.0, fp.TotalArea)

	assert.True(t, strings.HasPrefix(fp.View3DURL, "/uploads/3d-views/bw-10000-1000/"))
	assert.Equal(t, view, f.fileFor(t, fp.View3DURL))
	assert.Equal(t, pngBytes, f.fileFor(t, fp.ImageURL))
	assert.Len(t, f.plans(), 1)
}

func TestEnhance_ForeignProjectNeverRunsTool(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Enhance(context.Background(), "intruder", "bw-10000-1000", []byte("raw"), enhance.Options{})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Zero(t, f.enhancer.calls)
}

func TestEnhance_ToolFailureAppendsNothing(t *testing.T) {
	f := newFixture(t)
	f.enhancer.err = apperr.New(apperr.KindProcessingFailed, "floor plan processor exited with status 1")

	_, err := f.svc.Enhance(context.Background(), "owner", "bw-10000-1000", []byte("raw"), enhance.Options{})
	assert.True(t, errors.Is(err, apperr.ErrProcessingFailed))
	assert.Empty(t, f.plans())
}

func TestEnhance_AppendFailureRemovesWrittenImages(t *testing.T) {
	f := newFixture(t)
	f.projects.appendErr = apperr.Internal(errors.New("store unavailable"))
	f.enhancer.res = &enhance.Result{Image: pngBytes, View3D: []byte("\x89PNG\r\n\x1a\n-3d-")}

	_, err := f.svc.Enhance(context.Background(), "owner", "bw-10000-1000", []byte("raw"), enhance.Options{Capabilities: enhance.Render3D})
	require.Error(t, err)

	for _, dir := range []string{"floor-plans", "3d-views"} {
		entries, err := os.ReadDir(filepath.Join(f.public, "uploads", dir, "bw-10000-1000"))
		if err == nil {
			assert.Empty(t, entries, dir)
		}
	}
}

func TestGenerate_AppendFailureRemovesImage(t *testing.T) {
	f := newFixture(t)
	f.projects.appendErr = apperr.Internal(errors.New("store unavailable"))

	_, err := f.svc.Generate(context.Background(), "owner", "bw-10000-1000", "")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(f.public, "uploads", "floor-plans", "bw-10000-1000"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestForeignProjectCheckedBeforeFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.FromTemplate(ctx, "intruder", "bw-10000-1000", "")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = f.svc.SaveImage(ctx, "intruder", "bw-10000-1000", "", imagestore.CategoryMaterial)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.True(t, errors.Is(f.svc.Authorize(ctx, "intruder", "bw-10000-1000"), apperr.ErrForbidden))
	assert.True(t, errors.Is(f.svc.Authorize(ctx, "owner", "bw-99999-9999"), apperr.ErrNotFound))
	assert.NoError(t, f.svc.Authorize(ctx, "owner", "bw-10000-1000"))
}

func TestFromTemplate(t *testing.T) {
	f := newFixture(t)

	fp, err := f.svc.FromTemplate(context.Background(), "owner", "bw-10000-1000", "modern-3bed")
	require.NoError(t, err)
	assert.Equal(t, domain.GeneratorTemplate, fp.Generator)
	assert.Equal(t, "modern-3bed", fp.TemplateID)
	assert.Equal(t, 1200.0, fp.TotalArea)
	assert.Len(t, f.plans(), 1)

	_, err = f.svc.FromTemplate(context.Background(), "owner", "bw-10000-1000", "missing")
	assert.True(t, errors.Is(err, apperr.ErrTemplateNotFound))
	assert.Len(t, f.plans(), 1)

	_, err = f.svc.FromTemplate(context.Background(), "owner", "bw-10000-1000", " ")
	assert.Equal(t, "templateId", apperr.As(err).Field)
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plans, err := f.svc.List(ctx, "owner", "bw-10000-1000")
	require.NoError(t, err)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)

	fp, err := f.svc.FromTemplate(ctx, "owner", "bw-10000-1000", "modern-3bed")
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, "owner", "bw-10000-1000", fp.ID)
	require.NoError(t, err)
	assert.Equal(t, fp.ImageURL, got.ImageURL)

	_, err = f.svc.Get(ctx, "owner", "bw-10000-1000", "nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.svc.List(ctx, "intruder", "bw-10000-1000")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestSaveImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	saved, err := f.svc.SaveImage(ctx, "owner", "bw-10000-1000", src, imagestore.CategoryMaterial)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.URL, "/uploads/materials/bw-10000-1000/"))
	assert.Empty(t, f.plans())

	_, err = f.svc.SaveImage(ctx, "owner", "bw-10000-1000", "ftp://example.com/a.png", imagestore.CategoryMaterial)
	assert.True(t, errors.Is(err, apperr.ErrFormat))
}
