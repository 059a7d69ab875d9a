package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/auth"
	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
	"github.com/buildwise-ai/buildwise-backend/internal/floorplans/service"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n-plan-")

type fakeProjects struct {
	project *domain.Project
}

func (f *fakeProjects) Get(_ context.Context, uid, id string) (*domain.Project, error) {
	if id != f.project.ID {
		return nil, apperr.NotFound("project not found")
	}
	if uid != f.project.UserID {
		return nil, apperr.Forbidden("not the owner of this project")
	}
	cp := *f.project
	return &cp, nil
}

func (f *fakeProjects) AppendFloorPlan(_ context.Context, _ string, fp domain.FloorPlan) error {
	f.project.FloorPlans = append(f.project.FloorPlans, fp)
	return nil
}

type fakeEnhancer struct {
	opts  enhance.Options
	calls int
}

func (e *fakeEnhancer) Run(_ context.Context, image []byte, opts enhance.Options) (*enhance.Result, error) {
	e.calls++
	e.opts = opts
	return &enhance.Result{Image: image}, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Name() string { return "gemini" }

func (fakeGenerator) Generate(context.Context, string) (string, error) {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes), nil
}

type env struct {
	router   *gin.Engine
	projects *fakeProjects
	enhancer *fakeEnhancer
	heavy    int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apperr.UseJSONFieldNames()

	e := &env{
		projects: &fakeProjects{project: &domain.Project{ID: "bw-10000-1000", UserID: "owner"}},
		enhancer: &fakeEnhancer{},
	}
	svc := service.New(service.Deps{
		Projects:  e.projects,
		Images:    imagestore.New(imagestore.Options{PublicDir: t.TempDir()}),
		Enhancer:  e.enhancer,
		Generator: fakeGenerator{},
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-Uid"); uid != "" {
			auth.SetIdentity(c, uid, "")
		}
	})
	counter := func(c *gin.Context) { e.heavy++; c.Next() }
	New(svc, 1<<20).Register(r.Group("/projects"), counter)
	e.router = r
	return e
}

func (e *env) do(req *http.Request, uid string) *httptest.ResponseRecorder {
	if uid != "" {
		req.Header.Set("X-Test-Uid", uid)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartReq(t *testing.T, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "plan.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type errBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) errBody {
	t.Helper()
	var b errBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	return b
}

func TestGenerate(t *testing.T) {
	e := newEnv(t)

	rr := e.do(jsonReq(http.MethodPost, "/projects/bw-10000-1000/floor-plans/generate", `{"prompt":"two car garage"}`), "owner")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"generator":"gemini"`)
	assert.Equal(t, 1, e.heavy)
	require.Len(t, e.projects.project.FloorPlans, 1)
	assert.Contains(t, e.projects.project.FloorPlans[0].Prompt, "two car garage")
}

func TestEnhance(t *testing.T) {
	e := newEnv(t)

	req := multipartReq(t, "/projects/bw-10000-1000/floor-plans/enhance",
		map[string]string{"colorScheme": "Blueprint", "render3d": "true", "showLabels": "false", "dpi": "150"}, pngBytes)
	rr := e.do(req, "owner")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	assert.Equal(t, enhance.SchemeBlueprint, e.enhancer.opts.Scheme)
	assert.True(t, e.enhancer.opts.Capabilities.Has(enhance.Render3D))
	assert.True(t, e.enhancer.opts.Capabilities.Has(enhance.ExportData))
	assert.True(t, e.enhancer.opts.HideLabels)
	assert.False(t, e.enhancer.opts.HideDimensions)
	assert.Equal(t, 150, e.enhancer.opts.DPI)
	assert.Contains(t, rr.Body.String(), `"generator":"enhanced"`)
}

func TestEnhance_BadInput(t *testing.T) {
	cases := map[string]struct {
		fields map[string]string
		image  []byte
		field  string
	}{
		"no image":       {map[string]string{}, nil, "image"},
		"unknown scheme": {map[string]string{"colorScheme": "neon"}, pngBytes, "colorScheme"},
		"bad toggle":     {map[string]string{"render3d": "maybe"}, pngBytes, "render3d"},
		"bad dpi":        {map[string]string{"dpi": "9"}, pngBytes, "dpi"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			rr := e.do(multipartReq(t, "/projects/bw-10000-1000/floor-plans/enhance", tc.fields, tc.image), "owner")
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.field, decodeErr(t, rr).Field)
			assert.Empty(t, e.projects.project.FloorPlans)
		})
	}
}

func TestForeignProjectIsForbidden(t *testing.T) {
	e := newEnv(t)

	reqs := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/projects/bw-10000-1000/floor-plans", nil),
		jsonReq(http.MethodPost, "/projects/bw-10000-1000/floor-plans/generate", `{}`),
		multipartReq(t, "/projects/bw-10000-1000/floor-plans/enhance", nil, pngBytes),
		jsonReq(http.MethodPost, "/projects/bw-10000-1000/images", `{"source":"https://example.com/a.png"}`),
		jsonReq(http.MethodPost, "/projects/bw-10000-1000/floor-plans/from-template", `{}`),
		jsonReq(http.MethodPost, "/projects/bw-10000-1000/images", `{}`),
		multipartReq(t, "/projects/bw-10000-1000/floor-plans/enhance", nil, nil),
		multipartReq(t, "/projects/bw-10000-1000/floor-plans/enhance", map[string]string{"colorScheme": "neon"}, pngBytes),
		multipartReq(t, "/projects/bw-10000-1000/floor-plans/enhance", map[string]string{"dpi": "9"}, pngBytes),
	}
	for _, req := range reqs {
		rr := e.do(req, "intruder")
		assert.Equal(t, http.StatusForbidden, rr.Code, req.URL.Path)
	}
	assert.Empty(t, e.projects.project.FloorPlans)
	assert.Zero(t, e.heavy)
}

func TestUnknownProjectIsNotFoundBeforeValidation(t *testing.T) {
	e := newEnv(t)

	reqs := []*http.Request{
		jsonReq(http.MethodPost, "/projects/bw-99999-9999/floor-plans/from-template", `{}`),
		jsonReq(http.MethodPost, "/projects/bw-99999-9999/images", `{}`),
		multipartReq(t, "/projects/bw-99999-9999/floor-plans/enhance", nil, nil),
	}
	for _, req := range reqs {
		rr := e.do(req, "owner")
		assert.Equal(t, http.StatusNotFound, rr.Code, req.URL.Path)
	}
}

func TestEnhance_OversizedUpload(t *testing.T) {
	e := newEnv(t)

	big := append(append([]byte{}, pngBytes...), make([]byte, 3<<20)...)
	rr := e.do(multipartReq(t, "/projects/bw-10000-1000/floor-plans/enhance", nil, big), "owner")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "image", decodeErr(t, rr).Field)
	assert.Zero(t, e.enhancer.calls)
	assert.Empty(t, e.projects.project.FloorPlans)
}

func TestSaveImage(t *testing.T) {
	e := newEnv(t)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	rr := e.do(jsonReq(http.MethodPost, "/projects/bw-10000-1000/images", `{"source":"`+src+`","category":"3d-view"}`), "owner")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `/uploads/3d-views/bw-10000-1000/`)

	rr = e.do(jsonReq(http.MethodPost, "/projects/bw-10000-1000/images", `{"source":"`+src+`","category":"poster"}`), "owner")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "category", decodeErr(t, rr).Field)

	rr = e.do(jsonReq(http.MethodPost, "/projects/bw-10000-1000/images", `{"source":"file:///etc/passwd"}`), "owner")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFromTemplate_RequiresID(t *testing.T) {
	e := newEnv(t)

	rr := e.do(jsonReq(http.MethodPost, "/projects/bw-10000-1000/floor-plans/from-template", `{}`), "owner")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "templateId", decodeErr(t, rr).Field)
}

func TestGet_UnknownPlan(t *testing.T) {
	e := newEnv(t)
	rr := e.do(httptest.NewRequest(http.MethodGet, "/projects/bw-10000-1000/floor-plans/nope", nil), "owner")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
