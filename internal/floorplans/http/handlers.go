package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/auth"
	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
	"github.com/buildwise-ai/buildwise-backend/internal/floorplans/service"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
)

const (
	defaultMaxUpload = 20 << 20
	// formOverhead leaves room for the form fields next to the image part.
	formOverhead    = 1 << 20
	multipartMemory = 8 << 20
)

type Handler struct {
	svc       *service.Service
	maxUpload int64
}

// New builds the handler; maxUpload caps the enhance upload in bytes.
func New(svc *service.Service, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Handler{svc: svc, maxUpload: maxUpload}
}

// Register mounts the routes under a projects group. heavy runs in front of
// the endpoints that call out to AI providers or the processing tool. Write
// routes check project ownership before reading the request body.
func (h *Handler) Register(rg *gin.RouterGroup, heavy ...gin.HandlerFunc) {
	rg.GET("/:id/floor-plans", h.list)
	rg.GET("/:id/floor-plans/:planId", h.get)
	rg.POST("/:id/floor-plans/generate", chain(h.requireOwner, heavy, h.generate)...)
	rg.POST("/:id/floor-plans/enhance", chain(h.requireOwner, heavy, h.enhance)...)
	rg.POST("/:id/floor-plans/from-template", h.requireOwner, h.fromTemplate)
	rg.POST("/:id/images", h.requireOwner, h.saveImage)
}

func chain(first gin.HandlerFunc, mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+2)
	out = append(out, first)
	return append(append(out, mw...), h)
}

// requireOwner answers 404 or 403 for a project the caller cannot write.
func (h *Handler) requireOwner(c *gin.Context) {
	if err := h.svc.Authorize(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		apperr.Write(c, err)
		return
	}
	c.Next()
}

func (h *Handler) list(c *gin.Context) {
	plans, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "floorPlans": plans})
}

func (h *Handler) get(c *gin.Context) {
	fp, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("planId"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "floorPlan": fp})
}

type generateReq struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Write(c, apperr.FromBind(err))
			return
		}
	}

	fp, err := h.svc.Generate(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Prompt)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "floorPlan": fp})
}

func (h *Handler) enhance(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+formOverhead)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apperr.Write(c, h.uploadTooLarge())
			return
		}
		apperr.Write(c, apperr.MissingField("image"))
		return
	}

	opts, err := enhanceOptions(c)
	if err != nil {
		apperr.Write(c, err)
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		apperr.Write(c, apperr.MissingField("image"))
		return
	}
	if fh.Size > h.maxUpload {
		apperr.Write(c, h.uploadTooLarge())
		return
	}
	f, err := fh.Open()
	if err != nil {
		apperr.Write(c, apperr.Wrap(apperr.KindIO, err, "open uploaded image"))
		return
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, h.maxUpload))
	if err != nil {
		apperr.Write(c, apperr.Wrap(apperr.KindIO, err, "read uploaded image"))
		return
	}

	fp, err := h.svc.Enhance(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), image, opts)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "floorPlan": fp})
}

func (h *Handler) uploadTooLarge() error {
	return apperr.BadRequest("image", "image exceeds the upload limit of "+strconv.FormatInt(h.maxUpload>>20, 10)+" MB")
}

// enhanceOptions reads the form toggles. Structured data export, dimensions
// and labels are on unless turned off; the 3D view is opt-in.
func enhanceOptions(c *gin.Context) (enhance.Options, error) {
	scheme, err := enhance.ParseColorScheme(c.PostForm("colorScheme"))
	if err != nil {
		return enhance.Options{}, err
	}

	render3d, err := formBool(c, "render3d", false)
	if err != nil {
		return enhance.Options{}, err
	}
	exportData, err := formBool(c, "exportData", true)
	if err != nil {
		return enhance.Options{}, err
	}
	showDims, err := formBool(c, "showDimensions", true)
	if err != nil {
		return enhance.Options{}, err
	}
	showLabels, err := formBool(c, "showLabels", true)
	if err != nil {
		return enhance.Options{}, err
	}

	opts := enhance.Options{
		Scheme:         scheme,
		HideDimensions: !showDims,
		HideLabels:     !showLabels,
	}
	if render3d {
		opts.Capabilities |= enhance.Render3D
	}
	if exportData {
		opts.Capabilities |= enhance.ExportData
	}
	if raw := strings.TrimSpace(c.PostForm("dpi")); raw != "" {
		dpi, err := strconv.Atoi(raw)
		if err != nil || dpi < 72 || dpi > 1200 {
			return enhance.Options{}, apperr.BadRequest("dpi", "dpi must be an integer between 72 and 1200")
		}
		opts.DPI = dpi
	}
	return opts, nil
}

func formBool(c *gin.Context, field string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.BadRequest(field, field+" must be true or false")
	}
	return v, nil
}

type fromTemplateReq struct {
	TemplateID string `json:"templateId" binding:"required"`
}

func (h *Handler) fromTemplate(c *gin.Context) {
	var req fromTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}

	fp, err := h.svc.FromTemplate(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.TemplateID)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "floorPlan": fp})
}

type saveImageReq struct {
	Source   string `json:"source" binding:"required"`
	Category string `json:"category"`
}

func (h *Handler) saveImage(c *gin.Context) {
	var req saveImageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}

	cat := imagestore.CategoryFloorPlan
	if req.Category != "" {
		parsed, err := imagestore.ParseCategory(req.Category)
		if err != nil {
			apperr.Write(c, err)
			return
		}
		cat = parsed
	}

	saved, err := h.svc.SaveImage(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Source, cat)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "image": saved})
}
