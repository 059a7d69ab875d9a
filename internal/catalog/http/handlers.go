package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/catalog/service"
)

type Handler struct {
	svc *service.CatalogService
}

func New(svc *service.CatalogService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts /designers, /materials and /regions on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/designers", h.listDesigners)
	rg.GET("/designers/:id", h.getDesigner)
	rg.GET("/materials", h.listMaterials)
	rg.GET("/materials/:id", h.getMaterial)
	rg.GET("/regions", h.listRegions)
	rg.GET("/regions/:id", h.getRegion)
}

func respond(c *gin.Context, key string, v any, err error) {
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, key: v})
}

func (h *Handler) listDesigners(c *gin.Context) {
	items, err := h.svc.Designers(c.Request.Context(), c.Query("specialty"))
	respond(c, "designers", items, err)
}

func (h *Handler) getDesigner(c *gin.Context) {
	d, err := h.svc.Designer(c.Request.Context(), c.Param("id"))
	respond(c, "designer", d, err)
}

func (h *Handler) listMaterials(c *gin.Context) {
	items, err := h.svc.Materials(c.Request.Context(), c.Query("category"))
	respond(c, "materials", items, err)
}

func (h *Handler) getMaterial(c *gin.Context) {
	m, err := h.svc.Material(c.Request.Context(), c.Param("id"))
	respond(c, "material", m, err)
}

func (h *Handler) listRegions(c *gin.Context) {
	items, err := h.svc.Regions(c.Request.Context(), c.Query("country"))
	respond(c, "regions", items, err)
}

func (h *Handler) getRegion(c *gin.Context) {
	g, err := h.svc.Region(c.Request.Context(), c.Param("id"))
	respond(c, "region", g, err)
}
