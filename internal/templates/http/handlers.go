package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/templates"
)

// Lister is the read side of the template store.
type Lister interface {
	List(ctx context.Context) ([]templates.Template, error)
	Find(ctx context.Context, id string) (*templates.Template, bool, error)
}

type Handler struct {
	store Lister
}

func New(store Lister) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
}

type templateView struct {
	ID string `json:"id"`
	templates.Metadata
}

func view(t templates.Template) templateView {
	return templateView{ID: t.ID(), Metadata: t.Metadata}
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.store.List(c.Request.Context())
	if err != nil {
		apperr.Write(c, err)
		return
	}

	style := strings.ToLower(strings.TrimSpace(c.Query("style")))
	out := make([]templateView, 0, len(items))
	for _, t := range items {
		if style != "" && strings.ToLower(t.Style) != style {
			continue
		}
		out = append(out, view(t))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "templates": out})
}

func (h *Handler) get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	t, ok, err := h.store.Find(c.Request.Context(), id)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	if !ok {
		apperr.Write(c, &apperr.Error{Kind: apperr.KindTemplateNotFound, Message: "template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "template": view(*t)})
}
