package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/admin/service"
	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the public registration and review endpoints; listing runs
// behind the given guards (identity plus admin role).
func (h *Handler) Register(rg *gin.RouterGroup, adminOnly ...gin.HandlerFunc) {
	rg.POST("/requests", h.register)
	rg.GET("/requests/review", h.review)
	rg.GET("/requests", append(append([]gin.HandlerFunc{}, adminOnly...), h.list)...)
}

type registerReq struct {
	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Justification string `json:"justification"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}

	r, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		Justification: req.Justification,
	})
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "request": r})
}

func (h *Handler) review(c *gin.Context) {
	r, err := h.svc.Review(c.Request.Context(), c.Query("token"), c.Query("action"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": r.Status, "request": r})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.DefaultQuery("status", "pending"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "requests": items})
}
