package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/verification"
)

type Handler struct {
	svc *verification.Service
}

func New(svc *verification.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/send", h.send)
	rg.POST("/verify", h.verify)
}

type sendReq struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyReq struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h *Handler) send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}
	if err := h.svc.Send(c.Request.Context(), req.Email); err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sent": true})
}

func (h *Handler) verify(c *gin.Context) {
	var req verifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}
	if err := h.svc.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "verified": true})
}
