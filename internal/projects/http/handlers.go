package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/auth"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/projects/service"
)

type landReq struct {
	Length float64 `json:"length" binding:"required,gt=0"`
	Width  float64 `json:"width" binding:"required,gt=0"`
	Unit   string  `json:"unit"`
}

type budgetReq struct {
	Amount   float64 `json:"amount" binding:"gte=0"`
	Currency string  `json:"currency"`
}

type createReq struct {
	Name           string             `json:"name" binding:"required"`
	Description    string             `json:"description"`
	LandDimensions *landReq           `json:"landDimensions" binding:"required"`
	Budget         budgetReq          `json:"budget"`
	Location       domain.Location    `json:"location"`
	Preferences    domain.Preferences `json:"preferences"`
	TemplateID     string             `json:"templateId"`
}

func (h *Handler) create(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		apperr.Write(c, apperr.Unauthorized("user not authenticated"))
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}

	ctx := c.Request.Context()
	p, err := h.projects.Create(ctx, uid, service.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		LandDimensions: domain.LandDimensions{
			Length: req.LandDimensions.Length,
			Width:  req.LandDimensions.Width,
			Unit:   strings.TrimSpace(req.LandDimensions.Unit),
		},
		Budget:      domain.Budget{Amount: req.Budget.Amount, Currency: strings.ToUpper(strings.TrimSpace(req.Budget.Currency))},
		Location:    req.Location,
		Preferences: req.Preferences,
	})
	if err != nil {
		apperr.Write(c, err)
		return
	}

	if templateID := strings.TrimSpace(req.TemplateID); templateID != "" && h.templates != nil {
		fp, err := h.templates.FromTemplate(ctx, uid, p.ID, templateID)
		if err := h.createPolicy.SideEffect(ctx, "project_template_copy", err); err != nil {
			apperr.Write(c, err)
			return
		}
		if fp != nil {
			p.FloorPlans = append(p.FloorPlans, *fp)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.projects.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type updateReq struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Status      *string             `json:"status" binding:"omitempty,oneof=Planning 'In Progress' Completed"`
	Budget      *budgetReq          `json:"budget"`
	Location    *domain.Location    `json:"location"`
	Preferences *domain.Preferences `json:"preferences"`
}

func (h *Handler) update(c *gin.Context) {
	uid, id := auth.UserFirebaseUID(c), c.Param("id")
	if _, err := h.projects.Get(c.Request.Context(), uid, id); err != nil {
		apperr.Write(c, err)
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}

	patch := domain.Patch{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Preferences: req.Preferences,
	}
	if req.Status != nil {
		s := domain.Status(*req.Status)
		patch.Status = &s
	}
	if req.Budget != nil {
		patch.Budget = &domain.Budget{
			Amount:   req.Budget.Amount,
			Currency: strings.ToUpper(strings.TrimSpace(req.Budget.Currency)),
		}
	}

	p, err := h.projects.Update(c.Request.Context(), uid, id, patch)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
