package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/auth"
	"github.com/buildwise-ai/buildwise-backend/internal/users/domain"
)

// GetProfile returns the current user's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		apperr.Write(c, apperr.Unauthorized("user not authenticated"))
		return
	}

	user, err := h.userService.Get(c.Request.Context(), uid)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

type syncReq struct {
	DisplayName  *string `json:"displayName"`
	PhotoURL     *string `json:"photoUrl"`
	Organization *string `json:"organization"`
}

// SyncUser upserts the caller's profile after sign-in. The body is optional;
// the email always comes from the verified token and a role in the body is
// ignored.
func (h *Handler) SyncUser(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		apperr.Write(c, apperr.Unauthorized("user not authenticated"))
		return
	}

	var body syncReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			apperr.Write(c, apperr.FromBind(err))
			return
		}
	}

	user, err := h.userService.Sync(c.Request.Context(), domain.SyncRequest{
		FirebaseUID:  uid,
		Email:        auth.UserEmail(c),
		DisplayName:  body.DisplayName,
		PhotoURL:     body.PhotoURL,
		Organization: body.Organization,
	})
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

type updateReq struct {
	DisplayName  *string `json:"displayName"`
	PhotoURL     *string `json:"photoUrl"`
	Organization *string `json:"organization"`
}

// UpdateProfile changes the caller's display fields.
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		apperr.Write(c, apperr.Unauthorized("user not authenticated"))
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.FromBind(err))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), uid, domain.UpdateRequest{
		DisplayName:  req.DisplayName,
		PhotoURL:     req.PhotoURL,
		Organization: req.Organization,
	})
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}
