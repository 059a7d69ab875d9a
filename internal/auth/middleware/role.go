package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/auth"
)

// RoleLookup resolves the stored role of a user; "" for unknown users.
type RoleLookup interface {
	RoleOf(ctx context.Context, uid string) (string, error)
}

// RequireRole admits only callers whose stored role equals role. It must run
// after FirebaseAuthMiddleware.
func RequireRole(lookup RoleLookup, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := auth.UserFirebaseUID(c)
		if uid == "" {
			apperr.Write(c, apperr.Unauthorized("user not authenticated"))
			return
		}
		got, err := lookup.RoleOf(c.Request.Context(), uid)
		if err != nil {
			apperr.Write(c, apperr.Internal(err))
			return
		}
		if got != role {
			apperr.Write(c, apperr.Forbidden(role+" role required"))
			return
		}
		c.Next()
	}
}
