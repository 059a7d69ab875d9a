package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxToken       = "firebase_token"
)

// UserFirebaseUID extracts the Firebase UID from the Gin context.
// This is set by the authentication middleware.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// UserEmail is the email claim of the caller's token, if any.
func UserEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxEmail))
}

// SetIdentity records the authenticated caller on the Gin context.
func SetIdentity(c *gin.Context, uid, email string) {
	c.Set(CtxFirebaseUID, uid)
	if email != "" {
		c.Set(CtxEmail, email)
	}
}
