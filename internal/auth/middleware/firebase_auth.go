package middleware

import (
	"context"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/auth"
)

const (
	HeaderDevUserID    = "X-User-Id"
	HeaderDevUserEmail = "X-User-Email"
)

// TokenVerifier is satisfied by *auth.Client from the Firebase Admin SDK.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type Options struct {
	// DevHeader trusts X-User-Id when no bearer token is sent. Development only.
	DevHeader bool
}

// FirebaseAuthMiddleware validates Firebase ID tokens and stores the caller
// identity on the context. verifier may be nil when only DevHeader is used.
func FirebaseAuthMiddleware(verifier TokenVerifier, opt Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			if opt.DevHeader {
				if uid := strings.TrimSpace(c.GetHeader(HeaderDevUserID)); uid != "" {
					auth.SetIdentity(c, uid, strings.TrimSpace(c.GetHeader(HeaderDevUserEmail)))
					c.Next()
					return
				}
			}
			apperr.Write(c, apperr.Unauthorized("missing authorization token"))
			return
		}

		if verifier == nil {
			apperr.Write(c, apperr.Unauthorized("token verification is not configured"))
			return
		}

		decoded, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			apperr.Write(c, apperr.Unauthorized("invalid token"))
			return
		}

		auth.SetIdentity(c, decoded.UID, verifiedEmail(decoded))
		c.Set(auth.CtxToken, decoded)

		c.Next()
	}
}

// verifiedEmail returns the token's email claim only when Firebase marked it
// verified.
func verifiedEmail(tok *fbauth.Token) string {
	if verified, _ := tok.Claims["email_verified"].(bool); !verified {
		return ""
	}
	email, _ := tok.Claims["email"].(string)
	return email
}

// extractToken extracts the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
