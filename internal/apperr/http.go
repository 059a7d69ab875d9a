package apperr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildwise-ai/buildwise-backend/internal/logging"
)

// Status maps an error kind to its HTTP status.
func Status(k Kind) int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound, KindTemplateNotFound:
		return http.StatusNotFound
	case KindBadRequest, KindFormat:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindDependencyMissing:
		return http.StatusServiceUnavailable
	case KindProcessingFailed:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Write translates err into the standard {"ok": false, "error": ...} body and aborts the request.
func Write(c *gin.Context, err error) {
	e := As(err)
	status := Status(e.Kind)

	body := gin.H{"ok": false, "error": e.Message, "kind": e.Kind.String()}
	if e.Field != "" {
		body["field"] = e.Field
	}

	switch e.Kind {
	case KindInternal, KindIO:
		logging.FromContext(c.Request.Context()).Error("request failed",
			"kind", e.Kind.String(), "path", c.FullPath(), "error", err)
		if e.Message == "" {
			body["error"] = "internal error"
		}
	case KindProcessingFailed, KindDependencyMissing, KindTimeout:
		logging.FromContext(c.Request.Context()).Warn("request failed",
			"kind", e.Kind.String(), "path", c.FullPath(), "error", err, "detail", e.Detail)
		if e.Detail != "" {
			body["detail"] = e.Detail
		}
	}

	c.AbortWithStatusJSON(status, body)
}
