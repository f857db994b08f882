package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"identity-service/internal/logger"
	"identity-service/internal/session"
)

func (h *Handler) Logout(c *gin.Context) {
	if sessionID, ok := session.IDFromRequest(c.Request); ok {
		// Best effort; the cookie is cleared regardless.
		if err := h.sessionStore.Delete(c.Request.Context(), sessionID); err != nil {
			logger.Warn("session delete failed", map[string]any{
				"error": err.Error(),
			})
		}
		logger.Info("logout", map[string]any{
			"ip": c.ClientIP(),
		})
	}

	session.ClearCookie(c.Writer, h.cookieOpts)

	// Idempotent response
	c.Status(http.StatusNoContent)
}
