package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity-service/internal/auth"
	"identity-service/internal/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs in with email and password. Every rejection answers 401 with a
// message that does not reveal whether the account exists.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	d, ok := h.providers.Descriptor(auth.ProviderCredentials)
	creds := h.providers.Credentials()
	if !ok || creds == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "credentials sign-in is disabled"})
		return
	}

	in, res := h.runSignIn(c.Request.Context(), d, func(ctx context.Context) (*auth.Identity, error) {
		return creds.Authorize(ctx, req.Email, req.Password)
	})
	if res.Err != nil {
		status := http.StatusUnauthorized
		if errors.Is(res.Err, auth.ErrInternal) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": in.Message()})
		return
	}

	if _, err := h.startSession(c, identityUser(res.Value), auth.ProviderCredentials); err != nil {
		logger.Error("failed to persist session", map[string]any{
			"user_id": res.Value.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgDefault})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged_in"})
}
