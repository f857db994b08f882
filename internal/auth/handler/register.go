package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"identity-service/internal/auth"
	"identity-service/internal/auth/credentials"
	"identity-service/internal/events"
	"identity-service/internal/logger"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register creates an unverified credentials account. No session is issued;
// the account can sign in once its email is verified.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, err := h.verifier.Register(
		c.Request.Context(),
		req.Email,
		req.Name,
		req.Password,
	)
	if err != nil {
		switch {
		case errors.Is(err, credentials.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		case errors.Is(err, credentials.ErrPasswordTooShort),
			errors.Is(err, credentials.ErrPasswordTooLong),
			errors.Is(err, auth.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		default:
			logger.Error("registration failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgDefault})
		}
		return
	}

	evt := events.Registered{
		UserID:     userID,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		OccurredAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishRegistered(c.Request.Context(), evt); err != nil {
		logger.Warn("registered event not published", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "registered",
		"message": auth.MsgEmailNotVerified,
	})
}
