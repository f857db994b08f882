package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"identity-service/internal/auth"
	"identity-service/internal/interactions"
	"identity-service/internal/landing"
	"identity-service/internal/logger"
)

// ViewContact marks the contact as viewed by the session user. The body is
// always the recorder's result shape.
func (h *Handler) ViewContact(c *gin.Context) {
	res := h.recorder.RecordView(c.Request.Context(), c.Param("contactID"))

	status := http.StatusOK
	if !res.Success {
		switch res.Message {
		case interactions.MsgUnauthenticated:
			status = http.StatusUnauthorized
		case interactions.MsgMissingContactID:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, res)
}

func (h *Handler) ViewedContacts(c *gin.Context) {
	list, err := h.recorder.Viewed(c.Request.Context())
	if err != nil {
		logger.Error("list viewed contacts failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgDefault})
		return
	}
	if list == nil {
		list = []interactions.Interaction{}
	}
	c.JSON(http.StatusOK, gin.H{"interactions": list})
}

func (h *Handler) Integrations(c *gin.Context) {
	c.JSON(http.StatusOK, landing.Integrations())
}
