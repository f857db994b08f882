package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity-service/internal/auth"
	"identity-service/internal/logger"
)

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state, err := generateState(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgDefault})
		return
	}
	_, codeChallenge, err := generatePKCE(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgDefault})
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	// The provider refused or the user cancelled. Start a fresh flow.
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		clearFlowCookies(c)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", map[string]any{
			"provider": providerName,
		})
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}
	clearFlowCookies(c)

	d, _ := h.providers.Descriptor(providerName)
	in, res := h.runSignIn(c.Request.Context(), d, func(ctx context.Context) (*auth.Identity, error) {
		return p.ExchangeCode(ctx, code, codeVerifier)
	})
	if res.Err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": in.Message()})
		return
	}

	user, err := h.resolver.Resolve(c.Request.Context(), res.Value)
	if errors.Is(err, auth.ErrAccountNotLinked) {
		logger.Warn("oauth identity not linked", map[string]any{
			"provider": providerName,
		})
		c.JSON(http.StatusConflict, gin.H{"error": auth.PublicMessage(err)})
		return
	}
	if err != nil {
		logger.Error("failed to resolve user", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgDefault})
		return
	}

	if _, err := h.startSession(c, user, providerName); err != nil {
		logger.Error("failed to persist session", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MsgDefault})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "authenticated",
		"redirect": PostLoginRedirect,
	})
}
