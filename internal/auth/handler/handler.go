package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"identity-service/internal/auth"
	"identity-service/internal/auth/credentials"
	"identity-service/internal/auth/provider"
	"identity-service/internal/auth/resolver"
	"identity-service/internal/auth/signin"
	"identity-service/internal/events"
	"identity-service/internal/interactions"
	"identity-service/internal/logger"
	"identity-service/internal/metrics"
	"identity-service/internal/middleware"
	"identity-service/internal/session"
)

// PostLoginRedirect is where the browser lands after a successful OAuth
// callback.
const PostLoginRedirect = "/dashboard"

// Deps are the collaborators a Handler needs.
type Deps struct {
	Providers  *provider.Registry
	Sessions   session.Store
	Resolver   resolver.Resolver
	Verifier   *credentials.Verifier
	Recorder   *interactions.Recorder
	Publisher  events.Publisher
	SessionTTL time.Duration
	Cookie     session.CookieOptions
}

type Handler struct {
	providers    *provider.Registry
	sessionStore session.Store
	resolver     resolver.Resolver
	verifier     *credentials.Verifier
	recorder     *interactions.Recorder
	publisher    events.Publisher
	sessionTTL   time.Duration
	cookieOpts   session.CookieOptions
}

func NewHandler(d Deps) *Handler {
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = 24 * time.Hour
	}
	return &Handler{
		providers:    d.Providers,
		sessionStore: d.Sessions,
		resolver:     d.Resolver,
		verifier:     d.Verifier,
		recorder:     d.Recorder,
		publisher:    d.Publisher,
		sessionTTL:   d.SessionTTL,
		cookieOpts:   d.Cookie,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, mw *middleware.AuthMiddleware) {
	r.GET("/auth/providers", h.Providers)
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/logout", h.Logout)

	api := r.Group("/api")
	api.GET("/me", middleware.GinRequireAuth(mw), h.Me)
	api.POST("/contacts/:contactID/view", middleware.GinLoadSession(mw), h.ViewContact)
	api.GET("/me/viewed-contacts", middleware.GinRequireAuth(mw), h.ViewedContacts)
	api.GET("/integrations", h.Integrations)

	for _, route := range r.Routes() {
		logger.Debug("route registered", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}
}

type providerView struct {
	provider.Descriptor
	Label string `json:"label"`
}

// Providers lists the sign-in buttons in display order.
func (h *Handler) Providers(c *gin.Context) {
	mode := signin.ModeLogin
	if c.Query("mode") == "signup" {
		mode = signin.ModeSignup
	}

	descriptors := h.providers.Descriptors()
	out := make([]providerView, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, providerView{
			Descriptor: d,
			Label:      signin.New(d, mode, nil).Label(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

// startSession persists a session for user, sets the cookie and announces
// the sign-in.
func (h *Handler) startSession(c *gin.Context, user resolver.User, providerName string) (session.Session, error) {
	sess, err := session.New(user.ID, user.Role, providerName, h.sessionTTL)
	if err != nil {
		return session.Session{}, err
	}

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		return session.Session{}, err
	}

	session.SetCookie(c.Writer, sess, h.cookieOpts)

	logger.Info("login success", map[string]any{
		"user_id":  user.ID,
		"provider": providerName,
		"ip":       c.ClientIP(),
	})

	h.publishSignedIn(c.Request.Context(), events.SignedIn{
		UserID:     user.ID,
		Provider:   providerName,
		NewUser:    user.Created,
		OccurredAt: sess.CreatedAt,
	})
	return sess, nil
}

func (h *Handler) publishSignedIn(ctx context.Context, evt events.SignedIn) {
	if err := h.publisher.PublishSignedIn(ctx, evt); err != nil {
		logger.Warn("signed in event not published", map[string]any{
			"user_id": evt.UserID,
			"error":   err.Error(),
		})
	}
}

// runSignIn drives one sign-in attempt through the initiator and records
// its outcome.
func (h *Handler) runSignIn(ctx context.Context, d provider.Descriptor, flow signin.Flow) (*signin.Initiator, signin.Result) {
	in := signin.New(d, signin.ModeLogin, flow)
	res := in.Run(ctx)
	metrics.RecordSignIn(d.ID, res.State.String())
	return in, res
}

func (h *Handler) Me(c *gin.Context) {
	sess, ok := session.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":    sess.UserID,
		"role":       sess.Role,
		"provider":   sess.Provider,
		"expires_at": sess.ExpiresAt,
	})
}

// identityUser maps an identity that is already a local account.
func identityUser(identity *auth.Identity) resolver.User {
	return resolver.User{ID: identity.ID, Role: identity.Role}
}
