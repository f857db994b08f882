package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity-service/internal/auth/credentials"
	"identity-service/internal/auth/handler"
	"identity-service/internal/auth/resolver"
	"identity-service/internal/config"
	"identity-service/internal/interactions"
	"identity-service/internal/metrics"
	"identity-service/internal/middleware"
	"identity-service/internal/session"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	identityResolver := resolver.NewDBResolver(infra.DB)

	verifier := credentials.NewVerifier(
		credentials.NewPostgresRepository(infra.DB),
		credentials.NewHasher(cfg.BcryptCost),
	)

	registry, err := BuildProviders(ctx, cfg, verifier)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	recorder := interactions.NewRecorder(
		interactions.NewPostgresStore(infra.DB),
		interactions.NewRedisInvalidator(infra.Redis.Client),
		infra.Publisher,
	)

	authHandler := handler.NewHandler(handler.Deps{
		Providers:  registry,
		Sessions:   sessionStore,
		Resolver:   identityResolver,
		Verifier:   verifier,
		Recorder:   recorder,
		Publisher:  infra.Publisher,
		SessionTTL: cfg.SessionTTL,
		Cookie:     session.DefaultCookieOptions,
	})

	authMiddleware := middleware.NewAuthMiddleware(sessionStore)

	// ----------------------------
	// Router
	// ----------------------------

	router := newRouter()
	authHandler.RegisterRoutes(router, authMiddleware)

	return router, infra.Close, nil
}

// newRouter builds the engine with the ambient middleware and the
// operational routes.
func newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}
