package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequireAuth adapts the net/http RequireAuth to Gin.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return adapt(auth.RequireAuth)
}

// GinLoadSession adapts the net/http LoadSession to Gin.
func GinLoadSession(auth *AuthMiddleware) gin.HandlerFunc {
	return adapt(auth.LoadSession)
}

func adapt(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		// If the middleware answered itself, stop the Gin chain
		if !called {
			c.Abort()
		}
	}
}
