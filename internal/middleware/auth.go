package middleware

import (
	"net/http"
	"time"

	"identity-service/internal/session"
)

type AuthMiddleware struct {
	Store session.Store
}

func NewAuthMiddleware(store session.Store) *AuthMiddleware {
	return &AuthMiddleware{Store: store}
}

// load resolves the session carried by r, or nil when there is none.
func (a *AuthMiddleware) load(r *http.Request) *session.Session {
	// 1. Read session cookie
	sessionID, ok := session.IDFromRequest(r)
	if !ok {
		return nil
	}

	// 2. Load session
	sess, err := a.Store.Get(r.Context(), sessionID)
	if err != nil || sess == nil {
		return nil
	}

	// 3. Enforce session expiry
	if sess.Expired(time.Now()) {
		_ = a.Store.Delete(r.Context(), sessionID)
		return nil
	}
	return sess
}

// LoadSession attaches the session to the request context when one exists
// and always continues.
func (a *AuthMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := a.load(r); sess != nil {
			r = r.WithContext(session.WithSession(r.Context(), *sess))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a live session.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := a.load(r)
		if sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), *sess)))
	})
}
