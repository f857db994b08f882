package credentials

import (
	"time"

	"identity-service/internal/auth"
)

// Record is the stored account a credentials sign-in is checked against.
// PasswordHash is nil for accounts created through an OAuth provider.
type Record struct {
	UserID        string
	Email         string
	Name          string
	Image         *string
	Role          auth.Role
	PasswordHash  *string
	EmailVerified *time.Time
}

func (r Record) identity() *auth.Identity {
	return &auth.Identity{
		Provider:      auth.ProviderCredentials,
		ID:            r.UserID,
		Name:          r.Name,
		Email:         r.Email,
		EmailVerified: r.EmailVerified != nil,
		Image:         r.Image,
		Role:          r.Role,
	}
}
