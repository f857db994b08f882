package auth

// Role is the authorization tier attached to an identity. Elevation above
// RoleUser happens outside of sign-in.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ProviderCredentials names the email/password identity namespace.
const ProviderCredentials = "credentials"

// Identity is the canonical user identity every provider converges to.
// ID is unique within Provider only. EmailVerified is true only when the
// source proved ownership of Email.
type Identity struct {
	Provider      string
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	Image         *string
	Role          Role
}

// ParseRole maps a stored role to a known tier, defaulting to RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}
