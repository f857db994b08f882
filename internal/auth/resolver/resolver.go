package resolver

import (
	"context"

	"identity-service/internal/auth"
)

// User is the local account an external identity resolved to. Created is
// true when Resolve inserted the account.
type User struct {
	ID      string
	Role    auth.Role
	Created bool
}

// Resolver determines which internal user an external identity belongs to.
// It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (User, error)
}
