package provider

import (
	"context"

	"identity-service/internal/auth"
)

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return identity facts only and
// must not perform user creation, linking, or session management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google", "discord").
	Name() string

	// DisplayName is the label shown on the sign-in button.
	DisplayName() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider credentials
	// and returns a normalized identity. Failures wrap auth.ErrProviderSignInFailed.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}

// Authorizer is the local email/password identity source.
type Authorizer interface {
	Authorize(ctx context.Context, email, password string) (*auth.Identity, error)
}
