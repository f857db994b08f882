package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"identity-service/internal/auth"
	"identity-service/internal/auth/profile"
	"identity-service/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	providerName = profile.Google
	Issuer       = "https://accounts.google.com"
)

type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// New discovers Google's OIDC configuration from issuer.
func New(
	ctx context.Context,
	issuer string,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return newProvider(oidcProvider.Endpoint(), oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	}), clientID, clientSecret, redirectURL), nil
}

func newProvider(
	endpoint oauth2.Endpoint,
	verifier *oidc.IDTokenVerifier,
	clientID string,
	clientSecret string,
	redirectURL string,
) *Provider {
	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoint,
			Scopes: []string{
				oidc.ScopeOpenID,
				"profile",
				"email",
			},
		},
		verifier: verifier,
	}
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) DisplayName() string {
	return "Google"
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges the code, verifies the returned ID token and
// normalizes its claims.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fail("token exchange failed", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fail("id_token missing", errors.New("google did not return id_token"))
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fail("id_token verification failed", err)
	}

	var claims json.RawMessage
	if err := idToken.Claims(&claims); err != nil {
		return nil, fail("id_token claims parse failed", err)
	}

	identity, err := profile.Normalize(providerName, claims)
	if err != nil {
		return nil, fail("id_token claims invalid", err)
	}

	logger.Info("google oidc verified", map[string]any{
		"issuer":         idToken.Issuer,
		"email_present":  identity.Email != "",
		"email_verified": identity.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &identity, nil
}

func fail(msg string, err error) error {
	logger.Error("google "+msg, map[string]any{
		"error": err.Error(),
	})
	return fmt.Errorf("%w: google: %s: %v", auth.ErrProviderSignInFailed, msg, err)
}
