package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"identity-service/internal/auth"
	"identity-service/internal/auth/profile"
	"identity-service/internal/logger"
)

const maxUserInfoBytes = 1 << 20

// Enricher completes a normalized identity with calls the userinfo payload
// cannot answer. client carries the exchanged access token.
type Enricher func(ctx context.Context, client *http.Client, identity *auth.Identity) error

// UserInfoProvider is an OAuth 2.0 provider whose identity comes from a
// userinfo endpoint called with the exchanged access token.
type UserInfoProvider struct {
	name        string
	displayName string
	oauthConfig *oauth2.Config
	userInfoURL string
	enrich      Enricher
}

func NewUserInfoProvider(
	name string,
	displayName string,
	oauthConfig *oauth2.Config,
	userInfoURL string,
) *UserInfoProvider {
	return &UserInfoProvider{
		name:        name,
		displayName: displayName,
		oauthConfig: oauthConfig,
		userInfoURL: userInfoURL,
	}
}

// WithEnricher runs e after every successful normalization. A failing
// enricher is logged and leaves the identity as normalized.
func (p *UserInfoProvider) WithEnricher(e Enricher) *UserInfoProvider {
	p.enrich = e
	return p
}

func (p *UserInfoProvider) Name() string {
	return p.name
}

func (p *UserInfoProvider) DisplayName() string {
	return p.displayName
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *UserInfoProvider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *UserInfoProvider) ExchangeCode(
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
		return nil, p.fail("token exchange failed", err)
	}

	client := p.oauthConfig.Client(ctx, token)

	body, err := Fetch(ctx, client, p.userInfoURL)
	if err != nil {
		return nil, p.fail("userinfo fetch failed", err)
	}

	identity, err := profile.Normalize(p.name, body)
	if err != nil {
		return nil, p.fail("userinfo payload invalid", err)
	}

	if p.enrich != nil {
		if err := p.enrich(ctx, client, &identity); err != nil {
			logger.Warn(p.name+" profile enrichment failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	logger.Info("oauth profile resolved", map[string]any{
		"provider":       p.name,
		"email_present":  identity.Email != "",
		"email_verified": identity.EmailVerified,
	})

	return &identity, nil
}

// Fetch GETs url as JSON with client and returns the body of a 200 response.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

func (p *UserInfoProvider) fail(msg string, err error) error {
	logger.Error(p.name+" "+msg, map[string]any{
		"error": err.Error(),
	})
	return fmt.Errorf("%w: %s: %s: %v", auth.ErrProviderSignInFailed, p.name, msg, err)
}
