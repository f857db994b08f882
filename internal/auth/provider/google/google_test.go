package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"identity-service/internal/auth"
)

func newTestProvider(t *testing.T, tokenBody string) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tokenBody))
	}))
	t.Cleanup(srv.Close)

	verifier := oidc.NewVerifier(Issuer, &oidc.StaticKeySet{}, &oidc.Config{ClientID: "g-id"})
	return newProvider(oauth2.Endpoint{
		AuthURL:  srv.URL + "/auth",
		TokenURL: srv.URL + "/token",
	}, verifier, "g-id", "g-secret", "http://localhost:8080/oauth/callback/google")
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Issuer, "", "secret", "http://cb")
	assert.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	p := newTestProvider(t, `{}`)
	assert.Equal(t, "google", p.Name())

	u, err := url.Parse(p.AuthCodeURL("state", "challenge"))
	require.NoError(t, err)
	assert.Equal(t, "openid profile email", u.Query().Get("scope"))
	assert.Equal(t, "challenge", u.Query().Get("code_challenge"))
}

func TestExchangeCode_MissingIDToken(t *testing.T) {
	p := newTestProvider(t, `{"access_token":"at","token_type":"bearer"}`)

	_, err := p.ExchangeCode(context.Background(), "code", "verifier")
	assert.ErrorIs(t, err, auth.ErrProviderSignInFailed)
}

func TestExchangeCode_UnverifiableIDToken(t *testing.T) {
	p := newTestProvider(t, `{"access_token":"at","token_type":"bearer","id_token":"not.a.jwt"}`)

	_, err := p.ExchangeCode(context.Background(), "code", "verifier")
	assert.ErrorIs(t, err, auth.ErrProviderSignInFailed)
}
