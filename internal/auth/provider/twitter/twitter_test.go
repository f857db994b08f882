package twitter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInfoURL_RequestsProfileFields(t *testing.T) {
	u, err := url.Parse(UserInfoURL())
	require.NoError(t, err)

	assert.Equal(t, "api.twitter.com", u.Host)
	assert.Equal(t, "/2/users/me", u.Path)
	assert.Equal(t, "profile_image_url,name,username", u.Query().Get("user.fields"))
}

func TestNew_AuthCodeURLScopes(t *testing.T) {
	p := New("tw-id", "tw-secret", "http://localhost:8080/oauth/callback/twitter")
	assert.Equal(t, "twitter", p.Name())

	u, err := url.Parse(p.AuthCodeURL("s", "c"))
	require.NoError(t, err)

	assert.Equal(t, "twitter.com", u.Host)
	assert.Equal(t, "users.read tweet.read offline.access", u.Query().Get("scope"))
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))
}
