// Package twitter configures sign-in through the Twitter (X) OAuth 2.0 API.
// The v2 API does not return an email without elevated access; see
// profile.TwitterPlaceholderEmail.
package twitter

import (
	"net/url"

	"golang.org/x/oauth2"

	"identity-service/internal/auth/profile"
	"identity-service/internal/auth/provider"
)

var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

var Scopes = []string{"users.read", "tweet.read", "offline.access"}

// UserInfoURL requests the fields the profile mapping reads.
func UserInfoURL() string {
	q := url.Values{}
	q.Set("user.fields", "profile_image_url,name,username")
	return "https://api.twitter.com/2/users/me?" + q.Encode()
}

func New(clientID, clientSecret, redirectURL string) *provider.UserInfoProvider {
	return provider.NewUserInfoProvider(profile.Twitter, "Twitter", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
		Scopes:       Scopes,
	}, UserInfoURL())
}
