package discord

import (
	"golang.org/x/oauth2"

	"identity-service/internal/auth/profile"
	"identity-service/internal/auth/provider"
)

const UserInfoURL = "https://discord.com/api/users/@me"

var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/api/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

func New(clientID, clientSecret, redirectURL string) *provider.UserInfoProvider {
	return provider.NewUserInfoProvider(profile.Discord, "Discord", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
		Scopes:       []string{"identify", "email"},
	}, UserInfoURL)
}
