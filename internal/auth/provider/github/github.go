package github

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	ghoauth "golang.org/x/oauth2/github"

	"identity-service/internal/auth"
	"identity-service/internal/auth/profile"
	"identity-service/internal/auth/provider"
)

const (
	UserInfoURL = "https://api.github.com/user"
	EmailsURL   = "https://api.github.com/user/emails"
)

func New(clientID, clientSecret, redirectURL string) *provider.UserInfoProvider {
	return provider.NewUserInfoProvider(profile.GitHub, "GitHub", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     ghoauth.Endpoint,
		Scopes:       []string{"read:user", "user:email"},
	}, UserInfoURL).WithEnricher(verifiedEmail(EmailsURL))
}

type email struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// verifiedEmail settles the identity's email from the account's email list,
// which the user:email scope exposes even when the public email is hidden.
func verifiedEmail(emailsURL string) provider.Enricher {
	return func(ctx context.Context, client *http.Client, identity *auth.Identity) error {
		body, err := provider.Fetch(ctx, client, emailsURL)
		if err != nil {
			return err
		}
		var emails []email
		if err := json.Unmarshal(body, &emails); err != nil {
			return err
		}
		identity.Email, identity.EmailVerified = pickEmail(identity.Email, emails)
		return nil
	}
}

// pickEmail keeps current when GitHub lists it as verified. Otherwise the
// primary verified address wins; failing that current stays, unverified.
func pickEmail(current string, emails []email) (string, bool) {
	var primary string
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if current != "" && strings.EqualFold(e.Email, current) {
			return current, true
		}
		if e.Primary {
			primary = e.Email
		}
	}
	if primary != "" {
		return primary, true
	}
	return current, false
}
