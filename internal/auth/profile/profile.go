// Package profile maps raw provider profile payloads onto auth.Identity.
// Every mapping is a pure function of the decoded payload.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"identity-service/internal/auth"
)

const (
	Google  = "google"
	GitHub  = "github"
	Discord = "discord"
	Twitter = "twitter"
)

var (
	ErrUnknownProvider = errors.New("profile: unknown provider")
	ErrInvalidProfile  = errors.New("profile: invalid payload")
)

// DiscordAvatarURL is filled with the user id and avatar hash.
const DiscordAvatarURL = "https://cdn.discordapp.com/avatars/%s/%s.png"

// TwitterPlaceholderDomain backs the synthetic address given to Twitter
// accounts that return no email. It is not deliverable.
const TwitterPlaceholderDomain = "no-email.twitter.com"

// Profile is one provider's decoded payload.
type Profile interface {
	Provider() string
	Normalize() auth.Identity
}

type GoogleProfile struct {
	Subject       string    `json:"sub"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified looseBool `json:"email_verified"`
	Picture       string    `json:"picture"`
}

type GitHubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type DiscordProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Avatar   string `json:"avatar"`
}

// TwitterProfile is the v2 /users/me envelope.
type TwitterProfile struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		Email           string `json:"email"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (GoogleProfile) Provider() string  { return Google }
func (GitHubProfile) Provider() string  { return GitHub }
func (DiscordProfile) Provider() string { return Discord }
func (TwitterProfile) Provider() string { return Twitter }

func (p GoogleProfile) Normalize() auth.Identity {
	return auth.Identity{
		Provider:      Google,
		ID:            p.Subject,
		Name:          p.Name,
		Email:         p.Email,
		EmailVerified: p.Email != "" && bool(p.EmailVerified),
		Image:         optional(p.Picture),
		Role:          auth.RoleUser,
	}
}

// Normalize leaves EmailVerified false; the GitHub provider settles it from
// the /user/emails listing.
func (p GitHubProfile) Normalize() auth.Identity {
	name := p.Name
	if strings.TrimSpace(name) == "" {
		name = p.Login
	}
	return auth.Identity{
		Provider: GitHub,
		ID:       strconv.FormatInt(p.ID, 10),
		Name:     name,
		Email:    p.Email,
		Image:    optional(p.AvatarURL),
		Role:     auth.RoleUser,
	}
}

func (p DiscordProfile) Normalize() auth.Identity {
	var image *string
	if p.Avatar != "" {
		url := fmt.Sprintf(DiscordAvatarURL, p.ID, p.Avatar)
		image = &url
	}
	return auth.Identity{
		Provider:      Discord,
		ID:            p.ID,
		Name:          p.Username,
		Email:         p.Email,
		EmailVerified: p.Email != "" && p.Verified,
		Image:         image,
		Role:          auth.RoleUser,
	}
}

// Normalize never marks the email verified. Twitter addresses are either the
// placeholder or unconfirmed by the requested scopes.
func (p TwitterProfile) Normalize() auth.Identity {
	email := p.Data.Email
	if email == "" {
		email = TwitterPlaceholderEmail(p.Data.ID)
	}
	return auth.Identity{
		Provider: Twitter,
		ID:       p.Data.ID,
		Name:     p.Data.Name,
		Email:    email,
		Image:    optional(p.Data.ProfileImageURL),
		Role:     auth.RoleUser,
	}
}

// TwitterPlaceholderEmail is deterministic in id.
func TwitterPlaceholderEmail(id string) string {
	return "twitter-" + id + "@" + TwitterPlaceholderDomain
}

// Decode parses raw into the payload type registered for provider and
// rejects payloads without a provider user id.
func Decode(provider string, raw []byte) (Profile, error) {
	var (
		p   Profile
		err error
	)
	switch provider {
	case Google:
		var g GoogleProfile
		err = json.Unmarshal(raw, &g)
		if err == nil && g.Subject == "" {
			err = errors.New("missing sub")
		}
		p = g
	case GitHub:
		var g GitHubProfile
		err = json.Unmarshal(raw, &g)
		if err == nil && g.ID == 0 {
			err = errors.New("missing id")
		}
		p = g
	case Discord:
		var d DiscordProfile
		err = json.Unmarshal(raw, &d)
		if err == nil && d.ID == "" {
			err = errors.New("missing id")
		}
		p = d
	case Twitter:
		var tw TwitterProfile
		err = json.Unmarshal(raw, &tw)
		if err == nil && tw.Data.ID == "" {
			err = errors.New("missing data.id")
		}
		p = tw
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, provider, err)
	}
	return p, nil
}

// Normalize decodes raw for provider and maps it to the canonical identity.
func Normalize(provider string, raw []byte) (auth.Identity, error) {
	p, err := Decode(provider, raw)
	if err != nil {
		return auth.Identity{}, err
	}
	return p.Normalize(), nil
}

// looseBool accepts true/false as JSON booleans or strings. Google's
// userinfo endpoint has sent email_verified both ways.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
