package app

import (
	"context"

	"identity-service/internal/auth/profile"
	"identity-service/internal/auth/provider"
	"identity-service/internal/auth/provider/discord"
	"identity-service/internal/auth/provider/github"
	"identity-service/internal/auth/provider/google"
	"identity-service/internal/auth/provider/twitter"
	"identity-service/internal/config"
)

type googleFactory func(ctx context.Context, clientID, clientSecret, redirectURL string) (provider.OAuthProvider, error)

func discoverGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (provider.OAuthProvider, error) {
	p, err := google.New(ctx, google.Issuer, clientID, clientSecret, redirectURL)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// BuildProviders builds the sign-in registry in display order: Google,
// GitHub, Discord, Twitter, then credentials. Any missing client id or
// secret fails with config.ErrConfigMissing before a provider is contacted.
func BuildProviders(ctx context.Context, cfg config.Config, credentials provider.Authorizer) (*provider.Registry, error) {
	return buildProviders(ctx, cfg, credentials, discoverGoogle)
}

func buildProviders(
	ctx context.Context,
	cfg config.Config,
	credentials provider.Authorizer,
	newGoogle googleFactory,
) (*provider.Registry, error) {
	clients := []struct {
		name   string
		client config.OAuthClient
	}{
		{profile.Google, cfg.Google()},
		{profile.GitHub, cfg.GitHub()},
		{profile.Discord, cfg.Discord()},
		{profile.Twitter, cfg.Twitter()},
	}
	for _, c := range clients {
		if err := c.client.Validate(c.name); err != nil {
			return nil, err
		}
	}

	g, err := newGoogle(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.RedirectURL(profile.Google))
	if err != nil {
		return nil, err
	}

	return provider.NewRegistry(
		credentials,
		g,
		github.New(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.RedirectURL(profile.GitHub)),
		discord.New(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.RedirectURL(profile.Discord)),
		twitter.New(cfg.TwitterClientID, cfg.TwitterClientSecret, cfg.RedirectURL(profile.Twitter)),
	), nil
}
