package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrConfigMissing marks a startup configuration failure. It is fatal.
var ErrConfigMissing = errors.New("config: required value missing")

type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

type Config struct {
	AppPort       string        `env:"APP_PORT" envDefault:"8080"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"12"`

	GoogleClientID      string `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret  string `env:"GOOGLE_CLIENT_SECRET,required,notEmpty"`
	GitHubClientID      string `env:"GITHUB_CLIENT_ID,required,notEmpty"`
	GitHubClientSecret  string `env:"GITHUB_CLIENT_SECRET,required,notEmpty"`
	DiscordClientID     string `env:"DISCORD_CLIENT_ID,required,notEmpty"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET,required,notEmpty"`
	TwitterClientID     string `env:"TWITTER_CLIENT_ID,required,notEmpty"`
	TwitterClientSecret string `env:"TWITTER_CLIENT_SECRET,required,notEmpty"`

	RedisAddr     string `env:"REDIS_ADDR,required,notEmpty"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN,required,notEmpty"`

	// Empty disables event publishing.
	RabbitURL string `env:"RABBIT_URL"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// .env is optional; real environment values win.
	_ = godotenv.Load()
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}

// Google and the accessors below pair each provider's credentials.
func (c Config) Google() OAuthClient {
	return OAuthClient{ClientID: c.GoogleClientID, ClientSecret: c.GoogleClientSecret}
}

func (c Config) GitHub() OAuthClient {
	return OAuthClient{ClientID: c.GitHubClientID, ClientSecret: c.GitHubClientSecret}
}

func (c Config) Discord() OAuthClient {
	return OAuthClient{ClientID: c.DiscordClientID, ClientSecret: c.DiscordClientSecret}
}

func (c Config) Twitter() OAuthClient {
	return OAuthClient{ClientID: c.TwitterClientID, ClientSecret: c.TwitterClientSecret}
}

// RedirectURL is the OAuth callback registered with provider.
func (c Config) RedirectURL(provider string) string {
	return c.PublicBaseURL + "/oauth/callback/" + provider
}

// Validate reports whether the client carries both halves of its credentials.
func (o OAuthClient) Validate(provider string) error {
	if o.ClientID == "" || o.ClientSecret == "" {
		return fmt.Errorf("%w: %s client id/secret", ErrConfigMissing, provider)
	}
	return nil
}
