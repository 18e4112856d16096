package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultOAuthBaseURL = "https://oauth.zid.sa"
	DefaultAPIBaseURL   = "https://api.zid.sa"
)

var defaultScopes = []string{"read_orders", "read_products", "read_customers", "webhooks"}

type ZidConfig struct {
	ClientID     string `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string `koanf:"client_secret" mapstructure:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	OAuthBaseURL string `koanf:"oauth_base_url" mapstructure:"oauth_base_url"`
	APIBaseURL   string `koanf:"api_base_url" mapstructure:"api_base_url"`
}

type TokenConfig struct {
	RefreshBufferMinutes int      `koanf:"refresh_buffer_minutes" mapstructure:"refresh_buffer_minutes"`
	StateTTLMinutes      int      `koanf:"state_ttl_minutes" mapstructure:"state_ttl_minutes"`
	Scopes               []string `koanf:"scopes" mapstructure:"scopes"`
}

type Config struct {
	ServiceName string      `koanf:"service_name" mapstructure:"service_name"`
	Zid         ZidConfig   `koanf:"zid" mapstructure:"zid"`
	Token       TokenConfig `koanf:"token" mapstructure:"token"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "merchant-auth",
		Zid: ZidConfig{
			OAuthBaseURL: DefaultOAuthBaseURL,
			APIBaseURL:   DefaultAPIBaseURL,
		},
		Token: TokenConfig{
			RefreshBufferMinutes: 30,
			StateTTLMinutes:      10,
			Scopes:               append([]string(nil), defaultScopes...),
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Zid.OAuthBaseURL) == "" {
		return fmt.Errorf("core: zid.oauth_base_url is required")
	}
	if strings.TrimSpace(c.Zid.APIBaseURL) == "" {
		return fmt.Errorf("core: zid.api_base_url is required")
	}
	if c.Token.RefreshBufferMinutes < 0 {
		return fmt.Errorf("core: token.refresh_buffer_minutes must not be negative")
	}
	if c.Token.StateTTLMinutes <= 0 {
		return fmt.Errorf("core: token.state_ttl_minutes must be positive")
	}
	return nil
}

// ValidateOAuthClient verifies the fields the authorization flow itself needs.
// Missing client settings are a deployment fault, reported as a configuration
// error and never attributed to the caller.
func (c Config) ValidateOAuthClient() error {
	if strings.TrimSpace(c.Zid.ClientID) == "" {
		return fmt.Errorf("core: zid oauth client is not configured: client_id is empty")
	}
	if strings.TrimSpace(c.Zid.ClientSecret) == "" {
		return fmt.Errorf("core: zid oauth client is not configured: client_secret is empty")
	}
	if strings.TrimSpace(c.Zid.RedirectURI) == "" {
		return fmt.Errorf("core: zid oauth client is not configured: redirect_uri is empty")
	}
	return nil
}

func (c Config) RefreshBuffer() time.Duration {
	if c.Token.RefreshBufferMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Token.RefreshBufferMinutes) * time.Minute
}

func (c Config) StateTTL() time.Duration {
	if c.Token.StateTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Token.StateTTLMinutes) * time.Minute
}

func (c Config) AuthorizationScopes() []string {
	if len(c.Token.Scopes) == 0 {
		return append([]string(nil), defaultScopes...)
	}
	return append([]string(nil), c.Token.Scopes...)
}
