package domain

import (
	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"
	oauth2google "golang.org/x/oauth2/google"
)

// Atlassian OAuth 2.0 (3LO) endpoints. x/oauth2 ships no Atlassian preset.
const (
	JiraAuthURL      = "https://auth.atlassian.com/authorize"
	JiraTokenURL     = "https://auth.atlassian.com/oauth/token"
	JiraResourcesURL = "https://api.atlassian.com/oauth/token/accessible-resources"
	JiraAPIBaseURL   = "https://api.atlassian.com"
)

const (
	SlackAuthURL = "https://slack.com/oauth/v2/authorize"

	GoogleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Config holds all prodpilot configuration. Loaded once at startup from
// environment variables and an optional yaml config file.
type Config struct {
	HTTPAddress string
	// AppURL is the public base URL the OAuth redirect URIs are built from.
	// It must match the redirect URIs registered with each provider exactly.
	AppURL string

	// TokenEncryptionKey is the hex-encoded 32-byte AES key the vault
	// encrypts credential cookies with. Required by every credential path.
	TokenEncryptionKey string

	Jira   JiraConfig
	Slack  SlackConfig
	Google GoogleConfig
	GitHub GitHubConfig
}

type JiraConfig struct {
	// Static (basic auth) fallback.
	Email      string
	APIToken   string
	Domain     string
	ProjectKey string

	// OAuth app.
	OAuthClientID     string
	OAuthClientSecret string

	// Endpoint overrides, empty in production. Tests point these at mock
	// servers.
	AuthURL      string
	TokenURL     string
	ResourcesURL string
	APIBaseURL   string
}

func (c JiraConfig) Endpoint() oauth2.Endpoint {
	ep := oauth2.Endpoint{
		AuthURL:   JiraAuthURL,
		TokenURL:  JiraTokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if c.AuthURL != "" {
		ep.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		ep.TokenURL = c.TokenURL
	}
	return ep
}

func (c JiraConfig) AccessibleResourcesURL() string {
	if c.ResourcesURL != "" {
		return c.ResourcesURL
	}
	return JiraResourcesURL
}

func (c JiraConfig) ProxyBaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return JiraAPIBaseURL
}

func (c JiraConfig) HasStaticCredentials() bool {
	return c.Email != "" && c.APIToken != "" && c.Domain != ""
}

type SlackConfig struct {
	BotToken  string
	ChannelID string

	ClientID     string
	ClientSecret string

	AuthURL string
	// APIURL overrides the Slack API base for tests (slack-go OptionAPIURL).
	APIURL string
}

func (c SlackConfig) AuthorizeURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return SlackAuthURL
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	// RefreshToken is the static fallback used when no per-user record is
	// stored.
	RefreshToken string

	AuthURL     string
	TokenURL    string
	UserinfoURL string
	// CalendarEndpoint overrides the Calendar API base for tests.
	CalendarEndpoint string
}

func (c GoogleConfig) Endpoint() oauth2.Endpoint {
	ep := oauth2google.Endpoint
	if c.AuthURL != "" {
		ep.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		ep.TokenURL = c.TokenURL
	}
	return ep
}

func (c GoogleConfig) UserinfoEndpoint() string {
	if c.UserinfoURL != "" {
		return c.UserinfoURL
	}
	return GoogleUserinfoURL
}

func (c GoogleConfig) HasClient() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type GitHubConfig struct {
	PersonalAccessToken string

	ClientID     string
	ClientSecret string

	AuthURL  string
	TokenURL string
	// APIBaseURL overrides api.github.com for tests.
	APIBaseURL string
}

func (c GitHubConfig) Endpoint() oauth2.Endpoint {
	ep := oauth2github.Endpoint
	if c.AuthURL != "" {
		ep.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		ep.TokenURL = c.TokenURL
	}
	return ep
}
