package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/prodpilot/prodpilot/internal/domain"
)

var githubScopes = []string{"repo", "read:org"}

type GitHubExchanger struct {
	cfg        domain.GitHubConfig
	appURL     string
	httpClient *http.Client
}

func NewGitHubExchanger(cfg domain.GitHubConfig, appURL string, httpClient *http.Client) *GitHubExchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: exchangeTimeout}
	}
	return &GitHubExchanger{cfg: cfg, appURL: appURL, httpClient: httpClient}
}

func (e *GitHubExchanger) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     e.cfg.ClientID,
		ClientSecret: e.cfg.ClientSecret,
		Endpoint:     e.cfg.Endpoint(),
		RedirectURL:  e.appURL + "/auth/github/callback",
		Scopes:       githubScopes,
	}
}

func (e *GitHubExchanger) AuthorizeURL(state string) (string, error) {
	if e.cfg.ClientID == "" {
		return "", domain.NewConfigurationError("GITHUB_CLIENT_ID")
	}
	return e.oauthConfig().AuthCodeURL(state), nil
}

// Exchange trades the code for a long-lived access token and resolves the
// account's username for display. The username lookup is best effort.
func (e *GitHubExchanger) Exchange(ctx context.Context, code string) (domain.GitHubTokenRecord, error) {
	if e.cfg.ClientID == "" || e.cfg.ClientSecret == "" {
		return domain.GitHubTokenRecord{}, domain.NewConfigurationError("GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := e.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return domain.GitHubTokenRecord{}, &domain.ExchangeError{Provider: domain.ProviderGitHub, Reason: "github_auth_failed", Err: err}
	}

	return domain.GitHubTokenRecord{
		AccessToken: token.AccessToken,
		Username:    e.lookupUsername(ctx, token.AccessToken),
	}, nil
}

func (e *GitHubExchanger) lookupUsername(ctx context.Context, accessToken string) string {
	client := github.NewClient(e.httpClient).WithAuthToken(accessToken)
	if e.cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(e.cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return ""
		}
		client.BaseURL = base
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		log.Warn().Err(err).Msg("GitHub user lookup failed, storing record without username")
		return ""
	}
	return user.GetLogin()
}
