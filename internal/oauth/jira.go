// Package oauth implements the per-provider authorization-code exchanges:
// consent URL construction, code-for-token exchange, and the secondary
// lookups needed to build the stored credential record.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/prodpilot/prodpilot/internal/domain"
)

const exchangeTimeout = 10 * time.Second

// jiraScopes must include offline_access or Atlassian issues no refresh
// token and the stored record is useless.
const jiraScopes = "read:jira-work write:jira-work read:jira-user offline_access"

type JiraExchanger struct {
	cfg        domain.JiraConfig
	appURL     string
	httpClient *http.Client
}

func NewJiraExchanger(cfg domain.JiraConfig, appURL string, httpClient *http.Client) *JiraExchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: exchangeTimeout}
	}
	return &JiraExchanger{cfg: cfg, appURL: appURL, httpClient: httpClient}
}

func (e *JiraExchanger) redirectURI() string {
	return e.appURL + "/auth/jira/callback"
}

// AuthorizeURL builds the Atlassian consent URL for the given state value.
func (e *JiraExchanger) AuthorizeURL(state string) (string, error) {
	if e.cfg.OAuthClientID == "" {
		return "", domain.NewConfigurationError("JIRA_OAUTH_CLIENT_ID")
	}

	params := url.Values{}
	params.Set("audience", "api.atlassian.com")
	params.Set("client_id", e.cfg.OAuthClientID)
	params.Set("scope", jiraScopes)
	params.Set("redirect_uri", e.redirectURI())
	params.Set("response_type", "code")
	params.Set("prompt", "consent")
	params.Set("state", state)

	return e.cfg.Endpoint().AuthURL + "?" + params.Encode(), nil
}

// Exchange trades the authorization code for tokens, then resolves the
// first accessible site to obtain the cloud id the API gateway is keyed by.
func (e *JiraExchanger) Exchange(ctx context.Context, code string) (domain.JiraTokenRecord, error) {
	if e.cfg.OAuthClientID == "" || e.cfg.OAuthClientSecret == "" {
		return domain.JiraTokenRecord{}, domain.NewConfigurationError("JIRA_OAUTH_CLIENT_ID", "JIRA_OAUTH_CLIENT_SECRET")
	}

	conf := &oauth2.Config{
		ClientID:     e.cfg.OAuthClientID,
		ClientSecret: e.cfg.OAuthClientSecret,
		Endpoint:     e.cfg.Endpoint(),
		RedirectURL:  e.redirectURI(),
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return domain.JiraTokenRecord{}, &domain.ExchangeError{Provider: domain.ProviderJira, Reason: "jira_token_failed", Err: err}
	}

	site, err := e.firstAccessibleSite(ctx, token.AccessToken)
	if err != nil {
		return domain.JiraTokenRecord{}, err
	}

	// The access token is discarded here on purpose: it is short-lived and
	// large, and resolvers re-derive it via refresh on every read.
	return domain.JiraTokenRecord{
		RefreshToken: token.RefreshToken,
		CloudID:      site.ID,
		SiteName:     site.Name,
	}, nil
}

type jiraSite struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (e *JiraExchanger) firstAccessibleSite(ctx context.Context, accessToken string) (jiraSite, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.AccessibleResourcesURL(), nil)
	if err != nil {
		return jiraSite{}, &domain.ExchangeError{Provider: domain.ProviderJira, Reason: "jira_callback_error", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return jiraSite{}, &domain.ExchangeError{Provider: domain.ProviderJira, Reason: "jira_callback_error", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Jira accessible-resources lookup failed")
		return jiraSite{}, &domain.ExchangeError{
			Provider: domain.ProviderJira,
			Reason:   "jira_callback_error",
			Err:      fmt.Errorf("accessible-resources returned status %d", resp.StatusCode),
		}
	}

	var sites []jiraSite
	if err := json.NewDecoder(resp.Body).Decode(&sites); err != nil {
		return jiraSite{}, &domain.ExchangeError{Provider: domain.ProviderJira, Reason: "jira_callback_error", Err: err}
	}
	if len(sites) == 0 {
		return jiraSite{}, &domain.ExchangeError{
			Provider: domain.ProviderJira,
			Reason:   "no_jira_sites",
			Err:      fmt.Errorf("no accessible Jira sites for this account"),
		}
	}

	return sites[0], nil
}
