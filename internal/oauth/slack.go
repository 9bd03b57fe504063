package oauth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/slack-go/slack"

	"github.com/prodpilot/prodpilot/internal/domain"
)

const slackScopes = "chat:write,chat:write.public,channels:read"

type SlackExchanger struct {
	cfg        domain.SlackConfig
	appURL     string
	httpClient *http.Client
}

func NewSlackExchanger(cfg domain.SlackConfig, appURL string, httpClient *http.Client) *SlackExchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: exchangeTimeout}
	}
	return &SlackExchanger{cfg: cfg, appURL: appURL, httpClient: httpClient}
}

func (e *SlackExchanger) redirectURI() string {
	return e.appURL + "/auth/slack/callback"
}

func (e *SlackExchanger) AuthorizeURL(state string) (string, error) {
	if e.cfg.ClientID == "" {
		return "", domain.NewConfigurationError("SLACK_CLIENT_ID")
	}

	params := url.Values{}
	params.Set("client_id", e.cfg.ClientID)
	params.Set("scope", slackScopes)
	params.Set("redirect_uri", e.redirectURI())
	params.Set("state", state)

	return e.cfg.AuthorizeURL() + "?" + params.Encode(), nil
}

// Exchange performs the oauth.v2.access call. The returned bot token is
// long-lived, so it is the stored credential itself, with no refresh step.
func (e *SlackExchanger) Exchange(ctx context.Context, code string) (domain.SlackTokenRecord, error) {
	if e.cfg.ClientID == "" || e.cfg.ClientSecret == "" {
		return domain.SlackTokenRecord{}, domain.NewConfigurationError("SLACK_CLIENT_ID", "SLACK_CLIENT_SECRET")
	}

	resp, err := slack.GetOAuthV2ResponseContext(ctx, e.httpClient, e.cfg.ClientID, e.cfg.ClientSecret, code, e.redirectURI())
	if err != nil {
		return domain.SlackTokenRecord{}, &domain.ExchangeError{Provider: domain.ProviderSlack, Reason: "slack_auth_failed", Err: err}
	}

	teamName := resp.Team.Name
	if teamName == "" {
		teamName = "Workspace"
	}

	return domain.SlackTokenRecord{
		BotToken: resp.AccessToken,
		TeamName: teamName,
		TeamID:   resp.Team.ID,
	}, nil
}
