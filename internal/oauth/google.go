package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/prodpilot/prodpilot/internal/domain"
)

const googleCalendarScope = "https://www.googleapis.com/auth/calendar"

type GoogleExchanger struct {
	cfg        domain.GoogleConfig
	appURL     string
	httpClient *http.Client
}

func NewGoogleExchanger(cfg domain.GoogleConfig, appURL string, httpClient *http.Client) *GoogleExchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: exchangeTimeout}
	}
	return &GoogleExchanger{cfg: cfg, appURL: appURL, httpClient: httpClient}
}

func (e *GoogleExchanger) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     e.cfg.ClientID,
		ClientSecret: e.cfg.ClientSecret,
		Endpoint:     e.cfg.Endpoint(),
		RedirectURL:  e.appURL + "/auth/google/callback",
		Scopes:       []string{googleCalendarScope},
	}
}

func (e *GoogleExchanger) AuthorizeURL(state string) (string, error) {
	if e.cfg.ClientID == "" {
		return "", domain.NewConfigurationError("GOOGLE_CLIENT_ID")
	}

	// offline + forced consent, or Google omits the refresh token on
	// repeat authorizations.
	return e.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades the code for tokens and keeps only the refresh token (the
// resolver derives access tokens on demand), plus the account email from the
// userinfo endpoint for display. The email lookup is best effort.
func (e *GoogleExchanger) Exchange(ctx context.Context, code string) (domain.GoogleTokenRecord, error) {
	if e.cfg.ClientID == "" || e.cfg.ClientSecret == "" {
		return domain.GoogleTokenRecord{}, domain.NewConfigurationError("GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := e.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return domain.GoogleTokenRecord{}, &domain.ExchangeError{Provider: domain.ProviderGoogle, Reason: "google_auth_failed", Err: err}
	}
	if token.RefreshToken == "" {
		return domain.GoogleTokenRecord{}, &domain.ExchangeError{
			Provider: domain.ProviderGoogle,
			Reason:   "google_no_refresh_token",
			Err:      fmt.Errorf("token response carried no refresh token"),
		}
	}

	return domain.GoogleTokenRecord{
		RefreshToken: token.RefreshToken,
		Email:        e.lookupEmail(ctx, token.AccessToken),
	}, nil
}

// lookupEmail returns "" on any failure: the email is display metadata, not
// part of the credential.
func (e *GoogleExchanger) lookupEmail(ctx context.Context, accessToken string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.UserinfoEndpoint(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Google userinfo lookup failed, storing record without email")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Google userinfo lookup failed, storing record without email")
		return ""
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ""
	}
	return info.Email
}
