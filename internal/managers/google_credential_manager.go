package managers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/vault"
)

type GoogleCredentialManager struct {
	store      *vault.Store
	cfg        domain.GoogleConfig
	httpClient *http.Client
	refreshes  *RefreshGroup
}

type GoogleCredentialManagerDependencies struct {
	Store      *vault.Store
	Config     domain.GoogleConfig
	HTTPClient *http.Client
	Refreshes  *RefreshGroup
}

func NewGoogleCredentialManager(deps GoogleCredentialManagerDependencies) *GoogleCredentialManager {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: refreshTimeout}
	}
	refreshes := deps.Refreshes
	if refreshes == nil {
		refreshes = NewRefreshGroup()
	}

	return &GoogleCredentialManager{
		store:      deps.Store,
		cfg:        deps.Config,
		httpClient: httpClient,
		refreshes:  refreshes,
	}
}

// Resolve exchanges a refresh token (stored or statically configured) for a
// short-lived access token on every call. Google refresh tokens do not
// rotate, so nothing is written back. Unlike Jira, a refresh failure here
// degrades to not connected.
func (m *GoogleCredentialManager) Resolve(ctx context.Context, jar vault.CookieJar) domain.GoogleCredential {
	if m.store.IsDisabled(jar, domain.ProviderGoogle) {
		return domain.GoogleNotConnected{}
	}

	record, ok := vault.GetRecord[domain.GoogleTokenRecord](m.store, jar, domain.ProviderGoogle)
	if ok && m.cfg.HasClient() {
		token, err := m.refresh(ctx, record.RefreshToken)
		if err != nil {
			log.Warn().Err(err).Msg("Google token refresh failed")
			return domain.GoogleNotConnected{}
		}
		return domain.GoogleOAuthCredential{AccessToken: token.AccessToken, Email: record.Email}
	}

	if m.cfg.HasClient() && m.cfg.RefreshToken != "" {
		token, err := m.refresh(ctx, m.cfg.RefreshToken)
		if err != nil {
			log.Warn().Err(err).Msg("Google token refresh failed for static refresh token")
			return domain.GoogleNotConnected{}
		}
		return domain.GoogleStaticCredential{AccessToken: token.AccessToken}
	}

	return domain.GoogleNotConnected{}
}

func (m *GoogleCredentialManager) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return m.refreshes.Refresh("google:"+refreshToken, func() (*oauth2.Token, error) {
		conf := &oauth2.Config{
			ClientID:     m.cfg.ClientID,
			ClientSecret: m.cfg.ClientSecret,
			Endpoint:     m.cfg.Endpoint(),
		}

		ctx := context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
		token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return nil, &domain.RefreshError{Provider: domain.ProviderGoogle, Err: err}
		}
		return token, nil
	})
}
