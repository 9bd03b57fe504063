package managers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/vault"
)

// Token-endpoint calls are bounded; a timeout counts as a refresh failure.
const refreshTimeout = 10 * time.Second

type JiraCredentialManager struct {
	store      *vault.Store
	cfg        domain.JiraConfig
	httpClient *http.Client
	refreshes  *RefreshGroup
}

type JiraCredentialManagerDependencies struct {
	Store  *vault.Store
	Config domain.JiraConfig
	// HTTPClient overrides the default bounded client, mainly for tests.
	HTTPClient *http.Client
	Refreshes  *RefreshGroup
}

func NewJiraCredentialManager(deps JiraCredentialManagerDependencies) *JiraCredentialManager {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: refreshTimeout}
	}
	refreshes := deps.Refreshes
	if refreshes == nil {
		refreshes = NewRefreshGroup()
	}

	return &JiraCredentialManager{
		store:      deps.Store,
		cfg:        deps.Config,
		httpClient: httpClient,
		refreshes:  refreshes,
	}
}

// Resolve returns the credential to use for one Jira call. The stored record
// never holds an access token, so a stored record always means a refresh
// round trip; the rotated refresh token is rewritten to the jar before the
// credential is returned.
func (m *JiraCredentialManager) Resolve(ctx context.Context, jar vault.CookieJar) domain.JiraCredential {
	if m.store.IsDisabled(jar, domain.ProviderJira) {
		return domain.JiraNotConnected{}
	}

	record, ok := vault.GetRecord[domain.JiraTokenRecord](m.store, jar, domain.ProviderJira)
	if ok {
		token, err := m.refreshAndPersist(ctx, jar, *record)
		if err != nil {
			// Deliberate policy: still connected so the settings UI keeps
			// showing the site, but with no bearer token, so the failure
			// surfaces at the point of use.
			log.Warn().Err(err).Msg("Jira token refresh failed, returning degraded credential")
			return domain.JiraOAuthCredential{
				CloudID:  record.CloudID,
				SiteName: record.SiteName,
			}
		}

		return domain.JiraOAuthCredential{
			AccessToken: token.AccessToken,
			CloudID:     record.CloudID,
			SiteName:    record.SiteName,
		}
	}

	if m.cfg.HasStaticCredentials() {
		return domain.JiraStaticCredential{
			Email:      m.cfg.Email,
			APIToken:   m.cfg.APIToken,
			Domain:     m.cfg.Domain,
			ProjectKey: m.cfg.ProjectKey,
		}
	}

	return domain.JiraNotConnected{}
}

// refreshAndPersist trades the stored refresh token for a fresh access token
// and rewrites the store with the rotated refresh token in the same
// operation. Skipping the rewrite would leave a spent single-use token in
// the cookie and permanently break the connection on the next resolve.
func (m *JiraCredentialManager) refreshAndPersist(ctx context.Context, jar vault.CookieJar, record domain.JiraTokenRecord) (*oauth2.Token, error) {
	if m.cfg.OAuthClientID == "" || m.cfg.OAuthClientSecret == "" {
		return nil, domain.NewConfigurationError("JIRA_OAUTH_CLIENT_ID", "JIRA_OAUTH_CLIENT_SECRET")
	}

	return m.refreshes.Refresh("jira:"+record.RefreshToken, func() (*oauth2.Token, error) {
		conf := &oauth2.Config{
			ClientID:     m.cfg.OAuthClientID,
			ClientSecret: m.cfg.OAuthClientSecret,
			Endpoint:     m.cfg.Endpoint(),
		}

		ctx := context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
		token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: record.RefreshToken}).Token()
		if err != nil {
			return nil, &domain.RefreshError{Provider: domain.ProviderJira, Err: err}
		}

		rotated := record
		if token.RefreshToken != "" {
			rotated.RefreshToken = token.RefreshToken
		}
		if err := m.store.Put(jar, domain.ProviderJira, rotated); err != nil {
			return nil, &domain.RefreshError{Provider: domain.ProviderJira, Err: err}
		}

		return token, nil
	})
}
