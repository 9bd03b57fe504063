package managers

import (
	"context"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/vault"
)

// GitHubCredentialManager resolves GitHub credentials. GitHub OAuth tokens
// issued without expiry behave like personal access tokens, so resolution
// never hits the network.
type GitHubCredentialManager struct {
	store *vault.Store
	cfg   domain.GitHubConfig
}

type GitHubCredentialManagerDependencies struct {
	Store  *vault.Store
	Config domain.GitHubConfig
}

func NewGitHubCredentialManager(deps GitHubCredentialManagerDependencies) *GitHubCredentialManager {
	return &GitHubCredentialManager{store: deps.Store, cfg: deps.Config}
}

func (m *GitHubCredentialManager) Resolve(_ context.Context, jar vault.CookieJar) domain.GitHubCredential {
	if m.store.IsDisabled(jar, domain.ProviderGitHub) {
		return domain.GitHubNotConnected{}
	}

	record, ok := vault.GetRecord[domain.GitHubTokenRecord](m.store, jar, domain.ProviderGitHub)
	if ok {
		return domain.GitHubOAuthCredential{
			AccessToken: record.AccessToken,
			Username:    record.Username,
		}
	}

	if m.cfg.PersonalAccessToken != "" {
		return domain.GitHubStaticCredential{AccessToken: m.cfg.PersonalAccessToken}
	}

	return domain.GitHubNotConnected{}
}
