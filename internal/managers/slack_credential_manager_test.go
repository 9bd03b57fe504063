package managers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/vault"
)

func TestSlackResolve_StoredRecord(t *testing.T) {
	store := newTestVault(t)
	jar := vault.NewMemoryJar()
	require.NoError(t, store.Put(jar, domain.ProviderSlack, domain.SlackTokenRecord{BotToken: "xoxb-oauth", TeamName: "Acme", TeamID: "T1"}))

	m := NewSlackCredentialManager(SlackCredentialManagerDependencies{Store: store, Config: domain.SlackConfig{BotToken: "xoxb-env"}})
	cred := m.Resolve(context.Background(), jar)

	// Stored record wins over the static fallback.
	oauth, ok := cred.(domain.SlackOAuthCredential)
	require.True(t, ok)
	assert.Equal(t, "xoxb-oauth", oauth.BotToken)
	assert.Equal(t, "Acme", oauth.TeamName)
}

func TestSlackResolve_StaticOnlyEnvironment(t *testing.T) {
	store := newTestVault(t)
	m := NewSlackCredentialManager(SlackCredentialManagerDependencies{
		Store:  store,
		Config: domain.SlackConfig{BotToken: "xoxb-env", ChannelID: "C123"},
	})

	cred := m.Resolve(context.Background(), vault.NewMemoryJar())
	require.True(t, cred.Connected())
	require.Equal(t, domain.CredentialModeStatic, cred.Mode())

	static, ok := cred.(domain.SlackStaticCredential)
	require.True(t, ok)
	assert.Equal(t, "xoxb-env", static.BotToken)
	assert.Equal(t, "C123", static.ChannelID)
}

func TestSlackResolve_DisabledAndEmpty(t *testing.T) {
	store := newTestVault(t)

	jar := vault.NewMemoryJar()
	store.SetDisabled(jar, domain.ProviderSlack)
	m := NewSlackCredentialManager(SlackCredentialManagerDependencies{Store: store, Config: domain.SlackConfig{BotToken: "xoxb-env"}})
	assert.False(t, m.Resolve(context.Background(), jar).Connected())

	m = NewSlackCredentialManager(SlackCredentialManagerDependencies{Store: store})
	assert.False(t, m.Resolve(context.Background(), vault.NewMemoryJar()).Connected())
}

func TestGitHubResolve(t *testing.T) {
	store := newTestVault(t)

	jar := vault.NewMemoryJar()
	require.NoError(t, store.Put(jar, domain.ProviderGitHub, domain.GitHubTokenRecord{AccessToken: "gho_abc", Username: "octocat"}))

	m := NewGitHubCredentialManager(GitHubCredentialManagerDependencies{Store: store, Config: domain.GitHubConfig{PersonalAccessToken: "ghp_env"}})

	cred := m.Resolve(context.Background(), jar)
	oauth, ok := cred.(domain.GitHubOAuthCredential)
	require.True(t, ok)
	assert.Equal(t, "gho_abc", oauth.AccessToken)
	assert.Equal(t, "octocat", oauth.Username)

	// Static fallback on an empty jar.
	cred = m.Resolve(context.Background(), vault.NewMemoryJar())
	require.Equal(t, domain.CredentialModeStatic, cred.Mode())
	static, ok := cred.(domain.GitHubStaticCredential)
	require.True(t, ok)
	assert.Equal(t, "ghp_env", static.AccessToken)

	// Disabled short-circuits both paths.
	store.SetDisabled(jar, domain.ProviderGitHub)
	assert.False(t, m.Resolve(context.Background(), jar).Connected())
}
