package managers

import (
	"context"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/vault"
)

// SlackCredentialManager resolves Slack credentials. Slack bot tokens are
// long-lived, so resolution never hits the network.
type SlackCredentialManager struct {
	store *vault.Store
	cfg   domain.SlackConfig
}

type SlackCredentialManagerDependencies struct {
	Store  *vault.Store
	Config domain.SlackConfig
}

func NewSlackCredentialManager(deps SlackCredentialManagerDependencies) *SlackCredentialManager {
	return &SlackCredentialManager{store: deps.Store, cfg: deps.Config}
}

func (m *SlackCredentialManager) Resolve(_ context.Context, jar vault.CookieJar) domain.SlackCredential {
	if m.store.IsDisabled(jar, domain.ProviderSlack) {
		return domain.SlackNotConnected{}
	}

	record, ok := vault.GetRecord[domain.SlackTokenRecord](m.store, jar, domain.ProviderSlack)
	if ok {
		return domain.SlackOAuthCredential{
			BotToken: record.BotToken,
			TeamName: record.TeamName,
			TeamID:   record.TeamID,
		}
	}

	if m.cfg.BotToken != "" {
		return domain.SlackStaticCredential{
			BotToken:  m.cfg.BotToken,
			ChannelID: m.cfg.ChannelID,
		}
	}

	return domain.SlackNotConnected{}
}
