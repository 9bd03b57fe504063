package jira

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prodpilot/prodpilot/internal/domain"
)

type JiraConnectionTester struct {
	cfg        domain.JiraConfig
	httpClient *http.Client
}

func NewJiraConnectionTester(cfg domain.JiraConfig, httpClient *http.Client) *JiraConnectionTester {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &JiraConnectionTester{cfg: cfg, httpClient: httpClient}
}

// TestConnection fetches the current user profile to prove the credential
// actually authenticates, not just that it exists.
func (t *JiraConnectionTester) TestConnection(ctx context.Context, cred domain.JiraCredential) (bool, error) {
	client, err := newJiraClient(ctx, cred, t.cfg, t.httpClient)
	if err != nil {
		return false, err
	}

	user, _, err := client.User.GetSelfWithContext(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Jira connection test failed")
		return false, fmt.Errorf("jira connection test failed: %w", err)
	}
	if user.AccountID == "" {
		return false, fmt.Errorf("jira returned no account for the credential")
	}

	log.Info().Str("account_id", user.AccountID).Msg("Jira connection verified")
	return true, nil
}
