package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prodpilot/prodpilot/internal/domain"
)

type GitHubConnectionTester struct {
	cfg        domain.GitHubConfig
	httpClient *http.Client
}

func NewGitHubConnectionTester(cfg domain.GitHubConfig, httpClient *http.Client) *GitHubConnectionTester {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GitHubConnectionTester{cfg: cfg, httpClient: httpClient}
}

// TestConnection fetches the authenticated user to prove the token works.
func (t *GitHubConnectionTester) TestConnection(ctx context.Context, cred domain.GitHubCredential) (bool, error) {
	i := &GitHubIntegration{cred: cred, cfg: t.cfg, httpClient: t.httpClient}
	client, err := i.client()
	if err != nil {
		return false, err
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		log.Warn().Err(err).Msg("GitHub connection test failed")
		return false, fmt.Errorf("github connection test failed: %w", err)
	}

	log.Info().Str("login", user.GetLogin()).Msg("GitHub connection verified")
	return user.GetLogin() != "", nil
}
