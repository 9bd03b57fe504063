package jira

import (
	"context"
	"fmt"
	"net/http"

	gojira "github.com/andygrunwald/go-jira"
	"golang.org/x/oauth2"

	"github.com/prodpilot/prodpilot/internal/domain"
)

// newJiraClient builds a go-jira client for either credential shape. OAuth
// credentials go through the Atlassian API gateway keyed by cloud id; static
// credentials hit the tenant domain with basic auth.
func newJiraClient(ctx context.Context, cred domain.JiraCredential, cfg domain.JiraConfig, base *http.Client) (*gojira.Client, error) {
	switch c := cred.(type) {
	case domain.JiraOAuthCredential:
		if c.AccessToken == "" || c.CloudID == "" {
			return nil, fmt.Errorf("jira oauth credential has no usable access token: %w", domain.ErrNotConnected)
		}
		if base != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.AccessToken})
		baseURL := fmt.Sprintf("%s/ex/jira/%s/", cfg.ProxyBaseURL(), c.CloudID)
		return gojira.NewClient(oauth2.NewClient(ctx, ts), baseURL)

	case domain.JiraStaticCredential:
		if c.Email == "" || c.APIToken == "" || c.Domain == "" {
			return nil, fmt.Errorf("jira static credential is incomplete: %w", domain.ErrNotConnected)
		}
		tp := gojira.BasicAuthTransport{Username: c.Email, Password: c.APIToken}
		if base != nil {
			tp.Transport = base.Transport
		}
		return gojira.NewClient(tp.Client(), fmt.Sprintf("https://%s/", c.Domain))

	default:
		return nil, domain.ErrNotConnected
	}
}

func (i *JiraIntegration) findUser(ctx context.Context, email string) (*gojira.User, error) {
	client, err := newJiraClient(ctx, i.cred, i.cfg, i.httpClient)
	if err != nil {
		return nil, err
	}

	users, _, err := client.User.FindWithContext(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("jira user search failed: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoSuchUser, email)
	}
	return &users[0], nil
}
