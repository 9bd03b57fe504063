package managers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/prodpilot/prodpilot/internal/domain"
)

// JiraRequest is a ready-to-send request target for one Jira REST v3 call.
type JiraRequest struct {
	URL    string
	Header http.Header
}

// BuildJiraRequest builds the URL and auth header for a Jira REST v3 path.
// OAuth credentials target Atlassian's API gateway keyed by cloud id; static
// credentials target the tenant domain with basic auth. A degraded OAuth
// credential (refresh failed, no access token) or a not-connected credential
// is refused: callers must check Connected() before building requests.
func BuildJiraRequest(cred domain.JiraCredential, path string) (JiraRequest, error) {
	return buildJiraRequest(cred, domain.JiraAPIBaseURL, path)
}

// BuildJiraRequestWithBase is BuildJiraRequest with the OAuth gateway base
// overridden, used when tests point the proxy at a mock server.
func BuildJiraRequestWithBase(cred domain.JiraCredential, proxyBase, path string) (JiraRequest, error) {
	return buildJiraRequest(cred, proxyBase, path)
}

func buildJiraRequest(cred domain.JiraCredential, proxyBase, path string) (JiraRequest, error) {
	switch c := cred.(type) {
	case domain.JiraOAuthCredential:
		if c.AccessToken == "" || c.CloudID == "" {
			return JiraRequest{}, fmt.Errorf("jira oauth credential has no usable access token: %w", domain.ErrNotConnected)
		}
		return JiraRequest{
			URL:    fmt.Sprintf("%s/ex/jira/%s/rest/api/3%s", proxyBase, c.CloudID, path),
			Header: jiraHeader("Bearer " + c.AccessToken),
		}, nil

	case domain.JiraStaticCredential:
		if c.Email == "" || c.APIToken == "" || c.Domain == "" {
			return JiraRequest{}, fmt.Errorf("jira static credential is incomplete: %w", domain.ErrNotConnected)
		}
		auth := base64.StdEncoding.EncodeToString([]byte(c.Email + ":" + c.APIToken))
		return JiraRequest{
			URL:    fmt.Sprintf("https://%s/rest/api/3%s", c.Domain, path),
			Header: jiraHeader("Basic " + auth),
		}, nil

	default:
		return JiraRequest{}, domain.ErrNotConnected
	}
}

func jiraHeader(authorization string) http.Header {
	h := http.Header{}
	h.Set("Authorization", authorization)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}
