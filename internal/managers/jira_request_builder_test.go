package managers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/internal/domain"
)

func TestBuildJiraRequest_OAuth(t *testing.T) {
	req, err := BuildJiraRequest(domain.JiraOAuthCredential{
		AccessToken: "at-1",
		CloudID:     "cloud-1",
		SiteName:    "acme",
	}, "/search/jql")
	require.NoError(t, err)

	assert.Equal(t, "https://api.atlassian.com/ex/jira/cloud-1/rest/api/3/search/jql", req.URL)
	assert.Equal(t, "Bearer at-1", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

func TestBuildJiraRequest_Static(t *testing.T) {
	req, err := BuildJiraRequest(domain.JiraStaticCredential{
		Email:    "pm@acme.dev",
		APIToken: "api-token",
		Domain:   "acme.atlassian.net",
	}, "/issue")
	require.NoError(t, err)

	assert.Equal(t, "https://acme.atlassian.net/rest/api/3/issue", req.URL)
	// base64("pm@acme.dev:api-token")
	assert.Equal(t, "Basic cG1AYWNtZS5kZXY6YXBpLXRva2Vu", req.Header.Get("Authorization"))
}

func TestBuildJiraRequest_Refusals(t *testing.T) {
	cases := []domain.JiraCredential{
		domain.JiraNotConnected{},
		// Degraded OAuth credential: connected, but no token to build with.
		domain.JiraOAuthCredential{CloudID: "cloud-1", SiteName: "acme"},
		domain.JiraStaticCredential{Email: "pm@acme.dev"},
	}

	for _, cred := range cases {
		_, err := BuildJiraRequest(cred, "/issue")
		assert.ErrorIs(t, err, domain.ErrNotConnected)
	}
}
