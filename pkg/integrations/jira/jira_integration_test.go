package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/internal/domain"
)

func testCredential() domain.JiraCredential {
	return domain.JiraOAuthCredential{
		AccessToken: "at-1",
		CloudID:     "cloud-1",
		SiteName:    "acme",
	}
}

func newTestIntegration(serverURL string) *JiraIntegration {
	return NewJiraIntegration(JiraIntegrationDependencies{
		Credential: testCredential(),
		Config:     domain.JiraConfig{ProjectKey: "PROD", APIBaseURL: serverURL},
	})
}

func TestCreateIssue(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ex/jira/cloud-1/rest/api/3/issue", r.URL.Path)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "PROD-42"})
	}))
	defer srv.Close()

	created, err := newTestIntegration(srv.URL).CreateIssue(context.Background(), CreateIssueParams{
		Title:              "Add SSO",
		Description:        "Support SAML login",
		Type:               "Story",
		Priority:           "High",
		Labels:             []string{"auth"},
		AcceptanceCriteria: "Login works with Okta",
	})
	require.NoError(t, err)

	assert.Equal(t, "PROD-42", created.TicketID)
	assert.Equal(t, "Story", created.Type)
	assert.Equal(t, "High", created.Priority)
	assert.Equal(t, "To Do", created.Status)
	assert.Equal(t, "https://acme.atlassian.net/browse/PROD-42", created.URL)

	fields := captured["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"key": "PROD"}, fields["project"])
	assert.Equal(t, "Add SSO", fields["summary"])

	// acceptance criteria are folded into the ADF description text
	description := fields["description"].(map[string]any)
	assert.Equal(t, "doc", description["type"])
	paragraph := description["content"].([]any)[0].(map[string]any)
	text := paragraph["content"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "Support SAML login")
	assert.Contains(t, text, "*Acceptance Criteria:*\nLogin works with Okta")
}

func TestCreateIssue_NormalizesTypeAndPriority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fields := body["fields"].(map[string]any)
		assert.Equal(t, map[string]any{"name": "Task"}, fields["issuetype"])
		assert.Equal(t, map[string]any{"name": "Medium"}, fields["priority"])
		_, hasLabels := fields["labels"]
		assert.False(t, hasLabels)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "PROD-1"})
	}))
	defer srv.Close()

	created, err := newTestIntegration(srv.URL).CreateIssue(context.Background(), CreateIssueParams{
		Title:    "Misc",
		Type:     "Chore",
		Priority: "Urgent",
	})
	require.NoError(t, err)
	assert.Equal(t, "Task", created.Type)
	assert.Equal(t, "Medium", created.Priority)
	assert.Equal(t, []string{}, created.Labels)
}

func TestSearchIssues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ex/jira/cloud-1/rest/api/3/search/jql", r.URL.Path)

		var body struct {
			JQL        string `json:"jql"`
			MaxResults int    `json:"maxResults"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `project = PROD AND status = "In Progress" AND assignee is EMPTY ORDER BY updated DESC`, body.JQL)
		assert.Equal(t, 20, body.MaxResults)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"issues": []map[string]any{{
				"key": "PROD-7",
				"fields": map[string]any{
					"summary":   "Fix login",
					"status":    map[string]string{"name": "In Progress"},
					"priority":  map[string]string{"name": "High"},
					"issuetype": map[string]string{"name": "Bug"},
					"assignee":  nil,
					"labels":    []string{"auth"},
					"updated":   "2026-08-30T10:00:00.000+0000",
				},
			}},
		})
	}))
	defer srv.Close()

	result, err := newTestIntegration(srv.URL).SearchIssues(context.Background(), SearchParams{
		Status:   "In Progress",
		Assignee: "unassigned",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Tickets, 1)
	ticket := result.Tickets[0]
	assert.Equal(t, "PROD-7", ticket.TicketID)
	assert.Equal(t, "In Progress", ticket.Status)
	assert.Equal(t, "Unassigned", ticket.Assignee)
	assert.Equal(t, "https://acme.atlassian.net/browse/PROD-7", ticket.URL)
}

func TestUpdateIssue_TransitionAndFields(t *testing.T) {
	var transitioned, updated bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ex/jira/cloud-1/rest/api/3/issue/PROD-7/transitions" && r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"transitions": []map[string]string{
					{"id": "11", "name": "To Do"},
					{"id": "31", "name": "Done"},
				},
			})
		case r.URL.Path == "/ex/jira/cloud-1/rest/api/3/issue/PROD-7/transitions" && r.Method == http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, map[string]any{"id": "31"}, body["transition"])
			transitioned = true
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/ex/jira/cloud-1/rest/api/3/issue/PROD-7" && r.Method == http.MethodPut:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			fields := body["fields"].(map[string]any)
			assert.Equal(t, "Fix login flow", fields["summary"])
			updated = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	result, err := newTestIntegration(srv.URL).UpdateIssue(context.Background(), UpdateIssueParams{
		TicketID: "PROD-7",
		Summary:  "Fix login flow",
		Status:   "done",
	})
	require.NoError(t, err)

	assert.True(t, transitioned)
	assert.True(t, updated)
	assert.Equal(t, "updated", result.Action)
	assert.Equal(t, map[string]any{"summary": "Fix login flow", "status": "done"}, result.Changes)
}

func TestUpdateIssue_UnknownTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transitions": []map[string]string{{"id": "11", "name": "To Do"}},
		})
	}))
	defer srv.Close()

	_, err := newTestIntegration(srv.URL).UpdateIssue(context.Background(), UpdateIssueParams{
		TicketID: "PROD-7",
		Status:   "Shipped",
	})
	require.ErrorIs(t, err, ErrUnknownTransition)
	assert.Contains(t, err.Error(), "To Do")
}

func TestAssignIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ex/jira/cloud-1/rest/api/2/user/search":
			assert.Equal(t, "pm@acme.dev", r.URL.Query().Get("query"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]map[string]string{
				{"accountId": "acct-1", "displayName": "Pat Miller"},
			})
		case r.URL.Path == "/ex/jira/cloud-1/rest/api/3/issue/PROD-7/assignee" && r.Method == http.MethodPut:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "acct-1", body["accountId"])
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	result, err := newTestIntegration(srv.URL).AssignIssue(context.Background(), AssignIssueParams{
		TicketID:      "PROD-7",
		AssigneeEmail: "pm@acme.dev",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pat Miller", result.Assignee)
	assert.Equal(t, "assigned", result.Action)
}

func TestAssignIssue_NoSuchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	_, err := newTestIntegration(srv.URL).AssignIssue(context.Background(), AssignIssueParams{
		TicketID:      "PROD-7",
		AssigneeEmail: "ghost@acme.dev",
	})
	require.ErrorIs(t, err, ErrNoSuchUser)
}

func TestUpstreamErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errorMessages":["scope missing"]}`))
	}))
	defer srv.Close()

	_, err := newTestIntegration(srv.URL).CreateIssue(context.Background(), CreateIssueParams{Title: "x"})
	var upstream *domain.UpstreamAPIError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.Status)
	assert.Contains(t, upstream.Body, "scope missing")
}

func TestConnectionTester(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ex/jira/cloud-1/rest/api/2/myself", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"accountId": "acct-1", "displayName": "Pat Miller"})
	}))
	defer srv.Close()

	tester := NewJiraConnectionTester(domain.JiraConfig{APIBaseURL: srv.URL}, nil)
	ok, err := tester.TestConnection(context.Background(), testCredential())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConnectionTester_NotConnected(t *testing.T) {
	tester := NewJiraConnectionTester(domain.JiraConfig{}, nil)
	ok, err := tester.TestConnection(context.Background(), domain.JiraNotConnected{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}
