package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/managers"
)

var (
	// ErrUnknownTransition means the requested status has no matching
	// workflow transition on the issue.
	ErrUnknownTransition = errors.New("unknown status transition")

	// ErrNoSuchUser means the assignee email matched no Jira user.
	ErrNoSuchUser = errors.New("no jira user found")
)

var issueTypeNames = map[string]struct{}{
	"Story": {}, "Task": {}, "Bug": {}, "Epic": {}, "Feature": {},
}

var priorityNames = map[string]struct{}{
	"Highest": {}, "High": {}, "Medium": {}, "Low": {}, "Lowest": {},
}

type JiraIntegration struct {
	cred       domain.JiraCredential
	cfg        domain.JiraConfig
	httpClient *http.Client
}

type JiraIntegrationDependencies struct {
	Credential domain.JiraCredential
	Config     domain.JiraConfig
	HTTPClient *http.Client
}

func NewJiraIntegration(deps JiraIntegrationDependencies) *JiraIntegration {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &JiraIntegration{
		cred:       deps.Credential,
		cfg:        deps.Config,
		httpClient: httpClient,
	}
}

// CreateIssue creates an issue in the configured project. Acceptance
// criteria, when present, are appended to the description before it is
// wrapped into an ADF document.
func (i *JiraIntegration) CreateIssue(ctx context.Context, p CreateIssueParams) (*CreatedIssue, error) {
	projectKey, err := i.projectKey()
	if err != nil {
		return nil, err
	}

	issueType := normalizeName(p.Type, issueTypeNames, "Task")
	priority := normalizeName(p.Priority, priorityNames, "Medium")

	description := p.Description
	if p.AcceptanceCriteria != "" {
		description += "\n\n*Acceptance Criteria:*\n" + p.AcceptanceCriteria
	}

	fields := map[string]any{
		"project":     map[string]string{"key": projectKey},
		"summary":     p.Title,
		"description": textDocument(description),
		"issuetype":   map[string]string{"name": issueType},
		"priority":    map[string]string{"name": priority},
	}
	if len(p.Labels) > 0 {
		fields["labels"] = p.Labels
	}

	var created createIssueResponse
	if err := i.do(ctx, http.MethodPost, "/issue", map[string]any{"fields": fields}, &created); err != nil {
		return nil, err
	}

	labels := p.Labels
	if labels == nil {
		labels = []string{}
	}

	return &CreatedIssue{
		TicketID:    created.Key,
		Title:       p.Title,
		Description: p.Description,
		Type:        issueType,
		Priority:    priority,
		Labels:      labels,
		Status:      "To Do",
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		URL:         i.browseURL(created.Key),
	}, nil
}

// SearchIssues runs a JQL search scoped to the configured project.
func (i *JiraIntegration) SearchIssues(ctx context.Context, p SearchParams) (*SearchResult, error) {
	projectKey, err := i.projectKey()
	if err != nil {
		return nil, err
	}

	jqlParts := []string{fmt.Sprintf("project = %s", projectKey)}
	if p.Status != "" {
		jqlParts = append(jqlParts, fmt.Sprintf("status = %q", p.Status))
	}
	if p.Assignee != "" {
		if p.Assignee == "unassigned" {
			jqlParts = append(jqlParts, "assignee is EMPTY")
		} else {
			jqlParts = append(jqlParts, fmt.Sprintf("assignee = %q", p.Assignee))
		}
	}
	if p.Type != "" {
		jqlParts = append(jqlParts, fmt.Sprintf("issuetype = %q", p.Type))
	}

	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	body := map[string]any{
		"jql":        strings.Join(jqlParts, " AND ") + " ORDER BY updated DESC",
		"maxResults": maxResults,
		"fields":     []string{"summary", "status", "priority", "issuetype", "assignee", "labels", "updated"},
	}

	var resp searchResponse
	if err := i.do(ctx, http.MethodPost, "/search/jql", body, &resp); err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		t := Ticket{
			TicketID:  issue.Key,
			Title:     issue.Fields.Summary,
			Status:    "Unknown",
			Priority:  "Medium",
			Type:      "Task",
			Assignee:  "Unassigned",
			Labels:    issue.Fields.Labels,
			UpdatedAt: issue.Fields.Updated,
			URL:       i.browseURL(issue.Key),
		}
		if issue.Fields.Status != nil {
			t.Status = issue.Fields.Status.Name
		}
		if issue.Fields.Priority != nil {
			t.Priority = issue.Fields.Priority.Name
		}
		if issue.Fields.Type != nil {
			t.Type = issue.Fields.Type.Name
		}
		if issue.Fields.Assignee != nil {
			t.Assignee = issue.Fields.Assignee.DisplayName
			t.AssigneeEmail = issue.Fields.Assignee.EmailAddress
		}
		if t.Labels == nil {
			t.Labels = []string{}
		}
		tickets = append(tickets, t)
	}

	return &SearchResult{Tickets: tickets, Total: resp.Total}, nil
}

// UpdateIssue edits issue fields and, when a status is requested, walks the
// workflow transition matching it by name. An unknown status fails before any
// field is touched.
func (i *JiraIntegration) UpdateIssue(ctx context.Context, p UpdateIssueParams) (*UpdatedIssue, error) {
	if p.Status != "" {
		if err := i.transitionIssue(ctx, p.TicketID, p.Status); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{}
	if p.Summary != "" {
		fields["summary"] = p.Summary
	}
	if p.Priority != "" {
		fields["priority"] = map[string]string{"name": p.Priority}
	}
	if p.Labels != nil {
		fields["labels"] = p.Labels
	}

	if len(fields) > 0 {
		path := fmt.Sprintf("/issue/%s", p.TicketID)
		if err := i.do(ctx, http.MethodPut, path, map[string]any{"fields": fields}, nil); err != nil {
			return nil, err
		}
	}

	changes := map[string]any{}
	if p.Summary != "" {
		changes["summary"] = p.Summary
	}
	if p.Priority != "" {
		changes["priority"] = p.Priority
	}
	if p.Labels != nil {
		changes["labels"] = p.Labels
	}
	if p.Status != "" {
		changes["status"] = p.Status
	}

	return &UpdatedIssue{
		TicketID: p.TicketID,
		Action:   "updated",
		Changes:  changes,
		URL:      i.browseURL(p.TicketID),
	}, nil
}

func (i *JiraIntegration) transitionIssue(ctx context.Context, ticketID, status string) error {
	path := fmt.Sprintf("/issue/%s/transitions", ticketID)

	var resp transitionsResponse
	if err := i.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}

	for _, tr := range resp.Transitions {
		if strings.EqualFold(tr.Name, status) {
			body := map[string]any{"transition": map[string]string{"id": tr.ID}}
			return i.do(ctx, http.MethodPost, path, body, nil)
		}
	}

	available := make([]string, 0, len(resp.Transitions))
	for _, tr := range resp.Transitions {
		available = append(available, tr.Name)
	}
	return fmt.Errorf("%w: cannot transition to %q, available: %s",
		ErrUnknownTransition, status, strings.Join(available, ", "))
}

// AssignIssue resolves the assignee email to an account id through user
// search and sets the issue assignee.
func (i *JiraIntegration) AssignIssue(ctx context.Context, p AssignIssueParams) (*AssignedIssue, error) {
	user, err := i.findUser(ctx, p.AssigneeEmail)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/issue/%s/assignee", p.TicketID)
	body := map[string]string{"accountId": user.AccountID}
	if err := i.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return nil, err
	}

	return &AssignedIssue{
		TicketID:      p.TicketID,
		Assignee:      user.DisplayName,
		AssigneeEmail: p.AssigneeEmail,
		Action:        "assigned",
		URL:           i.browseURL(p.TicketID),
	}, nil
}

func (i *JiraIntegration) do(ctx context.Context, method, path string, body, out any) error {
	target, err := managers.BuildJiraRequestWithBase(i.cred, i.cfg.ProxyBaseURL(), path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode jira request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.URL, reader)
	if err != nil {
		return fmt.Errorf("failed to build jira request: %w", err)
	}
	req.Header = target.Header

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error().Int("status", resp.StatusCode).Str("path", path).Msg("Jira API returned an error")
		return &domain.UpstreamAPIError{
			Provider: domain.ProviderJira,
			Status:   resp.StatusCode,
			Body:     string(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode jira response: %w", err)
	}
	return nil
}

// projectKey prefers the static credential's project, falling back to the
// configured one for OAuth sessions.
func (i *JiraIntegration) projectKey() (string, error) {
	if c, ok := i.cred.(domain.JiraStaticCredential); ok && c.ProjectKey != "" {
		return c.ProjectKey, nil
	}
	if i.cfg.ProjectKey != "" {
		return i.cfg.ProjectKey, nil
	}
	return "", domain.NewConfigurationError("JIRA_PROJECT_KEY")
}

func (i *JiraIntegration) browseURL(key string) string {
	switch c := i.cred.(type) {
	case domain.JiraOAuthCredential:
		return fmt.Sprintf("https://%s.atlassian.net/browse/%s", c.SiteName, key)
	case domain.JiraStaticCredential:
		return fmt.Sprintf("https://%s/browse/%s", c.Domain, key)
	default:
		return ""
	}
}

func normalizeName(name string, allowed map[string]struct{}, fallback string) string {
	if _, ok := allowed[name]; ok {
		return name
	}
	return fallback
}
