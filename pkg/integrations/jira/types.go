package jira

// Atlassian Document Format, the minimal subset issue descriptions need.
type adfDocument struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

func textDocument(text string) adfDocument {
	return adfDocument{
		Type:    "doc",
		Version: 1,
		Content: []adfNode{
			{
				Type:    "paragraph",
				Content: []adfNode{{Type: "text", Text: text}},
			},
		},
	}
}

type CreateIssueParams struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Type               string   `json:"type"`
	Priority           string   `json:"priority"`
	Labels             []string `json:"labels"`
	AcceptanceCriteria string   `json:"acceptanceCriteria"`
}

type CreatedIssue struct {
	TicketID    string   `json:"ticketId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Labels      []string `json:"labels"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"createdAt"`
	URL         string   `json:"url"`
}

type SearchParams struct {
	Status     string
	Assignee   string
	Type       string
	MaxResults int
}

type Ticket struct {
	TicketID      string   `json:"ticketId"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	Priority      string   `json:"priority"`
	Type          string   `json:"type"`
	Assignee      string   `json:"assignee"`
	AssigneeEmail string   `json:"assigneeEmail,omitempty"`
	Labels        []string `json:"labels"`
	UpdatedAt     string   `json:"updatedAt"`
	URL           string   `json:"url"`
}

type SearchResult struct {
	Tickets []Ticket `json:"tickets"`
	Total   int      `json:"total"`
}

type UpdateIssueParams struct {
	TicketID string   `json:"ticketId"`
	Summary  string   `json:"summary"`
	Priority string   `json:"priority"`
	Labels   []string `json:"labels"`
	Status   string   `json:"status"`
}

type UpdatedIssue struct {
	TicketID string         `json:"ticketId"`
	Action   string         `json:"action"`
	Changes  map[string]any `json:"changes"`
	URL      string         `json:"url"`
}

type AssignIssueParams struct {
	TicketID      string `json:"ticketId"`
	AssigneeEmail string `json:"assigneeEmail"`
}

type AssignedIssue struct {
	TicketID      string `json:"ticketId"`
	Assignee      string `json:"assignee"`
	AssigneeEmail string `json:"assigneeEmail"`
	Action        string `json:"action"`
	URL           string `json:"url"`
}

// Wire shapes for the Jira REST v3 responses we read.

type createIssueResponse struct {
	Key string `json:"key"`
}

type searchResponse struct {
	Total  int           `json:"total"`
	Issues []searchIssue `json:"issues"`
}

type searchIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary  string      `json:"summary"`
		Status   *namedField `json:"status"`
		Priority *namedField `json:"priority"`
		Type     *namedField `json:"issuetype"`
		Assignee *struct {
			DisplayName  string `json:"displayName"`
			EmailAddress string `json:"emailAddress"`
		} `json:"assignee"`
		Labels  []string `json:"labels"`
		Updated string   `json:"updated"`
	} `json:"fields"`
}

type namedField struct {
	Name string `json:"name"`
}

type transitionsResponse struct {
	Transitions []issueTransition `json:"transitions"`
}

type issueTransition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
