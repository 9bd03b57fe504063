package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/prodpilot/prodpilot/internal/domain"
	githubintegration "github.com/prodpilot/prodpilot/pkg/integrations/github"
	"github.com/prodpilot/prodpilot/pkg/integrations/googlecalendar"
	jiraintegration "github.com/prodpilot/prodpilot/pkg/integrations/jira"
	slackintegration "github.com/prodpilot/prodpilot/pkg/integrations/slack"
)

var providerDisplayNames = map[domain.Provider]string{
	domain.ProviderJira:   "Jira",
	domain.ProviderSlack:  "Slack",
	domain.ProviderGoogle: "Google Calendar",
	domain.ProviderGitHub: "GitHub",
}

// ToolsController exposes the provider tool routes: ticket, message, calendar
// and repository actions driven by resolved credentials.
type ToolsController struct {
	cfg        domain.Config
	resolvers  Resolvers
	httpClient *http.Client
}

type ToolsControllerDependencies struct {
	Config     domain.Config
	Resolvers  Resolvers
	HTTPClient *http.Client
}

func NewToolsController(deps ToolsControllerDependencies) *ToolsController {
	return &ToolsController{
		cfg:        deps.Config,
		resolvers:  deps.Resolvers,
		httpClient: deps.HTTPClient,
	}
}

func (ctrl *ToolsController) jiraIntegration(c fiber.Ctx) (*jiraintegration.JiraIntegration, error) {
	cred := ctrl.resolvers.Jira.Resolve(c.RequestCtx(), newCookieJar(c))
	if !cred.Connected() {
		return nil, domain.ErrNotConnected
	}
	return jiraintegration.NewJiraIntegration(jiraintegration.JiraIntegrationDependencies{
		Credential: cred,
		Config:     ctrl.cfg.Jira,
		HTTPClient: ctrl.httpClient,
	}), nil
}

// CreateJiraTicket handles POST /api/jira.
func (ctrl *ToolsController) CreateJiraTicket(c fiber.Ctx) error {
	var params jiraintegration.CreateIssueParams
	if err := c.Bind().Body(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	integration, err := ctrl.jiraIntegration(c)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderJira, err)
	}

	created, err := integration.CreateIssue(c.RequestCtx(), params)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderJira, err)
	}
	return c.JSON(created)
}

// SearchJiraTickets handles GET /api/jira.
func (ctrl *ToolsController) SearchJiraTickets(c fiber.Ctx) error {
	maxResults, _ := strconv.Atoi(c.Query("maxResults"))
	params := jiraintegration.SearchParams{
		Status:     c.Query("status"),
		Assignee:   c.Query("assignee"),
		Type:       c.Query("type"),
		MaxResults: maxResults,
	}

	integration, err := ctrl.jiraIntegration(c)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderJira, err)
	}

	result, err := integration.SearchIssues(c.RequestCtx(), params)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderJira, err)
	}
	return c.JSON(result)
}

// UpdateJiraTicket handles PUT /api/jira, dispatching on the requested
// action: "update" edits fields, "assign" sets the assignee.
func (ctrl *ToolsController) UpdateJiraTicket(c fiber.Ctx) error {
	var req struct {
		TicketID      string   `json:"ticketId"`
		Action        string   `json:"action"`
		Summary       string   `json:"summary"`
		Priority      string   `json:"priority"`
		Labels        []string `json:"labels"`
		Status        string   `json:"status"`
		AssigneeEmail string   `json:"assigneeEmail"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.TicketID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ticketId is required"})
	}

	integration, err := ctrl.jiraIntegration(c)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderJira, err)
	}

	switch req.Action {
	case "assign":
		assigned, err := integration.AssignIssue(c.RequestCtx(), jiraintegration.AssignIssueParams{
			TicketID:      req.TicketID,
			AssigneeEmail: req.AssigneeEmail,
		})
		if err != nil {
			return ctrl.toolError(c, domain.ProviderJira, err)
		}
		return c.JSON(assigned)

	case "update":
		updated, err := integration.UpdateIssue(c.RequestCtx(), jiraintegration.UpdateIssueParams{
			TicketID: req.TicketID,
			Summary:  req.Summary,
			Priority: req.Priority,
			Labels:   req.Labels,
			Status:   req.Status,
		})
		if err != nil {
			return ctrl.toolError(c, domain.ProviderJira, err)
		}
		return c.JSON(updated)

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid action"})
	}
}

// PostSlackMessage handles POST /api/slack.
func (ctrl *ToolsController) PostSlackMessage(c fiber.Ctx) error {
	var params slackintegration.PostMessageParams
	if err := c.Bind().Body(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	cred := ctrl.resolvers.Slack.Resolve(c.RequestCtx(), newCookieJar(c))
	if !cred.Connected() {
		return ctrl.toolError(c, domain.ProviderSlack, domain.ErrNotConnected)
	}

	integration := slackintegration.NewSlackIntegration(slackintegration.SlackIntegrationDependencies{
		Credential: cred,
		Config:     ctrl.cfg.Slack,
		HTTPClient: ctrl.httpClient,
	})

	posted, err := integration.PostMessage(c.RequestCtx(), params)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return ctrl.toolError(c, domain.ProviderSlack, err)
		}
		log.Warn().Err(err).Msg("Slack post failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Slack API error: %v", err)})
	}
	return c.JSON(posted)
}

func (ctrl *ToolsController) calendarIntegration(c fiber.Ctx) (*googlecalendar.CalendarIntegration, error) {
	cred := ctrl.resolvers.Google.Resolve(c.RequestCtx(), newCookieJar(c))
	if !cred.Connected() {
		return nil, domain.ErrNotConnected
	}
	return googlecalendar.NewCalendarIntegration(googlecalendar.CalendarIntegrationDependencies{
		Credential: cred,
		Config:     ctrl.cfg.Google,
	}), nil
}

// CreateCalendarEvent handles POST /api/calendar.
func (ctrl *ToolsController) CreateCalendarEvent(c fiber.Ctx) error {
	var params googlecalendar.CreateEventParams
	if err := c.Bind().Body(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	integration, err := ctrl.calendarIntegration(c)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderGoogle, err)
	}

	event, err := integration.CreateEvent(c.RequestCtx(), params)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderGoogle, err)
	}
	return c.JSON(event)
}

// ListCalendarEvents handles GET /api/calendar.
func (ctrl *ToolsController) ListCalendarEvents(c fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days"))
	maxResults, _ := strconv.Atoi(c.Query("maxResults"))

	integration, err := ctrl.calendarIntegration(c)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderGoogle, err)
	}

	list, err := integration.ListUpcoming(c.RequestCtx(), googlecalendar.ListUpcomingParams{
		Days:       days,
		MaxResults: maxResults,
	})
	if err != nil {
		return ctrl.toolError(c, domain.ProviderGoogle, err)
	}
	return c.JSON(list)
}

// CheckCalendarAvailability handles PUT /api/calendar.
func (ctrl *ToolsController) CheckCalendarAvailability(c fiber.Ctx) error {
	var params googlecalendar.AvailabilityParams
	if err := c.Bind().Body(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	integration, err := ctrl.calendarIntegration(c)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderGoogle, err)
	}

	availability, err := integration.CheckAvailability(c.RequestCtx(), params)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderGoogle, err)
	}
	return c.JSON(availability)
}

// AnalyzeGitHubFeature handles POST /api/github.
func (ctrl *ToolsController) AnalyzeGitHubFeature(c fiber.Ctx) error {
	var params githubintegration.AnalyzeFeatureParams
	if err := c.Bind().Body(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if params.Repo == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "repo is required"})
	}

	cred := ctrl.resolvers.GitHub.Resolve(c.RequestCtx(), newCookieJar(c))
	if !cred.Connected() {
		return ctrl.toolError(c, domain.ProviderGitHub, domain.ErrNotConnected)
	}

	integration := githubintegration.NewGitHubIntegration(githubintegration.GitHubIntegrationDependencies{
		Credential: cred,
		Config:     ctrl.cfg.GitHub,
		HTTPClient: ctrl.httpClient,
	})

	analysis, err := integration.AnalyzeFeature(c.RequestCtx(), params)
	if err != nil {
		return ctrl.toolError(c, domain.ProviderGitHub, err)
	}
	return c.JSON(analysis)
}

// TestConnection handles POST /api/connection-test, probing the provider API
// with the resolved credential.
func (ctrl *ToolsController) TestConnection(c fiber.Ctx) error {
	var req struct {
		Service string `json:"service"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	provider, err := domain.ParseProvider(req.Service)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidServiceMessage})
	}

	ctx := c.RequestCtx()
	jar := newCookieJar(c)

	var ok bool
	switch provider {
	case domain.ProviderJira:
		tester := jiraintegration.NewJiraConnectionTester(ctrl.cfg.Jira, ctrl.httpClient)
		ok, err = tester.TestConnection(ctx, ctrl.resolvers.Jira.Resolve(ctx, jar))
	case domain.ProviderSlack:
		integration := slackintegration.NewSlackIntegration(slackintegration.SlackIntegrationDependencies{
			Credential: ctrl.resolvers.Slack.Resolve(ctx, jar),
			Config:     ctrl.cfg.Slack,
			HTTPClient: ctrl.httpClient,
		})
		ok, err = integration.TestConnection(ctx)
	case domain.ProviderGoogle:
		integration := googlecalendar.NewCalendarIntegration(googlecalendar.CalendarIntegrationDependencies{
			Credential: ctrl.resolvers.Google.Resolve(ctx, jar),
			Config:     ctrl.cfg.Google,
		})
		ok, err = integration.TestConnection(ctx)
	case domain.ProviderGitHub:
		tester := githubintegration.NewGitHubConnectionTester(ctrl.cfg.GitHub, ctrl.httpClient)
		ok, err = tester.TestConnection(ctx, ctrl.resolvers.GitHub.Resolve(ctx, jar))
	}
	if err != nil {
		log.Warn().Err(err).Str("service", req.Service).Msg("Connection test failed")
		return c.JSON(fiber.Map{"service": req.Service, "ok": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"service": req.Service, "ok": ok})
}

// toolError maps integration failures onto the response the tool routes
// promise: not-connected and workflow mistakes as 4xx JSON, provider errors
// with their upstream status, everything else as a 500.
func (ctrl *ToolsController) toolError(c fiber.Ctx, provider domain.Provider, err error) error {
	name := providerDisplayNames[provider]

	switch {
	case errors.Is(err, domain.ErrNotConnected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("%s is not connected. Please connect your %s account in Settings.", name, name),
		})

	case errors.Is(err, jiraintegration.ErrUnknownTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, jiraintegration.ErrNoSuchUser):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	var upstream *domain.UpstreamAPIError
	if errors.As(err, &upstream) {
		return c.Status(upstream.Status).JSON(fiber.Map{
			"error":   fmt.Sprintf("%s API error: %d", name, upstream.Status),
			"details": upstream.Body,
		})
	}

	var confErr *domain.ConfigurationError
	if errors.As(err, &confErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error().Err(err).Str("provider", string(provider)).Msg("Tool request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fmt.Sprintf("%s request failed", name),
	})
}
