package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/managers"
	"github.com/prodpilot/prodpilot/internal/oauth"
	"github.com/prodpilot/prodpilot/internal/vault"
)

const invalidServiceMessage = "Invalid service. Use: jira, slack, google, or github"

// Resolvers bundles the per-provider credential managers the controllers
// resolve credentials through.
type Resolvers struct {
	Jira   *managers.JiraCredentialManager
	Slack  *managers.SlackCredentialManager
	Google *managers.GoogleCredentialManager
	GitHub *managers.GitHubCredentialManager
}

// AuthController owns the OAuth connect/callback flows and the credential
// status surface.
type AuthController struct {
	cfg       domain.Config
	store     *vault.Store
	resolvers Resolvers

	jira   *oauth.JiraExchanger
	slack  *oauth.SlackExchanger
	google *oauth.GoogleExchanger
	github *oauth.GitHubExchanger
}

type AuthControllerDependencies struct {
	Config     domain.Config
	Store      *vault.Store
	Resolvers  Resolvers
	HTTPClient *http.Client
}

func NewAuthController(deps AuthControllerDependencies) *AuthController {
	return &AuthController{
		cfg:       deps.Config,
		store:     deps.Store,
		resolvers: deps.Resolvers,
		jira:      oauth.NewJiraExchanger(deps.Config.Jira, deps.Config.AppURL, deps.HTTPClient),
		slack:     oauth.NewSlackExchanger(deps.Config.Slack, deps.Config.AppURL, deps.HTTPClient),
		google:    oauth.NewGoogleExchanger(deps.Config.Google, deps.Config.AppURL, deps.HTTPClient),
		github:    oauth.NewGitHubExchanger(deps.Config.GitHub, deps.Config.AppURL, deps.HTTPClient),
	}
}

// Connect redirects the browser to the provider's consent screen.
func (ctrl *AuthController) Connect(c fiber.Ctx) error {
	provider, err := domain.ParseProvider(c.Params("provider"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidServiceMessage})
	}

	state := uuid.NewString()

	var authorizeURL string
	switch provider {
	case domain.ProviderJira:
		authorizeURL, err = ctrl.jira.AuthorizeURL(state)
	case domain.ProviderSlack:
		authorizeURL, err = ctrl.slack.AuthorizeURL(state)
	case domain.ProviderGoogle:
		authorizeURL, err = ctrl.google.AuthorizeURL(state)
	case domain.ProviderGitHub:
		authorizeURL, err = ctrl.github.AuthorizeURL(state)
	}
	if err != nil {
		log.Error().Err(err).Str("provider", string(provider)).Msg("Cannot build authorize URL")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Redirect().To(authorizeURL)
}

// Callback exchanges the authorization code, stores the resulting record as
// an encrypted cookie and sends the browser back to the settings page.
// Exchange failures are reported as a redirect query parameter, never as an
// error page.
func (ctrl *AuthController) Callback(c fiber.Ctx) error {
	provider, err := domain.ParseProvider(c.Params("provider"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidServiceMessage})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No code provided"})
	}

	jar := newCookieJar(c)
	ctx := c.RequestCtx()

	var record any
	switch provider {
	case domain.ProviderJira:
		record, err = ctrl.jira.Exchange(ctx, code)
	case domain.ProviderSlack:
		record, err = ctrl.slack.Exchange(ctx, code)
	case domain.ProviderGoogle:
		record, err = ctrl.google.Exchange(ctx, code)
	case domain.ProviderGitHub:
		record, err = ctrl.github.Exchange(ctx, code)
	}
	if err != nil {
		log.Warn().Err(err).Str("provider", string(provider)).Msg("OAuth exchange failed")
		return c.Redirect().To(ctrl.settingsURL() + "?error=" + exchangeErrorReason(provider, err))
	}

	if err := ctrl.store.Put(jar, provider, record); err != nil {
		log.Error().Err(err).Str("provider", string(provider)).Msg("Failed to store credential record")
		return c.Redirect().To(fmt.Sprintf("%s?error=%s_callback_error", ctrl.settingsURL(), provider))
	}

	return c.Redirect().To(ctrl.settingsURL() + "?connected=" + string(provider))
}

// Disconnect clears the stored record and marks the provider disabled so
// environment fallbacks are skipped too.
func (ctrl *AuthController) Disconnect(c fiber.Ctx) error {
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

	jar := newCookieJar(c)
	ctrl.store.Clear(jar, provider)
	ctrl.store.SetDisabled(jar, provider)

	return c.JSON(fiber.Map{"disconnected": string(provider)})
}

// Status reports the resolved connection state of every provider. Tokens are
// never included, only display metadata.
func (ctrl *AuthController) Status(c fiber.Ctx) error {
	jar := newCookieJar(c)
	ctx := c.RequestCtx()

	jira := ctrl.resolvers.Jira.Resolve(ctx, jar)
	slack := ctrl.resolvers.Slack.Resolve(ctx, jar)
	google := ctrl.resolvers.Google.Resolve(ctx, jar)
	github := ctrl.resolvers.GitHub.Resolve(ctx, jar)

	return c.JSON(fiber.Map{
		"jira":   jiraStatus(jira),
		"slack":  slackStatus(slack),
		"google": googleStatus(google),
		"github": githubStatus(github),
	})
}

// SaveToken stores an already-encrypted blob handed back through the browser
// after an OAuth callback. The blob must decrypt with the current key.
func (ctrl *AuthController) SaveToken(c fiber.Ctx) error {
	var req struct {
		Service string `json:"service"`
		Data    string `json:"data"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	provider, err := domain.ParseProvider(req.Service)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidServiceMessage})
	}
	if req.Data == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing token data"})
	}

	if err := ctrl.store.PutEncrypted(newCookieJar(c), provider, req.Data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid token data"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

func (ctrl *AuthController) settingsURL() string {
	return strings.TrimSuffix(ctrl.cfg.AppURL, "/") + "/settings"
}

func exchangeErrorReason(provider domain.Provider, err error) string {
	var exchErr *domain.ExchangeError
	if errors.As(err, &exchErr) {
		return exchErr.Reason
	}
	return fmt.Sprintf("%s_callback_error", provider)
}

func jiraStatus(cred domain.JiraCredential) fiber.Map {
	status := fiber.Map{
		"connected": cred.Connected(),
		"mode":      string(cred.Mode()),
	}
	switch c := cred.(type) {
	case domain.JiraOAuthCredential:
		status["siteName"] = c.SiteName
	case domain.JiraStaticCredential:
		status["siteName"] = c.Domain
	}
	return status
}

func slackStatus(cred domain.SlackCredential) fiber.Map {
	status := fiber.Map{
		"connected": cred.Connected(),
		"mode":      string(cred.Mode()),
	}
	if c, ok := cred.(domain.SlackOAuthCredential); ok {
		status["teamName"] = c.TeamName
	}
	return status
}

func googleStatus(cred domain.GoogleCredential) fiber.Map {
	status := fiber.Map{
		"connected": cred.Connected(),
		"mode":      string(cred.Mode()),
	}
	if c, ok := cred.(domain.GoogleOAuthCredential); ok && c.Email != "" {
		status["email"] = c.Email
	}
	return status
}

func githubStatus(cred domain.GitHubCredential) fiber.Map {
	status := fiber.Map{
		"connected": cred.Connected(),
		"mode":      string(cred.Mode()),
	}
	if c, ok := cred.(domain.GitHubOAuthCredential); ok && c.Username != "" {
		status["username"] = c.Username
	}
	return status
}
