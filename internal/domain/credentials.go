package domain

// CredentialMode says which credential path a resolver ended up on.
type CredentialMode string

const (
	CredentialModeOAuth  CredentialMode = "oauth"
	CredentialModeStatic CredentialMode = "static"
	CredentialModeNone   CredentialMode = "none"
)

// Stored token records, one per provider. These are what the vault encrypts
// into the provider's token cookie. Once written they are immutable, except
// for the Jira refresh token which rotates on every use and is rewritten by
// the resolver.

// JiraTokenRecord deliberately carries no access token: Atlassian access
// tokens are large and short-lived, so they are re-derived via refresh on
// every resolution.
type JiraTokenRecord struct {
	RefreshToken string `json:"refreshToken"`
	CloudID      string `json:"cloudId"`
	SiteName     string `json:"siteName"`
}

type SlackTokenRecord struct {
	BotToken string `json:"botToken"`
	TeamName string `json:"teamName"`
	TeamID   string `json:"teamId"`
}

type GoogleTokenRecord struct {
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email,omitempty"`
}

type GitHubTokenRecord struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
}

// Resolved credentials. Each provider's credential is a closed set of
// variants rather than a bag of optional fields, so "mode says oauth but the
// token is missing" is impossible to construct by accident. Resolvers build
// these fresh on every request; they are never persisted or cached.

type JiraCredential interface {
	Mode() CredentialMode
	Connected() bool
}

// JiraOAuthCredential is a live OAuth credential. AccessToken is empty when
// the refresh call failed: the credential still reports connected so the
// settings UI keeps showing the site, and request building fails at the
// point of use instead.
type JiraOAuthCredential struct {
	AccessToken string
	CloudID     string
	SiteName    string
}

func (JiraOAuthCredential) Mode() CredentialMode { return CredentialModeOAuth }
func (JiraOAuthCredential) Connected() bool      { return true }

type JiraStaticCredential struct {
	Email      string
	APIToken   string
	Domain     string
	ProjectKey string
}

func (JiraStaticCredential) Mode() CredentialMode { return CredentialModeStatic }
func (JiraStaticCredential) Connected() bool      { return true }

type JiraNotConnected struct{}

func (JiraNotConnected) Mode() CredentialMode { return CredentialModeNone }
func (JiraNotConnected) Connected() bool      { return false }

type SlackCredential interface {
	Mode() CredentialMode
	Connected() bool
}

type SlackOAuthCredential struct {
	BotToken string
	TeamName string
	TeamID   string
}

func (SlackOAuthCredential) Mode() CredentialMode { return CredentialModeOAuth }
func (SlackOAuthCredential) Connected() bool      { return true }

type SlackStaticCredential struct {
	BotToken  string
	ChannelID string
}

func (SlackStaticCredential) Mode() CredentialMode { return CredentialModeStatic }
func (SlackStaticCredential) Connected() bool      { return true }

type SlackNotConnected struct{}

func (SlackNotConnected) Mode() CredentialMode { return CredentialModeNone }
func (SlackNotConnected) Connected() bool      { return false }

type GoogleCredential interface {
	Mode() CredentialMode
	Connected() bool
}

// GoogleOAuthCredential carries a short-lived access token obtained by the
// resolver from the stored refresh token on this resolution.
type GoogleOAuthCredential struct {
	AccessToken string
	Email       string
}

func (GoogleOAuthCredential) Mode() CredentialMode { return CredentialModeOAuth }
func (GoogleOAuthCredential) Connected() bool      { return true }

type GoogleStaticCredential struct {
	AccessToken string
}

func (GoogleStaticCredential) Mode() CredentialMode { return CredentialModeStatic }
func (GoogleStaticCredential) Connected() bool      { return true }

type GoogleNotConnected struct{}

func (GoogleNotConnected) Mode() CredentialMode { return CredentialModeNone }
func (GoogleNotConnected) Connected() bool      { return false }

type GitHubCredential interface {
	Mode() CredentialMode
	Connected() bool
}

type GitHubOAuthCredential struct {
	AccessToken string
	Username    string
}

func (GitHubOAuthCredential) Mode() CredentialMode { return CredentialModeOAuth }
func (GitHubOAuthCredential) Connected() bool      { return true }

type GitHubStaticCredential struct {
	AccessToken string
}

func (GitHubStaticCredential) Mode() CredentialMode { return CredentialModeStatic }
func (GitHubStaticCredential) Connected() bool      { return true }

type GitHubNotConnected struct{}

func (GitHubNotConnected) Mode() CredentialMode { return CredentialModeNone }
func (GitHubNotConnected) Connected() bool      { return false }
