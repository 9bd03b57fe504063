package domain

import "fmt"

// Provider identifies one of the external services prodpilot can connect.
type Provider string

const (
	ProviderJira   Provider = "jira"
	ProviderSlack  Provider = "slack"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderJira, ProviderSlack, ProviderGoogle, ProviderGitHub}

func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	switch p {
	case ProviderJira, ProviderSlack, ProviderGoogle, ProviderGitHub:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider %q (use: jira, slack, google, or github)", s)
}

// TokenCookie is the name of the cookie holding the provider's encrypted
// credential blob.
func (p Provider) TokenCookie() string {
	return string(p) + "_tokens"
}

// DisabledCookie is the name of the flag cookie set when the user explicitly
// disconnects the provider.
func (p Provider) DisabledCookie() string {
	return string(p) + "_disabled"
}
