package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/internal/domain"
)

// rewriteTransport sends every request to the test server regardless of the
// host the SDK dialed. slack-go hardcodes slack.com for the oauth call.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestSlackExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "oauth.v2.access")
		_ = r.ParseForm()
		assert.Equal(t, "abc123", r.FormValue("code"))
		assert.Equal(t, "http://localhost:3000/auth/slack/callback", r.FormValue("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":           true,
			"access_token": "xoxb-new",
			"token_type":   "bot",
			"team":         map[string]string{"id": "T1", "name": "Acme"},
		})
	}))
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	httpClient := &http.Client{Transport: rewriteTransport{target: target}}

	e := NewSlackExchanger(domain.SlackConfig{ClientID: "client-id", ClientSecret: "client-secret"}, "http://localhost:3000", httpClient)

	record, err := e.Exchange(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.SlackTokenRecord{BotToken: "xoxb-new", TeamName: "Acme", TeamID: "T1"}, record)
}

func TestSlackExchange_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid_code"})
	}))
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	httpClient := &http.Client{Transport: rewriteTransport{target: target}}

	e := NewSlackExchanger(domain.SlackConfig{ClientID: "client-id", ClientSecret: "client-secret"}, "http://localhost:3000", httpClient)

	_, err = e.Exchange(context.Background(), "bad")
	var exchErr *domain.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, "slack_auth_failed", exchErr.Reason)
}

func TestSlackExchange_MissingConfig(t *testing.T) {
	e := NewSlackExchanger(domain.SlackConfig{}, "http://localhost:3000", nil)

	_, err := e.Exchange(context.Background(), "abc123")
	var confErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &confErr)

	_, err = e.AuthorizeURL("state-1")
	assert.ErrorAs(t, err, &confErr)
}
