// Package slack posts product updates to Slack channels with whichever bot
// token the credential layer resolved.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/prodpilot/prodpilot/internal/domain"
)

type PostMessageParams struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

type PostedMessage struct {
	MessageID string `json:"messageId"`
	Channel   string `json:"channel"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

type SlackIntegration struct {
	cred       domain.SlackCredential
	cfg        domain.SlackConfig
	httpClient *http.Client
}

type SlackIntegrationDependencies struct {
	Credential domain.SlackCredential
	Config     domain.SlackConfig
	HTTPClient *http.Client
}

func NewSlackIntegration(deps SlackIntegrationDependencies) *SlackIntegration {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SlackIntegration{
		cred:       deps.Credential,
		cfg:        deps.Config,
		httpClient: httpClient,
	}
}

// PostMessage sends a message, falling back to the configured default channel
// when the caller passed none or something that is not a channel id.
func (i *SlackIntegration) PostMessage(ctx context.Context, p PostMessageParams) (*PostedMessage, error) {
	client, err := i.client()
	if err != nil {
		return nil, err
	}

	target := p.Channel
	if !strings.HasPrefix(target, "C") {
		target = i.defaultChannel()
	}
	if target == "" {
		return nil, domain.NewConfigurationError("SLACK_CHANNEL_ID")
	}

	channel, ts, err := client.PostMessageContext(ctx, target,
		goslack.MsgOptionText(p.Message, false),
		goslack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return nil, fmt.Errorf("slack chat.postMessage failed: %w", err)
	}

	return &PostedMessage{
		MessageID: ts,
		Channel:   "#" + channel,
		Message:   p.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    "sent",
	}, nil
}

// TestConnection calls auth.test to prove the bot token still works.
func (i *SlackIntegration) TestConnection(ctx context.Context) (bool, error) {
	client, err := i.client()
	if err != nil {
		return false, err
	}

	resp, err := client.AuthTestContext(ctx)
	if err != nil {
		return false, fmt.Errorf("slack auth.test failed: %w", err)
	}
	return resp.UserID != "", nil
}

func (i *SlackIntegration) client() (*goslack.Client, error) {
	token, err := i.botToken()
	if err != nil {
		return nil, err
	}

	opts := []goslack.Option{goslack.OptionHTTPClient(i.httpClient)}
	if i.cfg.APIURL != "" {
		opts = append(opts, goslack.OptionAPIURL(i.cfg.APIURL))
	}
	return goslack.New(token, opts...), nil
}

func (i *SlackIntegration) botToken() (string, error) {
	switch c := i.cred.(type) {
	case domain.SlackOAuthCredential:
		return c.BotToken, nil
	case domain.SlackStaticCredential:
		return c.BotToken, nil
	default:
		return "", domain.ErrNotConnected
	}
}

func (i *SlackIntegration) defaultChannel() string {
	if c, ok := i.cred.(domain.SlackStaticCredential); ok && c.ChannelID != "" {
		return c.ChannelID
	}
	return i.cfg.ChannelID
}
