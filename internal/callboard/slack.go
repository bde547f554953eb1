package callboard

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	AuthTestContext(ctx context.Context) (*slackapi.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackAdapter posts callboard messages through the Slack Web API.
type SlackAdapter struct {
	client slackClient
}

// NewSlackAdapter builds a Slack adapter from a bot token.
func NewSlackAdapter(token string) *SlackAdapter {
	return &SlackAdapter{client: slackapi.New(token)}
}

// Connect verifies the token with an auth test.
func (a *SlackAdapter) Connect(ctx context.Context) error {
	if _, err := a.client.AuthTestContext(ctx); err != nil {
		return fmt.Errorf("callboard: slack auth: %w", err)
	}
	return nil
}

// Send posts a message to the channel.
func (a *SlackAdapter) Send(ctx context.Context, channelID, text string) error {
	_, _, err := a.client.PostMessageContext(ctx, channelID,
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("callboard: slack send to %s: %w", channelID, err)
	}
	return nil
}

// Close is a no-op; the Slack Web API client holds no connection.
func (a *SlackAdapter) Close() error { return nil }
