package callboard

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks.
type discordSession interface {
	Open() error
	Close() error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAdapter posts callboard messages through the Discord gateway.
type DiscordAdapter struct {
	sess discordSession
}

// NewDiscordAdapter builds a Discord adapter from a bot token.
func NewDiscordAdapter(token string) (*DiscordAdapter, error) {
	sess, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("callboard: discord session: %w", err)
	}
	return &DiscordAdapter{sess: sess}, nil
}

// Connect opens the gateway connection.
func (a *DiscordAdapter) Connect(ctx context.Context) error {
	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("callboard: discord connect: %w", err)
	}
	return nil
}

// Send posts a message to the channel.
func (a *DiscordAdapter) Send(ctx context.Context, channelID, text string) error {
	if _, err := a.sess.ChannelMessageSend(channelID, text); err != nil {
		return fmt.Errorf("callboard: discord send to %s: %w", channelID, err)
	}
	return nil
}

// Close shuts down the gateway connection.
func (a *DiscordAdapter) Close() error {
	return a.sess.Close()
}
