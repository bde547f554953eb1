// Package callboard posts operating-session events to the crew's chat
// platform (Slack or Discord): session advances and rollbacks, train
// lifecycle changes, order generation, and a scheduled pre-session digest.
package callboard

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/trainops/internal/config"
)

// Adapter is the send-only interface platform implementations satisfy.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Send delivers a message to a channel.
	Send(ctx context.Context, channelID, text string) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// Event is one operations event worth telling the crew about.
type Event struct {
	Kind     string // session_advanced, session_rolled_back, train_started, train_completed, train_cancelled, orders_generated
	Severity string // success, info, warning
	Title    string
	Detail   string
	At       time.Time
}

// Notifier posts events through a configured adapter. A nil Notifier (or
// one built from an empty platform config) silently drops events, so
// callers never need to branch on whether notifications are enabled.
type Notifier struct {
	adapter Adapter
	channel string
}

// New builds a Notifier from configuration. An empty platform yields a
// disabled notifier and no error.
func New(cfg config.CallboardConfig) (*Notifier, error) {
	switch cfg.Platform {
	case "":
		return nil, nil
	case "slack":
		return &Notifier{adapter: NewSlackAdapter(cfg.Token), channel: cfg.Channel}, nil
	case "discord":
		a, err := NewDiscordAdapter(cfg.Token)
		if err != nil {
			return nil, err
		}
		return &Notifier{adapter: a, channel: cfg.Channel}, nil
	default:
		return nil, fmt.Errorf("callboard: unsupported platform %q", cfg.Platform)
	}
}

// Connect establishes the underlying platform connection.
func (n *Notifier) Connect(ctx context.Context) error {
	if n == nil {
		return nil
	}
	return n.adapter.Connect(ctx)
}

// Post formats and delivers one event.
func (n *Notifier) Post(ctx context.Context, ev Event) error {
	if n == nil {
		return nil
	}
	if err := n.adapter.Send(ctx, n.channel, FormatEvent(ev)); err != nil {
		return fmt.Errorf("callboard: post %s: %w", ev.Kind, err)
	}
	return nil
}

// PostText delivers a preformatted message, such as the crew digest.
func (n *Notifier) PostText(ctx context.Context, text string) error {
	if n == nil {
		return nil
	}
	if err := n.adapter.Send(ctx, n.channel, text); err != nil {
		return fmt.Errorf("callboard: post: %w", err)
	}
	return nil
}

// Close shuts down the underlying adapter.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	return n.adapter.Close()
}
