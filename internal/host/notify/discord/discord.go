// Package discord implements the notify Adapter for Discord.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/hearth/internal/host/notify"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter implements notify.Adapter for Discord.
type Adapter struct {
	sess      session
	channelID string
	opened    bool
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel ID is required")
	}
	a := &Adapter{channelID: opts.ChannelID}
	if opts.Session != nil {
		a.sess = opts.Session
	} else {
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: new session: %w", err)
		}
		a.sess = s
	}
	return a, nil
}

// severityColor maps a notify severity to a Discord embed color.
func severityColor(severity string) int {
	switch severity {
	case notify.SeveritySuccess:
		return 0x36a64f
	case notify.SeverityWarning:
		return 0xf2c744
	case notify.SeverityError:
		return 0xd10c20
	default:
		return 0x439fe0
	}
}

// Send posts the event as an embed. The gateway connection is opened
// lazily on first send.
func (a *Adapter) Send(ctx context.Context, ev notify.Event) error {
	if !a.opened {
		if err := a.sess.Open(); err != nil {
			return fmt.Errorf("discord: open: %w", err)
		}
		a.opened = true
	}
	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: ev.Body,
		Color:       severityColor(ev.Severity),
	}
	if _, err := a.sess.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		return fmt.Errorf("discord: send to %s: %w", a.channelID, err)
	}
	return nil
}

// Close shuts down the gateway connection if one was opened.
func (a *Adapter) Close() error {
	if !a.opened {
		return nil
	}
	a.opened = false
	return a.sess.Close()
}
