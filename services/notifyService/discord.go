package notifyService

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Announcer posts a short message to a pool's chat channel.
type Announcer interface {
	Announce(ctx context.Context, channelID, title, body string) error
}

type DiscordAnnouncer struct {
	session *discordgo.Session
}

// NewDiscordAnnouncer posts through session's REST client; the gateway
// connection is not required.
func NewDiscordAnnouncer(session *discordgo.Session) *DiscordAnnouncer {
	return &DiscordAnnouncer{session: session}
}

func (a *DiscordAnnouncer) Announce(ctx context.Context, channelID, title, body string) error {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: body,
		Color:       0xE74C3C,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Last Man Standing",
		},
	}
	if _, err := a.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("error announcing to channel %s: %w", channelID, err)
	}
	return nil
}
