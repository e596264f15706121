package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// channelSender is the slice of *discordgo.Session used here.
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts events to one channel through a bot account.
type Discord struct {
	session   channelSender
	channelID string
}

// NewDiscord builds a bot session from token. The REST client connects
// lazily, so no network call happens here.
func NewDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord: token and channel id are required")
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: new session: %w", err)
	}
	return &Discord{session: dg, channelID: channelID}, nil
}

func (d *Discord) Name() string { return "discord" }

// Send posts e.Text(). Discord caps messages at 2000 characters.
func (d *Discord) Send(ctx context.Context, e Event) error {
	text := e.Text()
	if r := []rune(text); len(r) > 2000 {
		text = string(r[:1997]) + "..."
	}
	_, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx))
	return err
}
