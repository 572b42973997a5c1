package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// maxMessageLength is Discord's content limit.
const maxMessageLength = 2000

type sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Responder sends command replies, rate limited across the whole bot.
// Replies never ping anyone.
type Responder struct {
	s       sender
	limiter *rate.Limiter
}

// NewResponder allows perSecond replies per second with a burst of the same size.
func NewResponder(s sender, perSecond float64) *Responder {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Responder{s: s, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *Responder) Reply(ctx context.Context, channelID, content string) error {
	if content == "" {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("reply to %s: %w", channelID, err)
	}
	if runes := []rune(content); len(runes) > maxMessageLength {
		content = string(runes[:maxMessageLength-1]) + "…"
	}
	_, err := r.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		return fmt.Errorf("reply to %s: %w", channelID, err)
	}
	return nil
}
