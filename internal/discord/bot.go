package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keshon/connect-router/internal/chat"
	"github.com/keshon/connect-router/internal/router"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot connects the gateway to the router.
type Bot struct {
	dg     *discordgo.Session
	log    *zap.Logger
	router *router.Router
	ctx    context.Context
}

// New creates the session. It is not opened until Run.
func New(token string, log *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll
	dg.State.TrackMembers = true
	dg.State.TrackRoles = true
	return &Bot{dg: dg, log: log, ctx: context.Background()}, nil
}

// Self implements router.IdentityResolver from the session state.
func (b *Bot) Self(guildID string) router.Self {
	return selfIn(b.dg.State, guildID)
}

// Responder returns a rate limited reply sender over the session.
func (b *Bot) Responder(perSecond float64) *Responder {
	return NewResponder(b.dg, perSecond)
}

// Latency is the gateway heartbeat latency.
func (b *Bot) Latency() time.Duration {
	return b.dg.HeartbeatLatency()
}

// Run opens the session and routes messages through r until ctx is done.
func (b *Bot) Run(ctx context.Context, r *router.Router) error {
	b.router = r
	b.ctx = ctx

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onMessageUpdate)
	b.dg.AddHandler(b.onMessageDelete)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info("Shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("Discord bot is running",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	msg := toMessage(s.State, m.Message)
	outcome, err := b.router.HandleCreate(b.ctx, msg)
	b.report(msg, outcome, err)
}

func (b *Bot) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	// embed-only updates carry no author or content
	if m.Author == nil || m.Content == "" {
		return
	}
	msg := toMessage(s.State, m.Message)
	outcome, err := b.router.HandleUpdate(b.ctx, msg)
	b.report(msg, outcome, err)
}

func (b *Bot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	b.router.HandleDelete(m.ChannelID, m.ID)
}

func (b *Bot) report(msg *chat.Message, outcome router.Outcome, err error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		b.log.Error("Message routing failed",
			zap.String("message", msg.ID),
			zap.String("guild", msg.GuildID),
			zap.String("channel", msg.ChannelID),
			zap.Error(err),
		)
		return
	}
	if outcome == router.OutcomeExecuted {
		b.log.Debug("Message routed",
			zap.String("message", msg.ID),
			zap.Bool("edited", msg.Edited),
		)
	}
}
