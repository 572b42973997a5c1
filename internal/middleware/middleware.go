package middleware

import (
	"context"
	"time"

	"github.com/keshon/connect-router/internal/command"

	"go.uber.org/zap"
)

// WithCommandLogger wraps a command to log its execution
func WithCommandLogger(log *zap.Logger) command.Middleware {
	return func(c command.Command) command.Command {
		return command.Wrap(c, func(ctx context.Context, inv *command.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			fields := []zap.Field{
				zap.String("command", c.Name()),
				zap.String("dispatch", inv.ID),
				zap.String("user", inv.Message.Author.ID),
				zap.String("channel", inv.Message.ChannelID),
				zap.Duration("took", time.Since(start)),
			}
			if inv.Message.GuildID != "" {
				fields = append(fields, zap.String("guild", inv.Message.GuildID))
			}
			if err != nil {
				log.Warn("command failed", append(fields, zap.Error(err))...)
			} else {
				log.Info("command ran", fields...)
			}
			return err
		})
	}
}

// GuildOnlyReply is sent when a guild-only command is used in a direct message.
const GuildOnlyReply = "This command only works in a server."

// WithGuildOnly wraps a command to enforce guild-only access
func WithGuildOnly() command.Middleware {
	return func(c command.Command) command.Command {
		return command.Wrap(c, func(ctx context.Context, inv *command.Invocation) error {
			if inv.Message.IsDirect() {
				return inv.Reply(ctx, GuildOnlyReply)
			}
			return c.Run(ctx, inv)
		})
	}
}
