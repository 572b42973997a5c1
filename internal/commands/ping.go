package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/command"
)

type PingCommand struct {
	latency func() time.Duration
}

func (c *PingCommand) Name() string        { return "ping" }
func (c *PingCommand) Description() string { return "Check bot latency" }
func (c *PingCommand) Aliases() []string   { return []string{} }
func (c *PingCommand) Usage() string       { return "" }
func (c *PingCommand) Level() access.Level { return access.LevelDefault }

func (c *PingCommand) Run(ctx context.Context, inv *command.Invocation) error {
	if c.latency == nil {
		return inv.Reply(ctx, "Pong!")
	}
	return inv.Reply(ctx, fmt.Sprintf("Pong! Latency: %dms", c.latency().Milliseconds()))
}
