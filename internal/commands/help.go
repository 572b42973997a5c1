package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/command"
)

type HelpCommand struct {
	table *command.Table
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Get a list of available commands" }
func (c *HelpCommand) Aliases() []string   { return []string{"commands"} }
func (c *HelpCommand) Usage() string       { return "[command:str]" }
func (c *HelpCommand) Level() access.Level { return access.LevelDefault }

func (c *HelpCommand) Run(ctx context.Context, inv *command.Invocation) error {
	if c.table == nil {
		return nil
	}
	if inv.Args.Has("command") {
		return inv.Reply(ctx, c.describe(inv.Args.String("command"), inv.Prefix, inv.Level))
	}
	return inv.Reply(ctx, c.list(inv.Prefix, inv.Level))
}

func (c *HelpCommand) list(prefix string, level access.Level) string {
	var sb strings.Builder
	sb.WriteString("**Commands**\n")
	for _, cmd := range c.table.Commands() {
		if cmd.Level() > level {
			continue
		}
		sb.WriteString(fmt.Sprintf("`%s%s` - %s\n", prefix, cmd.Name(), cmd.Description()))
	}
	return sb.String()
}

func (c *HelpCommand) describe(name, prefix string, level access.Level) string {
	cmd, ok := c.table.Lookup(strings.ToLower(name))
	if !ok || cmd.Level() > level {
		return fmt.Sprintf("Unknown command `%s`.", name)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("`%s%s`\n%s\n", prefix, command.FormatUsage(cmd), cmd.Description()))
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		sb.WriteString("Aliases: " + strings.Join(aliases, ", ") + "\n")
	}
	if cmd.Level() > access.LevelDefault {
		sb.WriteString("Requires: " + cmd.Level().String() + "\n")
	}
	return sb.String()
}
