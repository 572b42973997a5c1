package commands

import (
	"context"
	"strings"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/command"
)

// mass mentions are broken with a zero-width space so echo can't ping everyone
var massMention = strings.NewReplacer("@everyone", "@\u200beveryone", "@here", "@\u200bhere")

type EchoCommand struct{}

func (c *EchoCommand) Name() string        { return "echo" }
func (c *EchoCommand) Description() string { return "Repeat the given text" }
func (c *EchoCommand) Aliases() []string   { return []string{"say"} }
func (c *EchoCommand) Usage() string       { return "<text:str...>" }
func (c *EchoCommand) Level() access.Level { return access.LevelDefault }

func (c *EchoCommand) Run(ctx context.Context, inv *command.Invocation) error {
	return inv.Reply(ctx, massMention.Replace(inv.Args.String("text")))
}
