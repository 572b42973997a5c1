// Package commands is the built-in command catalog.
package commands

import (
	"context"
	"time"

	"github.com/keshon/connect-router/internal/command"
	"github.com/keshon/connect-router/internal/middleware"
	"github.com/keshon/connect-router/internal/policy"

	"go.uber.org/zap"
)

// PolicyEditor reads and updates guild policies.
type PolicyEditor interface {
	GetOrCreate(ctx context.Context, guildID string) (policy.Record, error)
	Update(ctx context.Context, guildID, channelID string, p policy.Patch) (policy.Record, error)
}

// Deps are what the catalog needs from the running bot.
type Deps struct {
	Policies PolicyEditor
	Logger   *zap.Logger
	// Latency reports the gateway heartbeat latency. Optional.
	Latency func() time.Duration
}

// Build registers the catalog and compiles it.
func Build(deps Deps) (*command.Table, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logged := middleware.WithCommandLogger(deps.Logger.Named("commands"))

	help := &HelpCommand{}
	reg := command.NewRegistry()
	for _, c := range []struct {
		cmd command.Command
		mws []command.Middleware
	}{
		{&PingCommand{latency: deps.Latency}, []command.Middleware{logged}},
		{&EchoCommand{}, []command.Middleware{logged}},
		{help, []command.Middleware{logged}},
		{&SettingsCommand{policies: deps.Policies}, []command.Middleware{middleware.WithGuildOnly(), logged}},
	} {
		if err := reg.Register(c.cmd, c.mws...); err != nil {
			return nil, err
		}
	}

	table, err := reg.Build()
	if err != nil {
		return nil, err
	}
	help.table = table
	return table, nil
}
