// Package command provides the command core: a command is something with a
// name, triggers, an argument usage, a required level and Run(ctx, invocation).
// Commands are registered once into a Registry and compiled into an immutable
// Table that the router matches message text against.
package command

import (
	"context"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/chat"
)

// Command is the contract every routed command implements.
type Command interface {
	Name() string
	Description() string
	// Aliases are extra triggers besides Name.
	Aliases() []string
	// Usage is the argument spec, e.g. "<text:str...>". Empty for bare commands.
	Usage() string
	// Level is the minimum invoker level.
	Level() access.Level
	Run(ctx context.Context, inv *Invocation) error
}

// Responder sends replies back to the channel a command was invoked from.
type Responder interface {
	Reply(ctx context.Context, channelID, content string) error
}

// Invocation is what a command receives when it is dispatched. It must not
// be retained after Run returns.
type Invocation struct {
	// ID correlates log lines of one dispatch.
	ID      string
	Message *chat.Message
	// Trigger is the message text after addressing was stripped.
	Trigger string
	// Prefix is the command prefix in effect where the message was posted.
	Prefix  string
	Args    Args
	Level   access.Level
	Replier Responder
}

// Reply answers in the invoking channel.
func (inv *Invocation) Reply(ctx context.Context, content string) error {
	if inv.Replier == nil {
		return nil
	}
	return inv.Replier.Reply(ctx, inv.Message.ChannelID, content)
}

// Middleware wraps a command (logging, guild-only checks and the like).
type Middleware func(Command) Command

// Apply applies middlewares in order; the last in the list is the outermost.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// Wrapped runs RunFunc in place of the inner command's Run and delegates
// everything else to the inner command.
type Wrapped struct {
	Command
	RunFunc func(ctx context.Context, inv *Invocation) error
}

func (w *Wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.RunFunc != nil {
		return w.RunFunc(ctx, inv)
	}
	return w.Command.Run(ctx, inv)
}

// Unwrap returns the inner command.
func (w *Wrapped) Unwrap() Command { return w.Command }

// Wrap returns a command that runs run instead of c.Run.
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &Wrapped{Command: c, RunFunc: run}
}

// Root unwraps a command until the underlying command is reached.
func Root(c Command) Command {
	for {
		w, ok := c.(interface{ Unwrap() Command })
		if !ok {
			return c
		}
		c = w.Unwrap()
	}
}

// Triggers returns the name followed by the aliases.
func Triggers(c Command) []string {
	return append([]string{c.Name()}, c.Aliases()...)
}
