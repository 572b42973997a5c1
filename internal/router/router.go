// Package router turns incoming chat messages into command executions:
// policy lookup, addressing, matching, authorization and dispatch.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/chat"
	"github.com/keshon/connect-router/internal/command"
	"github.com/keshon/connect-router/internal/policy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotAddressed means the message did not address the bot.
	ErrNotAddressed = errors.New("message not addressed to bot")
	// ErrNoCommandMatched means no allowed command matched the addressed text.
	ErrNoCommandMatched = errors.New("no command matched")
)

// Outcome is what happened to one message.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeNotAddressed
	OutcomeNoCommand
	OutcomeDenied
	OutcomeExecuted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeNotAddressed:
		return "not_addressed"
	case OutcomeNoCommand:
		return "no_command"
	case OutcomeDenied:
		return "denied"
	case OutcomeExecuted:
		return "executed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Err maps rejections to their sentinel errors. Denied counts as no match.
func (o Outcome) Err() error {
	switch o {
	case OutcomeNotAddressed:
		return ErrNotAddressed
	case OutcomeNoCommand, OutcomeDenied:
		return ErrNoCommandMatched
	}
	return nil
}

// Options are the routing settings. They can be swapped at runtime.
type Options struct {
	RequireMention bool
	MentionRules   MentionRules
	Prefix         string
	AllowEdit      bool
	EditRetrigger  bool
}

// DefaultOptions require a direct mention and track edits.
func DefaultOptions() Options {
	return Options{
		RequireMention: true,
		MentionRules:   DefaultMentionRules(),
		AllowEdit:      true,
	}
}

// PolicyStore is the part of policy.Store the router needs.
type PolicyStore interface {
	GetOrCreate(ctx context.Context, guildID string) (policy.Record, error)
}

// Config wires a Router.
type Config struct {
	Table    *command.Table
	Store    PolicyStore
	Identity IdentityResolver
	Access   *access.Holder
	Replier  command.Responder
	Logger   *zap.Logger
	Options  Options
}

type Router struct {
	table      *command.Table
	store      PolicyStore
	identity   IdentityResolver
	auth       *Authorizer
	dispatcher *Dispatcher
	replier    command.Responder
	log        *zap.Logger
	opts       atomic.Pointer[Options]
}

func New(cfg Config) (*Router, error) {
	if cfg.Table == nil || cfg.Store == nil || cfg.Identity == nil {
		return nil, errors.New("router: table, store and identity are required")
	}
	if cfg.Access == nil {
		cfg.Access = access.NewHolder(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &Router{
		table:      cfg.Table,
		store:      cfg.Store,
		identity:   cfg.Identity,
		auth:       NewAuthorizer(cfg.Access),
		dispatcher: NewDispatcher(cfg.Logger),
		replier:    cfg.Replier,
		log:        cfg.Logger,
	}
	r.SetOptions(cfg.Options)
	return r, nil
}

// SetOptions replaces the routing settings for subsequent messages.
func (r *Router) SetOptions(o Options) {
	r.opts.Store(&o)
}

func (r *Router) Options() Options {
	return *r.opts.Load()
}

// Table returns the compiled command table.
func (r *Router) Table() *command.Table {
	return r.table
}

// Dispatcher exposes the dispatch cache.
func (r *Router) Dispatcher() *Dispatcher {
	return r.dispatcher
}

func (r *Router) skip(msg *chat.Message, self Self) bool {
	return msg.Author.Bot || msg.Author.ID == self.UserID
}

// HandleCreate routes a new message. A non-nil error means the policy store
// failed and the message was dropped.
func (r *Router) HandleCreate(ctx context.Context, msg *chat.Message) (Outcome, error) {
	self := r.identity.Self(msg.GuildID)
	if r.skip(msg, self) {
		return OutcomeIgnored, nil
	}
	opts := r.Options()

	release := r.dispatcher.Lane(msg.ChannelID)
	outcome, run, err := r.route(ctx, msg, self, opts)
	if err == nil && opts.AllowEdit {
		r.dispatcher.Record(msg, outcome == OutcomeExecuted)
	}
	release()

	if err != nil {
		return outcome, err
	}
	if run != nil {
		run(ctx)
	}
	return outcome, nil
}

// HandleUpdate routes an edited message. Only the last message of a channel
// is considered. An unhandled message is routed again so an edit can turn it
// into a command; a handled one only when retriggering is enabled and the
// content changed.
func (r *Router) HandleUpdate(ctx context.Context, msg *chat.Message) (Outcome, error) {
	opts := r.Options()
	if !opts.AllowEdit {
		return OutcomeIgnored, nil
	}
	self := r.identity.Self(msg.GuildID)
	if r.skip(msg, self) {
		return OutcomeIgnored, nil
	}

	release := r.dispatcher.Lane(msg.ChannelID)
	outcome, run, err := r.routeEdit(ctx, msg, self, opts)
	release()

	if err != nil {
		return outcome, err
	}
	if run != nil {
		run(ctx)
	}
	return outcome, nil
}

// routeEdit runs under the channel lane.
func (r *Router) routeEdit(ctx context.Context, msg *chat.Message, self Self, opts Options) (Outcome, func(context.Context), error) {
	prev, ok := r.dispatcher.Lookup(msg.ChannelID)
	if !ok || prev.Message.ID != msg.ID {
		return OutcomeIgnored, nil, nil
	}
	if prev.Message.Content == msg.Content || (prev.Handled && !opts.EditRetrigger) {
		r.dispatcher.Record(msg, prev.Handled)
		return OutcomeIgnored, nil, nil
	}

	outcome, run, err := r.route(ctx, msg, self, opts)
	if err != nil {
		return outcome, nil, err
	}
	r.dispatcher.Record(msg, outcome == OutcomeExecuted)
	return outcome, run, nil
}

// HandleDelete drops the edit state of a deleted message.
func (r *Router) HandleDelete(channelID, messageID string) {
	release := r.dispatcher.Lane(channelID)
	defer release()
	r.dispatcher.Forget(channelID, messageID)
}

// route decides what a message runs. It is called under the channel lane and
// returns the selected command as run, to be called once the lane is released.
func (r *Router) route(ctx context.Context, msg *chat.Message, self Self, opts Options) (Outcome, func(context.Context), error) {
	prefix := opts.Prefix
	var rec *policy.Record
	if msg.Origin == chat.OriginGuild {
		got, err := r.store.GetOrCreate(ctx, msg.GuildID)
		if err != nil {
			return OutcomeIgnored, nil, fmt.Errorf("route message %s: %w", msg.ID, err)
		}
		rec = &got
		prefix = got.PrefixOr(prefix)
	}

	text, ok := Resolve(msg, self, prefix, opts.RequireMention, opts.MentionRules)
	if !ok {
		return OutcomeNotAddressed, nil, nil
	}
	if !r.table.MatchesAny(text) {
		return OutcomeNoCommand, nil, nil
	}
	candidates := r.table.Match(text)
	if len(candidates) == 0 {
		return OutcomeNoCommand, nil, nil
	}

	id := uuid.NewString()
	level := r.auth.Level(msg)
	log := r.log.With(zap.String("dispatch", id), zap.String("message", msg.ID))

	selected, ok := r.dispatcher.Select(msg, candidates, func(c command.Candidate) error {
		return r.auth.Authorize(c, msg, rec)
	})
	if !ok {
		log.Debug("all candidates denied", zap.Int("candidates", len(candidates)))
		return OutcomeDenied, nil, nil
	}

	run := func(ctx context.Context) {
		r.dispatcher.Invoke(ctx, msg, selected, func(ctx context.Context, c command.Candidate) error {
			inv := &command.Invocation{
				ID:      id,
				Message: msg,
				Trigger: text,
				Prefix:  prefix,
				Args:    c.Args,
				Level:   level,
				Replier: r.replier,
			}
			if c.ArgsErr != nil {
				log.Debug("bad arguments", zap.String("command", c.Command.Name()), zap.Error(c.ArgsErr))
				return inv.Reply(ctx, fmt.Sprintf("Usage: `%s%s`", prefix, command.FormatUsage(c.Command)))
			}
			return c.Command.Run(ctx, inv)
		})
	}
	return OutcomeExecuted, run, nil
}
