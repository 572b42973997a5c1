package router

import (
	"errors"
	"fmt"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/chat"
	"github.com/keshon/connect-router/internal/command"
	"github.com/keshon/connect-router/internal/policy"
)

var (
	// ErrInsufficientPermission denies a candidate whose level is above the invoker's.
	ErrInsufficientPermission = errors.New("insufficient permission")
	// ErrOriginSuppressed denies a non-exempt member in an ignored guild or channel.
	ErrOriginSuppressed = errors.New("origin suppressed")
)

// Authorizer applies the permission level and moderation checks.
type Authorizer struct {
	access *access.Holder
}

func NewAuthorizer(h *access.Holder) *Authorizer {
	return &Authorizer{access: h}
}

// Level returns the invoker's level under the current table.
func (a *Authorizer) Level(msg *chat.Message) access.Level {
	return a.access.Load().LevelFor(msg.Author.ID, msg.Member)
}

// Authorize returns nil when the candidate may run. rec is the guild policy
// and is ignored for direct messages.
func (a *Authorizer) Authorize(c command.Candidate, msg *chat.Message, rec *policy.Record) error {
	table := a.access.Load()

	if have, need := table.LevelFor(msg.Author.ID, msg.Member), c.Command.Level(); have < need {
		return fmt.Errorf("%w: %s needs %s, have %s", ErrInsufficientPermission, c.Command.Name(), need, have)
	}

	if msg.Origin != chat.OriginGuild || rec == nil {
		return nil
	}
	if table.IsExempt(msg.Author.ID, msg.Member) {
		return nil
	}
	if rec.IgnoreOrigin {
		return fmt.Errorf("%w: guild ignored", ErrOriginSuppressed)
	}
	if rec.IgnoresChannel(msg.ChannelID) {
		return fmt.Errorf("%w: channel ignored", ErrOriginSuppressed)
	}
	return nil
}
