package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/chat"
	"github.com/keshon/connect-router/internal/command"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stub struct {
	ran int
	err error
}

func (s *stub) Name() string        { return "stub" }
func (s *stub) Description() string { return "" }
func (s *stub) Aliases() []string   { return nil }
func (s *stub) Usage() string       { return "" }
func (s *stub) Level() access.Level { return access.LevelDefault }
func (s *stub) Run(context.Context, *command.Invocation) error {
	s.ran++
	return s.err
}

type replies []string

func (r *replies) Reply(_ context.Context, _, content string) error {
	*r = append(*r, content)
	return nil
}

func invocation(origin chat.Origin, r command.Responder) *command.Invocation {
	msg := &chat.Message{ID: "m", Origin: origin, Author: chat.Author{ID: "u"}, ChannelID: "c"}
	if origin == chat.OriginGuild {
		msg.GuildID = "g"
	}
	return &command.Invocation{ID: "d", Message: msg, Replier: r}
}

func TestGuildOnly(t *testing.T) {
	s := &stub{}
	c := command.Apply(s, WithGuildOnly())
	var r replies

	require.NoError(t, c.Run(context.Background(), invocation(chat.OriginDirect, &r)))
	assert.Equal(t, 0, s.ran)
	assert.Equal(t, replies{GuildOnlyReply}, r)

	require.NoError(t, c.Run(context.Background(), invocation(chat.OriginGuild, &r)))
	assert.Equal(t, 1, s.ran)
	assert.Same(t, s, command.Root(c))
}

func TestCommandLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := &stub{}
	c := command.Apply(s, WithCommandLogger(zap.New(core)))

	require.NoError(t, c.Run(context.Background(), invocation(chat.OriginGuild, nil)))
	s.err = errors.New("boom")
	assert.ErrorIs(t, c.Run(context.Background(), invocation(chat.OriginDirect, nil)), s.err)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "g", entries[0].ContextMap()["guild"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "guild")
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
