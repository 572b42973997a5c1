package discord

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/chat"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) *discordgo.State {
	t.Helper()
	state := discordgo.NewState()
	state.User = &discordgo.User{ID: "100", Username: "connect"}

	require.NoError(t, state.GuildAdd(&discordgo.Guild{
		ID:      "g",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "g", Name: "@everyone", Permissions: discordgo.PermissionSendMessages},
			{ID: "r-mod", Name: "Moderator"},
			{ID: "r-admin", Name: "Admins", Permissions: discordgo.PermissionAdministrator},
			{ID: "r-bot", Name: "Connect"},
		},
	}))
	require.NoError(t, state.ChannelAdd(&discordgo.Channel{ID: "c", GuildID: "g"}))
	require.NoError(t, state.MemberAdd(&discordgo.Member{
		GuildID: "g",
		User:    &discordgo.User{ID: "100"},
		Nick:    "Connie",
		Roles:   []string{"r-bot"},
	}))
	require.NoError(t, state.MemberAdd(&discordgo.Member{
		GuildID: "g",
		User:    &discordgo.User{ID: "stored"},
		Roles:   []string{"r-mod"},
	}))
	return state
}

func TestToMessageDirect(t *testing.T) {
	state := newState(t)
	msg := toMessage(state, &discordgo.Message{
		ID:        "m",
		ChannelID: "dm",
		Content:   "ping",
		Author:    &discordgo.User{ID: "u", Username: "someone"},
		Mentions:  []*discordgo.User{{ID: "100"}},
	})

	assert.Equal(t, chat.OriginDirect, msg.Origin)
	assert.Nil(t, msg.Member)
	assert.Equal(t, []string{"100"}, msg.Mentions.Users)
	assert.Equal(t, "someone", msg.Author.Username)
	assert.False(t, msg.Edited)
}

func TestToMessageGuildMember(t *testing.T) {
	state := newState(t)
	edited := time.Now()
	msg := toMessage(state, &discordgo.Message{
		ID:              "m",
		ChannelID:       "c",
		GuildID:         "g",
		Content:         "<@&r-bot> ping",
		Author:          &discordgo.User{ID: "u"},
		Member:          &discordgo.Member{Roles: []string{"r-admin"}},
		MentionRoles:    []string{"r-bot"},
		MentionEveryone: true,
		EditedTimestamp: &edited,
	})

	assert.Equal(t, chat.OriginGuild, msg.Origin)
	assert.True(t, msg.Edited)
	assert.True(t, msg.Mentions.Everyone)
	assert.True(t, msg.Mentions.HasRole("r-bot"))
	require.NotNil(t, msg.Member)
	assert.Equal(t, []string{"Admins"}, msg.Member.RoleNames)

	table := access.NewTable(access.Spec{})
	assert.Equal(t, access.LevelAdmin, table.LevelFor(msg.Author.ID, msg.Member))
	assert.True(t, table.IsExempt(msg.Author.ID, msg.Member), "administrators hold every permission")
}

func TestToMessageFallsBackToStateMember(t *testing.T) {
	state := newState(t)
	msg := toMessage(state, &discordgo.Message{
		ID:        "m",
		ChannelID: "c",
		GuildID:   "g",
		Author:    &discordgo.User{ID: "stored"},
	})

	require.NotNil(t, msg.Member)
	assert.Equal(t, []string{"r-mod"}, msg.Member.RoleIDs)
	assert.Equal(t, []string{"Moderator"}, msg.Member.RoleNames)
	assert.Equal(t, int64(discordgo.PermissionSendMessages), msg.Member.Permissions&discordgo.PermissionSendMessages)

	table := access.NewTable(access.Spec{})
	assert.Equal(t, access.LevelMod, table.LevelFor("stored", msg.Member))
}

func TestSelfIn(t *testing.T) {
	state := newState(t)

	self := selfIn(state, "g")
	assert.Equal(t, "100", self.UserID)
	assert.True(t, self.HasNick)
	assert.Equal(t, []string{"r-bot"}, self.RoleIDs)

	self = selfIn(state, "")
	assert.Equal(t, "100", self.UserID)
	assert.Empty(t, self.RoleIDs)

	assert.Empty(t, selfIn(discordgo.NewState(), "g").UserID)
}

type fakeSender struct {
	sent []*discordgo.MessageSend
	err  error
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func TestResponder(t *testing.T) {
	s := &fakeSender{}
	r := NewResponder(s, 100)
	ctx := context.Background()

	require.NoError(t, r.Reply(ctx, "c", "hello"))
	require.NoError(t, r.Reply(ctx, "c", ""))
	require.NoError(t, r.Reply(ctx, "c", strings.Repeat("a", 2500)))

	require.Len(t, s.sent, 2)
	assert.Equal(t, "hello", s.sent[0].Content)
	require.NotNil(t, s.sent[0].AllowedMentions)
	assert.Empty(t, s.sent[0].AllowedMentions.Parse)
	assert.Len(t, []rune(s.sent[1].Content), maxMessageLength)

	s.err = errors.New("discord down")
	assert.Error(t, r.Reply(ctx, "c", "hello"))
}

func TestResponderHonoursContext(t *testing.T) {
	r := NewResponder(&fakeSender{}, 0.001)
	require.NoError(t, r.Reply(context.Background(), "c", "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, r.Reply(ctx, "c", "second"))
}
