package discord

import (
	"github.com/keshon/connect-router/internal/chat"
	"github.com/keshon/connect-router/internal/router"

	"github.com/bwmarrin/discordgo"
)

// toMessage converts a gateway message, resolving the author's role names and
// channel permissions from state. State misses leave those fields empty.
func toMessage(state *discordgo.State, m *discordgo.Message) *chat.Message {
	msg := &chat.Message{
		ID:        m.ID,
		Origin:    chat.OriginDirect,
		Content:   m.Content,
		Edited:    m.EditedTimestamp != nil,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Mentions: chat.Mentions{
			Roles:    m.MentionRoles,
			Everyone: m.MentionEveryone,
		},
	}
	if m.Author != nil {
		msg.Author = chat.Author{ID: m.Author.ID, Username: m.Author.Username, Bot: m.Author.Bot}
	}
	for _, u := range m.Mentions {
		msg.Mentions.Users = append(msg.Mentions.Users, u.ID)
	}

	if m.GuildID == "" {
		return msg
	}
	msg.Origin = chat.OriginGuild
	msg.Member = toMember(state, m)
	return msg
}

func toMember(state *discordgo.State, m *discordgo.Message) *chat.Member {
	member := &chat.Member{}

	var roles []string
	switch {
	case m.Member != nil:
		roles = m.Member.Roles
	case m.Author != nil:
		if gm, err := state.Member(m.GuildID, m.Author.ID); err == nil {
			roles = gm.Roles
		}
	}
	member.RoleIDs = roles
	for _, id := range roles {
		if role, err := state.Role(m.GuildID, id); err == nil {
			member.RoleNames = append(member.RoleNames, role.Name)
		}
	}

	var (
		perms int64
		err   error
	)
	if m.Member != nil {
		perms, err = state.MessagePermissions(m)
	} else if m.Author != nil {
		perms, err = state.UserChannelPermissions(m.Author.ID, m.ChannelID)
	}
	if err == nil {
		member.Permissions = perms
	}
	return member
}

// selfIn resolves how the bot appears in a guild.
func selfIn(state *discordgo.State, guildID string) router.Self {
	if state.User == nil {
		return router.Self{}
	}
	self := router.Self{UserID: state.User.ID}
	if guildID == "" {
		return self
	}
	if member, err := state.Member(guildID, state.User.ID); err == nil {
		self.HasNick = member.Nick != ""
		self.RoleIDs = member.Roles
	}
	return self
}
