// Package chat holds the transport-neutral message model the router works on.
// Gateway adapters convert their own events into these types.
package chat

// Origin tells where a message was posted.
type Origin int

const (
	// OriginDirect is a one-to-one (private) channel.
	OriginDirect Origin = iota
	// OriginGuild is a channel inside a guild.
	OriginGuild
)

func (o Origin) String() string {
	switch o {
	case OriginDirect:
		return "direct"
	case OriginGuild:
		return "guild"
	default:
		return "unknown"
	}
}

// Author identifies who wrote a message.
type Author struct {
	ID       string
	Username string
	Bot      bool
}

// Mentions lists the entities a message mentions.
type Mentions struct {
	Users    []string // user IDs
	Roles    []string // role IDs
	Everyone bool
}

// HasUser reports whether the user ID is mentioned.
func (m Mentions) HasUser(id string) bool {
	for _, u := range m.Users {
		if u == id {
			return true
		}
	}
	return false
}

// HasRole reports whether the role ID is mentioned.
func (m Mentions) HasRole(id string) bool {
	for _, r := range m.Roles {
		if r == id {
			return true
		}
	}
	return false
}

// Member carries the guild member data of the author. Nil for direct messages.
type Member struct {
	RoleIDs     []string
	RoleNames   []string
	Permissions int64 // effective permission bits in the message channel
}

// Message is one incoming chat event. It is not modified after it is built.
type Message struct {
	ID        string
	Origin    Origin
	Author    Author
	Content   string
	Edited    bool
	ChannelID string
	GuildID   string // empty for direct messages
	Mentions  Mentions
	Member    *Member
}

// IsDirect reports whether the message came from a private channel.
func (m *Message) IsDirect() bool {
	return m.Origin == OriginDirect
}

// WithContent returns a copy of m carrying new content and marked as edited.
func (m *Message) WithContent(content string) *Message {
	cp := *m
	cp.Content = content
	cp.Edited = true
	return &cp
}
