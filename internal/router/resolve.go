package router

import (
	"strings"
	"unicode"

	"github.com/keshon/connect-router/internal/chat"
)

// Self is how the bot appears in one guild.
type Self struct {
	UserID  string
	HasNick bool     // a nickname is set, so clients may send <@!id>
	RoleIDs []string // the bot's own roles in the guild
}

// MentionRules select which mentions count as addressing the bot.
type MentionRules struct {
	User     bool `yaml:"user"`
	Everyone bool `yaml:"everyone"`
	Role     bool `yaml:"role"`
}

// DefaultMentionRules only accept a direct mention.
func DefaultMentionRules() MentionRules {
	return MentionRules{User: true}
}

// IdentityResolver tells the router who the bot is in a guild. An empty
// guild ID asks for the global identity.
type IdentityResolver interface {
	Self(guildID string) Self
}

// StaticIdentity resolves to the same identity everywhere.
type StaticIdentity Self

func (s StaticIdentity) Self(string) Self { return Self(s) }

// Resolve strips addressing from the message content and returns the text to
// match commands against. ok is false when the message does not address the
// bot.
func Resolve(msg *chat.Message, self Self, prefix string, requireMention bool, rules MentionRules) (text string, ok bool) {
	text = msg.Content
	addressed := false

	if requireMention {
		direct := msg.Mentions.HasUser(self.UserID)
		everyone := msg.Mentions.Everyone

		var roles []string
		if !msg.IsDirect() {
			for _, id := range self.RoleIDs {
				if msg.Mentions.HasRole(id) {
					roles = append(roles, id)
				}
			}
		}

		addressed = (rules.User && direct) ||
			(rules.Everyone && everyone) ||
			(rules.Role && len(roles) > 0) ||
			msg.IsDirect()

		if !addressed && prefix == "" {
			return "", false
		}

		switch {
		case direct:
			if self.HasNick {
				text = strings.Replace(text, chat.NickMention(self.UserID), "", 1)
			}
			text = strings.Replace(text, chat.UserMention(self.UserID), "", 1)
		case everyone:
			text = strings.Replace(text, chat.EveryoneMention, "", 1)
		default:
			for _, id := range roles {
				text = strings.Replace(text, chat.RoleMention(id), "", 1)
			}
		}
		text = strings.TrimLeftFunc(text, unicode.IsSpace)
	}

	// A direct channel is not a mention rule, so a prefix there is stripped too.
	byMention := addressed && !msg.IsDirect()
	if !byMention && prefix != "" {
		if strings.HasPrefix(text, prefix) {
			return text[len(prefix):], true
		}
		if requireMention && !addressed {
			return "", false
		}
	}
	return text, true
}
