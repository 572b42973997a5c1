package chat

// Mention tokens as they appear in raw message content.

// UserMention returns the canonical user mention token.
func UserMention(userID string) string {
	return "<@" + userID + ">"
}

// NickMention returns the mention token used when the user has a nickname set.
func NickMention(userID string) string {
	return "<@!" + userID + ">"
}

// RoleMention returns the role mention token.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

// EveryoneMention is the literal used for everyone mentions.
const EveryoneMention = "@everyone"
