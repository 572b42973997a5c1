// Package access decides who may run what: permission levels and the set of
// members exempt from moderation suppression.
package access

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/keshon/connect-router/internal/chat"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/yaml.v3"
)

// Level orders invokers by trust. A command requires a minimum level.
type Level int

const (
	LevelDefault Level = 0
	LevelTrusted Level = 10
	LevelMod     Level = 50
	LevelAdmin   Level = 100
	LevelOwner   Level = 500
)

var levelNames = map[Level]string{
	LevelDefault: "default",
	LevelTrusted: "trusted",
	LevelMod:     "mod",
	LevelAdmin:   "admin",
	LevelOwner:   "owner",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts a level name or its numeric value.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return Level(n), nil
}

// UnmarshalYAML lets config files name levels ("admin") or give numbers.
func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseLevel(node.Value)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Permission bits consulted by the table.
const (
	PermissionAdministrator  = discordgo.PermissionAdministrator
	PermissionManageMessages = discordgo.PermissionManageMessages
)

// DefaultModeratorRoles are the role names recognised as moderators.
var DefaultModeratorRoles = []string{"Bot Mod", "Mod", "Mods", "Moderator", "Moderators"}

// Spec is the configured form of a Table.
type Spec struct {
	Owners         []string         `yaml:"owners"`
	ExemptUsers    []string         `yaml:"exempt_users"`
	ModeratorRoles []string         `yaml:"moderator_roles"`
	Levels         map[string]Level `yaml:"levels"` // user ID -> level override
}

// Table is an immutable authorization policy.
type Table struct {
	owners         map[string]struct{}
	exempt         map[string]struct{}
	moderatorRoles map[string]struct{}
	levels         map[string]Level
}

// NewTable builds a table from its spec. A nil ModeratorRoles list falls back
// to DefaultModeratorRoles; an explicit empty list disables role exemption.
func NewTable(spec Spec) *Table {
	roles := spec.ModeratorRoles
	if roles == nil {
		roles = DefaultModeratorRoles
	}
	t := &Table{
		owners:         toSet(spec.Owners),
		exempt:         toSet(spec.ExemptUsers),
		moderatorRoles: toSet(roles),
		levels:         make(map[string]Level, len(spec.Levels)),
	}
	for id, l := range spec.Levels {
		t.levels[id] = l
	}
	return t
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// IsOwner reports whether the user is a configured owner.
func (t *Table) IsOwner(userID string) bool {
	_, ok := t.owners[userID]
	return ok
}

// IsModeratorRole reports whether the role name is a recognised moderator role.
// Names match exactly.
func (t *Table) IsModeratorRole(name string) bool {
	_, ok := t.moderatorRoles[name]
	return ok
}

// IsExempt reports whether the author bypasses moderation suppression.
func (t *Table) IsExempt(userID string, member *chat.Member) bool {
	if _, ok := t.exempt[userID]; ok {
		return true
	}
	if t.IsOwner(userID) {
		return true
	}
	if member == nil {
		return false
	}
	if member.Permissions&PermissionManageMessages != 0 {
		return true
	}
	return slices.ContainsFunc(member.RoleNames, t.IsModeratorRole)
}

// LevelFor resolves the invoker's level. Owners rank highest, then explicit
// overrides, then what the member's permissions and roles imply.
func (t *Table) LevelFor(userID string, member *chat.Member) Level {
	if t.IsOwner(userID) {
		return LevelOwner
	}
	if l, ok := t.levels[userID]; ok {
		return l
	}
	if member == nil {
		return LevelDefault
	}
	switch {
	case member.Permissions&PermissionAdministrator != 0:
		return LevelAdmin
	case member.Permissions&PermissionManageMessages != 0:
		return LevelMod
	case slices.ContainsFunc(member.RoleNames, t.IsModeratorRole):
		return LevelMod
	}
	return LevelDefault
}

// Holder publishes the current table to concurrent readers and lets a
// reloader swap it.
type Holder struct {
	p atomic.Pointer[Table]
}

func NewHolder(t *Table) *Holder {
	h := &Holder{}
	h.Store(t)
	return h
}

// Load returns the current table.
func (h *Holder) Load() *Table {
	return h.p.Load()
}

// Store replaces the table.
func (h *Holder) Store(t *Table) {
	if t == nil {
		t = NewTable(Spec{})
	}
	h.p.Store(t)
}
