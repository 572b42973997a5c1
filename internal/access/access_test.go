package access

import (
	"sync"
	"testing"

	"github.com/keshon/connect-router/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLevelFor(t *testing.T) {
	table := NewTable(Spec{
		Owners: []string{"owner"},
		Levels: map[string]Level{"trusted-user": LevelTrusted, "owner": LevelDefault},
	})

	cases := []struct {
		name   string
		user   string
		member *chat.Member
		want   Level
	}{
		{"owner beats override", "owner", nil, LevelOwner},
		{"override", "trusted-user", &chat.Member{Permissions: PermissionAdministrator}, LevelTrusted},
		{"administrator", "u", &chat.Member{Permissions: PermissionAdministrator}, LevelAdmin},
		{"manage messages", "u", &chat.Member{Permissions: PermissionManageMessages}, LevelMod},
		{"moderator role", "u", &chat.Member{RoleNames: []string{"Moderators"}}, LevelMod},
		{"plain member", "u", &chat.Member{RoleNames: []string{"Member"}}, LevelDefault},
		{"direct message", "u", nil, LevelDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.LevelFor(tc.user, tc.member))
		})
	}
}

func TestIsExempt(t *testing.T) {
	table := NewTable(Spec{ExemptUsers: []string{"vip"}})

	assert.True(t, table.IsExempt("vip", nil))
	assert.True(t, table.IsExempt("u", &chat.Member{Permissions: PermissionManageMessages}))
	assert.True(t, table.IsExempt("u", &chat.Member{RoleNames: []string{"Bot Mod"}}))
	assert.False(t, table.IsExempt("u", &chat.Member{RoleNames: []string{"bot mod"}}), "role names match exactly")
	assert.False(t, table.IsExempt("u", &chat.Member{Permissions: PermissionAdministrator &^ PermissionManageMessages}))
	assert.False(t, table.IsExempt("u", nil))
}

func TestEmptyModeratorRolesDisablesRoleExemption(t *testing.T) {
	table := NewTable(Spec{ModeratorRoles: []string{}})
	assert.False(t, table.IsExempt("u", &chat.Member{RoleNames: []string{"Mod"}}))
}

func TestSpecFromYAML(t *testing.T) {
	var spec Spec
	err := yaml.Unmarshal([]byte(`
owners: ["1"]
moderator_roles: ["Helpers"]
levels:
  "2": admin
  "3": 10
`), &spec)
	require.NoError(t, err)

	table := NewTable(spec)
	assert.Equal(t, LevelAdmin, table.LevelFor("2", nil))
	assert.Equal(t, LevelTrusted, table.LevelFor("3", nil))
	assert.True(t, table.IsModeratorRole("Helpers"))
	assert.False(t, table.IsModeratorRole("Mod"))
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" Owner ")
	require.NoError(t, err)
	assert.Equal(t, LevelOwner, l)

	_, err = ParseLevel("wizard")
	assert.Error(t, err)
	assert.Equal(t, "level(7)", Level(7).String())
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(NewTable(Spec{}))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Load().IsOwner("x")
		}()
	}
	h.Store(NewTable(Spec{Owners: []string{"x"}}))
	wg.Wait()
	assert.True(t, h.Load().IsOwner("x"))

	h.Store(nil)
	assert.NotNil(t, h.Load())
}
