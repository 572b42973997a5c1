package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestBucketOf(t *testing.T) {
	b, err := BucketOf("201742045952344064")
	require.NoError(t, err)
	assert.Equal(t, uint64(201742045952344064)>>22, b)

	_, err = BucketOf("-1")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestApplyPrefix(t *testing.T) {
	rec := Defaults(1)

	withPrefix, err := rec.Apply(Patch{SetPrefix: ptr("!")}, "")
	require.NoError(t, err)
	assert.Equal(t, "!", withPrefix.PrefixOr("?"))
	assert.Nil(t, rec.Prefix, "apply does not mutate the receiver")

	removed, err := withPrefix.Apply(Patch{RemovePrefix: true}, "")
	require.NoError(t, err)
	assert.Equal(t, "?", removed.PrefixOr("?"))
}

func TestApplyVolumePercent(t *testing.T) {
	rec, err := Defaults(1).Apply(Patch{Volume: ptr(45)}, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.45, rec.Volume, 1e-9)
}

func TestApplyIgnoreChannelToggle(t *testing.T) {
	channel := "12582912" // bucket 3
	rec, err := Defaults(1).Apply(Patch{IgnoreChannel: ptr(true)}, channel)
	require.NoError(t, err)
	assert.True(t, rec.IgnoresChannel(channel))

	again, err := rec.Apply(Patch{IgnoreChannel: ptr(true)}, channel)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, again.IgnoredChannels, "no duplicates")

	cleared, err := again.Apply(Patch{IgnoreChannel: ptr(false)}, channel)
	require.NoError(t, err)
	assert.False(t, cleared.IgnoresChannel(channel))
	assert.True(t, again.IgnoresChannel(channel), "receiver untouched")
}

func TestPatchValidate(t *testing.T) {
	cases := []struct {
		name  string
		patch Patch
	}{
		{"empty prefix", Patch{SetPrefix: ptr("")}},
		{"set and remove", Patch{SetPrefix: ptr("!"), RemovePrefix: true}},
		{"volume too loud", Patch{Volume: ptr(500)}},
		{"negative volume", Patch{Volume: ptr(-1)}},
		{"no skips", Patch{MinSkips: ptr(0)}},
		{"prefix too long", Patch{SetPrefix: ptr(strings.Repeat("!", MaxPrefixLength+1))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.patch.Validate(), ErrInvalidPatch)
		})
	}
	assert.NoError(t, Patch{SetPrefix: ptr(strings.Repeat("é", MaxPrefixLength))}.Validate(), "length counts characters")
	assert.True(t, Patch{}.Empty())
	assert.False(t, Patch{RemovePrefix: true}.Empty())
}
