package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsage(t *testing.T) {
	specs, err := ParseUsage("<user:str> [count:int] [reason:str...]")
	require.NoError(t, err)
	assert.Equal(t, []ArgSpec{
		{Name: "user", Type: "str", Required: true},
		{Name: "count", Type: "int"},
		{Name: "reason", Type: "str", Rest: true},
	}, specs)

	specs, err = ParseUsage("")
	require.NoError(t, err)
	assert.Empty(t, specs)

	specs, err = ParseUsage("<name>")
	require.NoError(t, err)
	assert.Equal(t, "str", specs[0].Type)
}

func TestParseUsageErrors(t *testing.T) {
	for _, usage := range []string{
		"<a:str",
		"<a:str]",
		"<a:float>",
		"<a:str...> <b:str>",
		"[a:str] <b:str>",
		"<n:int...>",
		"plain",
	} {
		_, err := ParseUsage(usage)
		assert.ErrorIs(t, err, ErrBadUsage, usage)
	}
}

func TestParseArgs(t *testing.T) {
	specs, err := ParseUsage("<user:str> [count:int] [reason:str...]")
	require.NoError(t, err)

	args, err := ParseArgs(specs, "bob 3  being   loud ")
	require.NoError(t, err)
	assert.Equal(t, "bob", args.String("user"))
	assert.Equal(t, 3, args.Int("count"))
	assert.Equal(t, "being   loud", args.String("reason"))

	args, err = ParseArgs(specs, "bob")
	require.NoError(t, err)
	assert.False(t, args.Has("count"))
	assert.Equal(t, 0, args.Int("count"))

	_, err = ParseArgs(specs, "")
	assert.ErrorIs(t, err, ErrBadArguments)

	_, err = ParseArgs(specs, "bob many")
	assert.ErrorIs(t, err, ErrBadArguments)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"yes", "Y", "true", "1", "enable", "ON"} {
		b, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.True(t, b, s)
	}
	for _, s := range []string{"no", "n", "FALSE", "0", "disable", "off"} {
		b, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.False(t, b, s)
	}
	_, err := ParseBool("maybe")
	assert.Error(t, err)
}

func TestFormatUsage(t *testing.T) {
	assert.Equal(t, "ping", FormatUsage(&stubCommand{name: "ping"}))
	assert.Equal(t, "echo <text:str...>", FormatUsage(&stubCommand{name: "echo", usage: "<text:str...>"}))
}
