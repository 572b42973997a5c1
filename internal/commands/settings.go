package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/command"
	"github.com/keshon/connect-router/internal/policy"

	"github.com/spf13/pflag"
)

// SettingsFlags binds the policy flags to a flag set and turns the ones
// given into a policy.Patch.
type SettingsFlags struct {
	fs *pflag.FlagSet

	setPrefix    string
	removePrefix bool
	volume       int
	ignoreServer optionalBool
	ignoreChan   optionalBool
	sendStatus   optionalBool
	minSkips     int
}

// NewSettingsFlags registers the policy flags on fs.
func NewSettingsFlags(fs *pflag.FlagSet) *SettingsFlags {
	f := &SettingsFlags{fs: fs}
	fs.StringVar(&f.setPrefix, "set-custom-prefix", "", "set a custom command prefix for this server")
	fs.BoolVar(&f.removePrefix, "remove-custom-prefix", false, "remove the custom command prefix")
	fs.IntVar(&f.volume, "audio-volume", 0, "default audio volume in percent (0-200)")
	fs.Var(&f.ignoreServer, "ignore-server", "ignore commands from non-moderators in this server (yes/no)")
	fs.Var(&f.ignoreChan, "ignore-channel", "ignore commands from non-moderators in this channel (yes/no)")
	fs.Var(&f.sendStatus, "send-status-messages", "send status messages (yes/no)")
	fs.IntVar(&f.minSkips, "minimum-votes-to-skip", 0, "votes needed to skip a track")
	return f
}

// Patch returns the changes for the flags that were set.
func (f *SettingsFlags) Patch() policy.Patch {
	var p policy.Patch
	if f.fs.Changed("set-custom-prefix") {
		p.SetPrefix = &f.setPrefix
	}
	p.RemovePrefix = f.removePrefix
	if f.fs.Changed("audio-volume") {
		p.Volume = &f.volume
	}
	p.IgnoreOrigin = f.ignoreServer.v
	p.IgnoreChannel = f.ignoreChan.v
	p.SendStatusMessages = f.sendStatus.v
	if f.fs.Changed("minimum-votes-to-skip") {
		p.MinSkips = &f.minSkips
	}
	return p
}

// ParseSettings parses chat arguments such as "--audio-volume 50 --ignore-channel yes".
func ParseSettings(args string) (policy.Patch, error) {
	fs := pflag.NewFlagSet("settings", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := NewSettingsFlags(fs)
	if err := fs.Parse(strings.Fields(args)); err != nil {
		return policy.Patch{}, err
	}
	return flags.Patch(), nil
}

// optionalBool is a flag value that accepts yes/no words and remembers
// whether it was set.
type optionalBool struct {
	v *bool
}

func (b *optionalBool) String() string {
	if b.v == nil {
		return ""
	}
	if *b.v {
		return "yes"
	}
	return "no"
}

func (b *optionalBool) Set(s string) error {
	v, err := command.ParseBool(s)
	if err != nil {
		return err
	}
	b.v = &v
	return nil
}

func (b *optionalBool) Type() string { return "yes|no" }

type SettingsCommand struct {
	policies PolicyEditor
}

func (c *SettingsCommand) Name() string        { return "settings" }
func (c *SettingsCommand) Description() string { return "Show or change server settings" }
func (c *SettingsCommand) Aliases() []string   { return []string{} }
func (c *SettingsCommand) Usage() string       { return "[options:str...]" }
func (c *SettingsCommand) Level() access.Level { return access.LevelAdmin }

func (c *SettingsCommand) Run(ctx context.Context, inv *command.Invocation) error {
	if c.policies == nil {
		return errors.New("settings: no policy store")
	}
	msg := inv.Message

	patch, err := ParseSettings(inv.Args.String("options"))
	if err != nil {
		return inv.Reply(ctx, "Invalid settings: "+err.Error())
	}

	if patch.Empty() {
		rec, err := c.policies.GetOrCreate(ctx, msg.GuildID)
		if err != nil {
			return err
		}
		return inv.Reply(ctx, FormatRecord(rec))
	}

	rec, err := c.policies.Update(ctx, msg.GuildID, msg.ChannelID, patch)
	if errors.Is(err, policy.ErrInvalidPatch) {
		return inv.Reply(ctx, "Invalid settings: "+strings.TrimPrefix(err.Error(), policy.ErrInvalidPatch.Error()+": "))
	}
	if err != nil {
		return err
	}
	return inv.Reply(ctx, "Settings updated.\n"+FormatRecord(rec))
}

// FormatRecord renders a policy record for chat.
func FormatRecord(rec policy.Record) string {
	prefix := "none"
	if rec.Prefix != nil {
		prefix = "`" + *rec.Prefix + "`"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Custom prefix: %s\n", prefix)
	fmt.Fprintf(&sb, "Ignoring server: %s\n", yesNo(rec.IgnoreOrigin))
	fmt.Fprintf(&sb, "Ignored channels: %d\n", len(rec.IgnoredChannels))
	fmt.Fprintf(&sb, "Audio volume: %.0f%%\n", rec.Volume*100)
	fmt.Fprintf(&sb, "Minimum votes to skip: %d\n", rec.MinSkips)
	fmt.Fprintf(&sb, "Send status messages: %s", yesNo(rec.SendStatusMessages))
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
