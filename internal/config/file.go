package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/router"

	"gopkg.in/yaml.v3"
)

// File is the YAML configuration file.
type File struct {
	Bot    Bot         `yaml:"bot"`
	Access access.Spec `yaml:"access"`
}

// Bot holds the routing settings. Unset keys keep their defaults.
type Bot struct {
	RequireMention *bool         `yaml:"commands_require_mention"`
	MentionRules   *mentionRules `yaml:"commands_mention_rules"`
	Prefix         string        `yaml:"commands_prefix"`
	AllowEdit      *bool         `yaml:"commands_allow_edit"`
	EditRetrigger  bool          `yaml:"commands_edit_retrigger"`
}

type mentionRules struct {
	User     *bool `yaml:"user"`
	Everyone *bool `yaml:"everyone"`
	Role     *bool `yaml:"role"`
}

// LoadFile reads the YAML file at path. A missing file yields the defaults.
func LoadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// RouterOptions resolves the routing settings against the defaults.
func (f File) RouterOptions() router.Options {
	opts := router.DefaultOptions()
	b := f.Bot
	if b.RequireMention != nil {
		opts.RequireMention = *b.RequireMention
	}
	if r := b.MentionRules; r != nil {
		set(&opts.MentionRules.User, r.User)
		set(&opts.MentionRules.Everyone, r.Everyone)
		set(&opts.MentionRules.Role, r.Role)
	}
	opts.Prefix = b.Prefix
	if b.AllowEdit != nil {
		opts.AllowEdit = *b.AllowEdit
	}
	opts.EditRetrigger = b.EditRetrigger
	return opts
}

func set(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// AccessTable builds the authorization table, adding extra owners such as
// the developer ID from the environment.
func (f File) AccessTable(extraOwners ...string) *access.Table {
	spec := f.Access
	for _, id := range extraOwners {
		if id != "" {
			spec.Owners = append(spec.Owners[:len(spec.Owners):len(spec.Owners)], id)
		}
	}
	return access.NewTable(spec)
}
