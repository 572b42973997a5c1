// Package policy owns the per-guild moderation and configuration records.
//
// Records are keyed by a coarsened guild identifier, the bucket, computed as
// guild_id >> 22. Different guilds can land in the same bucket and then share
// one record. That sharing is intentional and must be kept.
package policy

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf8"
)

// BucketShift is the number of low bits dropped from an identifier to form its bucket.
const BucketShift = 22

const (
	DefaultVolume             = 0.7
	DefaultMinSkips           = 3
	DefaultSendStatusMessages = true

	// MaxPrefixLength is the longest custom prefix, in characters. SQL
	// backends size the column to it.
	MaxPrefixLength = 64
)

// ErrInvalidID is returned for identifiers that are not unsigned snowflakes.
var ErrInvalidID = errors.New("invalid identifier")

// ErrInvalidPatch is returned when a patch carries out-of-range values.
var ErrInvalidPatch = errors.New("invalid policy patch")

// Bucket converts a raw snowflake into its storage bucket.
func Bucket(id uint64) uint64 {
	return id >> BucketShift
}

// BucketOf parses a snowflake string and returns its bucket.
func BucketOf(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return Bucket(n), nil
}

// Record is the policy of one bucket.
type Record struct {
	ID                 uint64   `json:"id"`
	Prefix             *string  `json:"prefix"`
	IgnoreOrigin       bool     `json:"ignore_origin"`
	IgnoredChannels    []uint64 `json:"ignored_channels"` // channel buckets
	MinSkips           int      `json:"min_skips"`
	Volume             float64  `json:"volume"`
	SendStatusMessages bool     `json:"send_status_messages"`
}

// Defaults returns the record synthesized for a bucket that has none stored.
func Defaults(bucket uint64) Record {
	return Record{
		ID:                 bucket,
		Prefix:             nil,
		IgnoreOrigin:       false,
		IgnoredChannels:    []uint64{},
		MinSkips:           DefaultMinSkips,
		Volume:             DefaultVolume,
		SendStatusMessages: DefaultSendStatusMessages,
	}
}

// PrefixOr returns the custom prefix when one is set, fallback otherwise.
func (r Record) PrefixOr(fallback string) string {
	if r.Prefix != nil {
		return *r.Prefix
	}
	return fallback
}

// IgnoresChannel reports whether the channel's bucket is in the ignored set.
// Unparseable channel IDs are never ignored.
func (r Record) IgnoresChannel(channelID string) bool {
	b, err := BucketOf(channelID)
	if err != nil {
		return false
	}
	return slices.Contains(r.IgnoredChannels, b)
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	cp := r
	if r.Prefix != nil {
		p := *r.Prefix
		cp.Prefix = &p
	}
	cp.IgnoredChannels = slices.Clone(r.IgnoredChannels)
	if cp.IgnoredChannels == nil {
		cp.IgnoredChannels = []uint64{}
	}
	return cp
}

// Patch is a partial update of a Record. Nil fields are left untouched.
type Patch struct {
	SetPrefix          *string `json:"set_prefix,omitempty"`
	RemovePrefix       bool    `json:"remove_prefix,omitempty"`
	Volume             *int    `json:"volume,omitempty"` // percent
	IgnoreOrigin       *bool   `json:"ignore_origin,omitempty"`
	IgnoreChannel      *bool   `json:"ignore_channel,omitempty"` // applies to the channel passed to Apply
	SendStatusMessages *bool   `json:"send_status_messages,omitempty"`
	MinSkips           *int    `json:"min_skips,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.SetPrefix == nil && !p.RemovePrefix && p.Volume == nil && p.IgnoreOrigin == nil &&
		p.IgnoreChannel == nil && p.SendStatusMessages == nil && p.MinSkips == nil
}

// Validate checks value ranges.
func (p Patch) Validate() error {
	if p.SetPrefix != nil && *p.SetPrefix == "" {
		return fmt.Errorf("%w: prefix must not be empty", ErrInvalidPatch)
	}
	if p.SetPrefix != nil && utf8.RuneCountInString(*p.SetPrefix) > MaxPrefixLength {
		return fmt.Errorf("%w: prefix must be at most %d characters", ErrInvalidPatch, MaxPrefixLength)
	}
	if p.SetPrefix != nil && p.RemovePrefix {
		return fmt.Errorf("%w: cannot set and remove the prefix at once", ErrInvalidPatch)
	}
	if p.Volume != nil && (*p.Volume < 0 || *p.Volume > 200) {
		return fmt.Errorf("%w: volume must be between 0 and 200", ErrInvalidPatch)
	}
	if p.MinSkips != nil && *p.MinSkips < 1 {
		return fmt.Errorf("%w: minimum votes to skip must be at least 1", ErrInvalidPatch)
	}
	return nil
}

// Apply merges p into a copy of r. channelID is the channel the
// IgnoreChannel toggle refers to.
func (r Record) Apply(p Patch, channelID string) (Record, error) {
	if err := p.Validate(); err != nil {
		return r, err
	}
	out := r.Clone()

	switch {
	case p.RemovePrefix:
		out.Prefix = nil
	case p.SetPrefix != nil:
		prefix := *p.SetPrefix
		out.Prefix = &prefix
	}
	if p.Volume != nil {
		out.Volume = float64(*p.Volume) / 100
	}
	if p.IgnoreOrigin != nil {
		out.IgnoreOrigin = *p.IgnoreOrigin
	}
	if p.SendStatusMessages != nil {
		out.SendStatusMessages = *p.SendStatusMessages
	}
	if p.MinSkips != nil {
		out.MinSkips = *p.MinSkips
	}
	if p.IgnoreChannel != nil {
		ch, err := BucketOf(channelID)
		if err != nil {
			return r, err
		}
		idx := slices.Index(out.IgnoredChannels, ch)
		switch {
		case *p.IgnoreChannel && idx < 0:
			out.IgnoredChannels = append(out.IgnoredChannels, ch)
		case !*p.IgnoreChannel && idx >= 0:
			out.IgnoredChannels = slices.Delete(out.IgnoredChannels, idx, idx+1)
		}
	}
	return out, nil
}
