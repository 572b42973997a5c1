package command

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrBadUsage reports a malformed usage spec at registration time.
var ErrBadUsage = errors.New("bad usage spec")

// ErrBadArguments reports captured text that does not fit the usage spec.
var ErrBadArguments = errors.New("bad arguments")

// ArgSpec describes one argument of a usage spec.
type ArgSpec struct {
	Name     string
	Type     string // str, int or bool
	Required bool
	Rest     bool // consumes the remaining text verbatim
}

var argTokenRe = regexp.MustCompile(`^([<\[])([A-Za-z_][A-Za-z0-9_]*)(?::(str|int|bool))?(\.\.\.)?([>\]])$`)

// ParseUsage parses a spec such as "<user:str> [count:int] [reason:str...]".
func ParseUsage(usage string) ([]ArgSpec, error) {
	var specs []ArgSpec
	seenOptional := false
	for _, tok := range strings.Fields(usage) {
		m := argTokenRe.FindStringSubmatch(tok)
		if m == nil || (m[1] == "<") != (m[5] == ">") {
			return nil, fmt.Errorf("%w: %q", ErrBadUsage, tok)
		}
		spec := ArgSpec{Name: m[2], Type: m[3], Required: m[1] == "<", Rest: m[4] != ""}
		if spec.Type == "" {
			spec.Type = "str"
		}
		if len(specs) > 0 && specs[len(specs)-1].Rest {
			return nil, fmt.Errorf("%w: %q follows a rest argument", ErrBadUsage, tok)
		}
		if spec.Required && seenOptional {
			return nil, fmt.Errorf("%w: required %q follows an optional argument", ErrBadUsage, spec.Name)
		}
		if spec.Rest && spec.Type != "str" {
			return nil, fmt.Errorf("%w: rest argument %q must be str", ErrBadUsage, spec.Name)
		}
		seenOptional = seenOptional || !spec.Required
		specs = append(specs, spec)
	}
	return specs, nil
}

// Args are the parsed arguments of one invocation.
type Args struct {
	Raw    string
	values map[string]string
}

// Has reports whether the argument was given.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// String returns the argument text, empty when absent.
func (a Args) String(name string) string {
	return a.values[name]
}

// Int returns an int argument. Types were checked when parsing.
func (a Args) Int(name string) int {
	n, _ := strconv.Atoi(a.values[name])
	return n
}

// Bool returns a bool argument. Types were checked when parsing.
func (a Args) Bool(name string) bool {
	b, _ := ParseBool(a.values[name])
	return b
}

// ParseArgs splits raw text according to specs.
func ParseArgs(specs []ArgSpec, raw string) (Args, error) {
	args := Args{Raw: raw, values: make(map[string]string, len(specs))}
	rest := strings.TrimSpace(raw)

	for _, spec := range specs {
		if rest == "" {
			if spec.Required {
				return args, fmt.Errorf("%w: missing %s", ErrBadArguments, spec.Name)
			}
			break
		}

		var value string
		if spec.Rest {
			value, rest = rest, ""
		} else {
			value, rest = nextField(rest)
		}

		switch spec.Type {
		case "int":
			if _, err := strconv.Atoi(value); err != nil {
				return args, fmt.Errorf("%w: %s must be a number", ErrBadArguments, spec.Name)
			}
		case "bool":
			if _, err := ParseBool(value); err != nil {
				return args, fmt.Errorf("%w: %s: %v", ErrBadArguments, spec.Name, err)
			}
		}
		args.values[spec.Name] = value
	}
	return args, nil
}

func nextField(s string) (field, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// ParseBool understands the yes/no words people type in chat.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t", "1", "enable", "on":
		return true, nil
	case "no", "n", "false", "f", "0", "disable", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a recognised boolean option", s)
}

// FormatUsage renders a command's trigger and usage for help output.
func FormatUsage(c Command) string {
	if c.Usage() == "" {
		return c.Name()
	}
	return c.Name() + " " + c.Usage()
}
