package command

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Registry collects commands before the table is built. It is not safe for
// concurrent use; register everything at startup, then call Build.
type Registry struct {
	commands []Command
	names    map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register adds a command wrapped in the given middlewares.
func (r *Registry) Register(c Command, mws ...Middleware) error {
	name := c.Name()
	if name == "" || strings.ContainsFunc(name, isSpace) {
		return fmt.Errorf("invalid command name %q", name)
	}
	if r.names[name] {
		return fmt.Errorf("command %q already registered", name)
	}
	r.names[name] = true
	r.commands = append(r.commands, Apply(c, mws...))
	return nil
}

// MustRegister is Register for init-time wiring.
func (r *Registry) MustRegister(c Command, mws ...Middleware) {
	if err := r.Register(c, mws...); err != nil {
		panic(err)
	}
}

// Build compiles every pattern once into an immutable Table.
func (r *Registry) Build() (*Table, error) {
	t := &Table{byName: make(map[string]*entry, len(r.commands))}
	var all []string

	for _, c := range r.commands {
		specs, err := ParseUsage(c.Usage())
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", c.Name(), err)
		}
		triggers := Triggers(c)
		for _, tr := range triggers {
			if tr == "" || strings.ContainsFunc(tr, isSpace) {
				return nil, fmt.Errorf("command %q: invalid trigger %q", c.Name(), tr)
			}
		}
		re, err := regexp.Compile(patternFor(triggers, specs))
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", c.Name(), err)
		}
		e := &entry{cmd: c, specs: specs, re: re}
		t.entries = append(t.entries, e)
		t.byName[c.Name()] = e
		all = append(all, triggers...)
	}

	if len(all) > 0 {
		t.triggers = regexp.MustCompile(`^` + alternation(all) + `(?:\s|$)`)
	}
	return t, nil
}

// patternFor builds the anchored pattern of one command. Commands with a
// required argument need at least one non-space character after the trigger;
// optional-only commands accept the bare trigger too; bare commands match the
// trigger followed by whitespace or the end of the text.
func patternFor(triggers []string, specs []ArgSpec) string {
	head := `^` + alternation(triggers)
	switch {
	case len(specs) == 0:
		return head + `(?:\s|$)`
	case specs[0].Required:
		return head + `\s+(?P<args>\S[\s\S]*)$`
	default:
		return head + `(?:\s+(?P<args>[\s\S]*))?$`
	}
}

func alternation(triggers []string) string {
	quoted := make([]string, 0, len(triggers))
	seen := make(map[string]bool, len(triggers))
	for _, tr := range triggers {
		if seen[tr] {
			continue
		}
		seen[tr] = true
		quoted = append(quoted, regexp.QuoteMeta(tr))
	}
	// longest first so a trigger never shadows a longer one sharing its start
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	// triggers ignore case, arguments keep theirs
	return `(?i:` + strings.Join(quoted, "|") + `)`
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

type entry struct {
	cmd   Command
	specs []ArgSpec
	re    *regexp.Regexp
}

func (e *entry) hasArgs() bool { return len(e.specs) > 0 }

// Candidate is a command whose pattern matched, with its captured arguments.
// ArgsErr is set when the captured text did not fit the usage spec.
type Candidate struct {
	Command Command
	Args    Args
	ArgsErr error
	hasArgs bool
}

// HasArgs reports whether the command's pattern captures an argument group.
func (c Candidate) HasArgs() bool { return c.hasArgs }

// Table is the compiled, read-only command set. Safe for concurrent use.
type Table struct {
	entries  []*entry
	byName   map[string]*entry
	triggers *regexp.Regexp
}

// MatchesAny is the fast path: does the text start with any known trigger.
func (t *Table) MatchesAny(text string) bool {
	return t.triggers != nil && t.triggers.MatchString(text)
}

// Match tests every command against text. Commands that capture an argument
// group come before bare ones; otherwise registration order is kept.
func (t *Table) Match(text string) []Candidate {
	var out []Candidate
	for _, e := range t.entries {
		m := e.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := ""
		if idx := e.re.SubexpIndex("args"); idx >= 0 {
			raw = m[idx]
		}
		args, err := ParseArgs(e.specs, raw)
		out = append(out, Candidate{Command: e.cmd, Args: args, ArgsErr: err, hasArgs: e.hasArgs()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].hasArgs && !out[j].hasArgs
	})
	return out
}

// Lookup finds a command by name.
func (t *Table) Lookup(name string) (Command, bool) {
	e, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return e.cmd, true
}

// Commands returns all commands sorted by name.
func (t *Table) Commands() []Command {
	list := make([]Command, 0, len(t.entries))
	for _, e := range t.entries {
		list = append(list, e.cmd)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}
