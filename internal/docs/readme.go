// Package docs renders the command reference into README.md.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/command"
)

// CommandSections lists the table's commands grouped by required level,
// lowest level first.
func CommandSections(table *command.Table, prefix string) string {
	byLevel := make(map[access.Level][]command.Command)
	var levels []access.Level
	for _, c := range table.Commands() {
		if _, ok := byLevel[c.Level()]; !ok {
			levels = append(levels, c.Level())
		}
		byLevel[c.Level()] = append(byLevel[c.Level()], c)
	}
	slices.Sort(levels)

	var buf bytes.Buffer
	for i, level := range levels {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "### %s\n\n", sectionTitle(level))
		for _, c := range byLevel[level] {
			fmt.Fprintf(&buf, "- **`%s%s`** %s", prefix, command.FormatUsage(c), c.Description())
			if aliases := c.Aliases(); len(aliases) > 0 {
				fmt.Fprintf(&buf, " (aliases: %s)", strings.Join(aliases, ", "))
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

func sectionTitle(l access.Level) string {
	if l == access.LevelDefault {
		return "Everyone"
	}
	name := l.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// Render executes the README template with the command sections.
func Render(w io.Writer, tmpl string, table *command.Table, prefix string) error {
	t, err := template.New("readme").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parse readme template: %w", err)
	}
	data := struct {
		Prefix          string
		CommandSections string
	}{
		Prefix:          prefix,
		CommandSections: CommandSections(table, prefix),
	}
	return t.Execute(w, data)
}

// UpdateReadme renders tmplPath into outPath.
func UpdateReadme(tmplPath, outPath string, table *command.Table, prefix string) error {
	raw, err := os.ReadFile(tmplPath)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := Render(&out, string(raw), table, prefix); err != nil {
		return err
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}
