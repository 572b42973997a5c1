// Command build-readme regenerates README.md from README.md.tmpl and the
// built-in command catalog.
package main

import (
	"fmt"
	"os"

	"github.com/keshon/connect-router/internal/commands"
	"github.com/keshon/connect-router/internal/docs"

	"github.com/spf13/pflag"
)

func main() {
	tmpl := pflag.String("template", "README.md.tmpl", "template to render")
	out := pflag.String("out", "README.md", "file to write")
	prefix := pflag.String("prefix", "!", "command prefix shown in examples")
	pflag.Parse()

	table, err := commands.Build(commands.Deps{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := docs.UpdateReadme(*tmpl, *out, table, *prefix); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("README.md updated with current commands")
}
