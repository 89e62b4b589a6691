// cmd/templatevet checks tab template files before they are deployed to a
// server's TEMPLATES_DIR.
//
// Every .cue, .yaml and .yml file is unified with the template schema, and
// every template is resolved against the built-in base template and its data
// config validated, so a file that passes here seeds tabs cleanly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/matthewbaird/tabforge/internal/tabconfig"
	"github.com/matthewbaird/tabforge/internal/templates"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run vets the paths in args and returns the exit code: 0 when every
// template passes, 1 when any fails and 2 on a usage or setup error.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("templatevet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: templatevet DIR|FILE...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	loader, err := templates.NewLoader()
	if err != nil {
		fmt.Fprintf(stderr, "templatevet: building loader: %v\n", err)
		return 2
	}
	builtin, err := loader.Builtin()
	if err != nil {
		fmt.Fprintf(stderr, "templatevet: loading built-in templates: %v\n", err)
		return 2
	}
	base := builtin[0]

	failed := false
	seen := make(map[string]string)
	for _, tpl := range builtin {
		seen[tpl.ID] = "built-in"
	}

	for _, path := range fs.Args() {
		tpls, err := load(loader, path)
		if err != nil {
			fmt.Fprintf(stdout, "FAIL %s\n  %v\n", path, err)
			failed = true
			continue
		}
		for _, tpl := range tpls {
			if prev, ok := seen[tpl.ID]; ok {
				fmt.Fprintf(stdout, "WARN %s: template %q overrides %s\n", path, tpl.ID, prev)
			}
			seen[tpl.ID] = path

			seed := templates.Resolve(tpl, base)
			if err := tabconfig.Validate(seed.DataConfig); err != nil {
				fmt.Fprintf(stdout, "FAIL %s: template %q\n  %v\n", path, tpl.ID, err)
				failed = true
				continue
			}
			fmt.Fprintf(stdout, "ok   %s: %s (%s, v%s)\n", path, tpl.ID, tpl.Category, tpl.Version)
		}
	}

	if failed {
		return 1
	}
	fmt.Fprintln(stdout, "\ntemplatevet: OK")
	return 0
}
func load(loader *templates.Loader, path string) ([]templates.TabTemplate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return loader.LoadDir(path)
	}
	return loader.LoadFile(path)
}
