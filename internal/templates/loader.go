package templates

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/tabforge/internal/tabconfig"
)

//go:embed builtin/*.cue
var builtinFS embed.FS

const schemaFile = "builtin/schema.cue"

// Loader decodes template sources against the embedded CUE schema. Every
// source, CUE or YAML, is unified with the schema, so defaults and
// constraints apply uniformly.
type Loader struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewLoader compiles the template schema.
func NewLoader() (*Loader, error) {
	src, err := builtinFS.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("reading template schema: %w", err)
	}
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(src, cue.Filename(schemaFile))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling template schema: %w", schema.Err())
	}
	return &Loader{ctx: ctx, schema: schema}, nil
}

// Builtin returns the templates shipped with the binary, base template
// first. All of them are marked built-in.
func (l *Loader) Builtin() ([]TabTemplate, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := path.Join("builtin", e.Name())
		if name == schemaFile {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var out []TabTemplate
	for _, name := range names {
		src, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		tpls, err := l.fromCUE(name, src)
		if err != nil {
			return nil, err
		}
		out = append(out, tpls...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID == BaseTemplateID && out[j].ID != BaseTemplateID
	})
	if len(out) == 0 || out[0].ID != BaseTemplateID {
		return nil, fmt.Errorf("built-in template %q is missing", BaseTemplateID)
	}
	for i := range out {
		out[i].IsBuiltIn = true
	}
	return out, nil
}

// LoadFile decodes the templates in one .cue, .yaml or .yml file. A YAML
// file may hold a single template, a list, or a {templates: [...]} map.
func (l *Loader) LoadFile(filename string) ([]TabTemplate, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		return l.fromCUE(filename, src)
	case ".yaml", ".yml":
		return l.fromYAML(filename, src)
	default:
		return nil, fmt.Errorf("%s: unsupported template file type", filename)
	}
}

// LoadDir loads every template file in dir, in file name order.
func (l *Loader) LoadDir(dir string) ([]TabTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []TabTemplate
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cue", ".yaml", ".yml":
		default:
			continue
		}
		tpls, err := l.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, tpls...)
	}
	return out, errors.Join(errs...)
}

func (l *Loader) fromCUE(origin string, src []byte) ([]TabTemplate, error) {
	v := l.ctx.CompileBytes(src, cue.Filename(origin))
	if v.Err() != nil {
		return nil, fmt.Errorf("%s: compiling: %w", origin, v.Err())
	}
	return l.decode(origin, v)
}

func (l *Loader) fromYAML(origin string, src []byte) ([]TabTemplate, error) {
	var doc any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("%s: parsing yaml: %w", origin, err)
	}
	switch t := doc.(type) {
	case []any:
		doc = map[string]any{"templates": t}
	case map[string]any:
		if _, ok := t["templates"]; !ok {
			doc = map[string]any{"templates": []any{t}}
		}
	default:
		return nil, fmt.Errorf("%s: expected a template, a list or a templates map", origin)
	}
	v := l.ctx.Encode(doc)
	if v.Err() != nil {
		return nil, fmt.Errorf("%s: encoding: %w", origin, v.Err())
	}
	return l.decode(origin, v)
}

func (l *Loader) decode(origin string, v cue.Value) ([]TabTemplate, error) {
	unified := l.schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}
	raw, err := unified.LookupPath(cue.ParsePath("templates")).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%s: exporting: %w", origin, err)
	}
	var out []TabTemplate
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decoding: %w", origin, err)
	}
	for _, tpl := range out {
		if tpl.Blueprint.DataConfig == nil {
			continue
		}
		if err := tabconfig.Validate(*tpl.Blueprint.DataConfig); err != nil {
			return nil, fmt.Errorf("%s: template %q: %w", origin, tpl.ID, err)
		}
	}
	return out, nil
}
