// SPDX-License-Identifier: Apache-2.0

// Package manifest is the file-based discovery adapter: a directory of
// `*.samizdat.yaml` files, each describing one samizdat (spec.md §6.3,
// SPEC_FULL.md §4.9). It gives the standalone CLI something runnable
// without requiring a host application to drive discovery.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// entry is the on-disk shape of one *.samizdat.yaml file.
type entry struct {
	Kind                       string   `yaml:"kind"`
	Schema                     string   `yaml:"schema"`
	Name                       string   `yaml:"name"`
	FunctionName               string   `yaml:"function_name"`
	FunctionArgumentsSignature string   `yaml:"function_arguments_signature"`
	SQLTemplate                string   `yaml:"sql_template"`
	SQLTemplateFile            string   `yaml:"sql_template_file"`
	DepsOn                     []string `yaml:"deps_on"`
	DepsOnUnmanaged            []string `yaml:"deps_on_unmanaged"`
	OnTable                    string   `yaml:"on_table"`
	Condition                  string   `yaml:"condition"`
	RefreshConcurrently        bool     `yaml:"refresh_concurrently"`
	RefreshTriggers            []string `yaml:"refresh_triggers"`
	Unlogged                   bool     `yaml:"unlogged"`
}

// Manifest discovers samizdats from a directory of YAML files.
type Manifest struct {
	Dir string
}

// New returns a Manifest adapter rooted at dir.
func New(dir string) Manifest {
	return Manifest{Dir: dir}
}

// Discover reads every *.samizdat.yaml file under Dir and builds the
// corresponding samizdats.
func (m Manifest) Discover() ([]*samizdat.Samizdat, error) {
	paths, err := filepath.Glob(filepath.Join(m.Dir, "*.samizdat.yaml"))
	if err != nil {
		return nil, fmt.Errorf("globbing manifest directory %s: %w", m.Dir, err)
	}

	out := make([]*samizdat.Samizdat, 0, len(paths))
	for _, path := range paths {
		sd, err := m.load(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		out = append(out, sd)
	}
	return out, nil
}

func (m Manifest) load(path string) (*samizdat.Samizdat, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var e entry
	if err := yaml.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	tmplText := e.SQLTemplate
	if e.SQLTemplateFile != "" {
		tmplPath := e.SQLTemplateFile
		if !filepath.IsAbs(tmplPath) {
			tmplPath = filepath.Join(filepath.Dir(path), tmplPath)
		}
		content, err := os.ReadFile(tmplPath)
		if err != nil {
			return nil, fmt.Errorf("reading sql_template_file: %w", err)
		}
		tmplText = string(content)
	}

	sd := &samizdat.Samizdat{
		Kind:                       samizdat.Kind(e.Kind),
		Schema:                     e.Schema,
		Name:                       e.Name,
		FunctionName:               e.FunctionName,
		FunctionArgumentsSignature: e.FunctionArgumentsSignature,
		SQLTemplate:                samizdat.StaticTemplate(tmplText),
		DepsOn:                     parseRefs(e.DepsOn),
		DepsOnUnmanaged:            parseRefs(e.DepsOnUnmanaged),
		OnTable:                    e.OnTable,
		Condition:                  e.Condition,
		RefreshConcurrently:        e.RefreshConcurrently,
		RefreshTriggers:            parseRefs(e.RefreshTriggers),
		Unlogged:                   e.Unlogged,
	}
	return sd, nil
}

// parseRefs interprets each string as "name" (public schema implied) or
// "schema.name", per spec.md §3's bare-string/tuple reference forms.
func parseRefs(raw []string) []samizdat.Ref {
	refs := make([]samizdat.Ref, len(raw))
	for i, s := range raw {
		if schema, name, ok := strings.Cut(s, "."); ok {
			refs[i] = samizdat.RefSchema(schema, name)
		} else {
			refs[i] = samizdat.RefName(s)
		}
	}
	return refs
}
