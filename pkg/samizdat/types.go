// SPDX-License-Identifier: Apache-2.0

package samizdat

import "github.com/oapi-codegen/nullable"

// Kind discriminates the five object kinds a samizdat can describe.
type Kind string

const (
	KindView     Kind = "view"
	KindMatview  Kind = "matview"
	KindFunction Kind = "function"
	KindTrigger  Kind = "trigger"
	KindTable    Kind = "table"
)

// DefaultSchema is used whenever a samizdat or reference does not name one.
const DefaultSchema = "public"

// Template is the sum type spec.md §9 calls for: Static(string) |
// Deferred(() -> string). Resolve runs the producer at most once per value.
type Template struct {
	static   string
	deferred func() (string, error)

	resolved bool
	cached   string
}

// StaticTemplate wraps a literal SQL template string.
func StaticTemplate(s string) Template { return Template{static: s} }

// DeferredTemplate wraps a producer invoked lazily, for SQL derived from an
// external query builder.
func DeferredTemplate(f func() (string, error)) Template { return Template{deferred: f} }

// Resolve returns the template's text, calling the producer at most once.
func (t *Template) Resolve() (string, error) {
	if t.deferred == nil {
		return t.static, nil
	}
	if !t.resolved {
		s, err := t.deferred()
		if err != nil {
			return "", err
		}
		t.cached = s
		t.resolved = true
	}
	return t.cached, nil
}

// IsZero reports whether the template carries no text and no producer —
// the ghost case (spec.md §4.4: reconstructed from introspection, has no
// template).
func (t Template) IsZero() bool {
	return t.static == "" && t.deferred == nil
}

// FunctionArgument is one parameter in a function's creation-time
// signature, which may carry a default and may be an OUT parameter.
type FunctionArgument struct {
	Name    string
	Type    string
	Out     bool
	Default nullable.Nullable[string]
}

// Samizdat is a declarative description of one database object. It is
// modeled as a single struct with a Kind discriminator rather than a
// sum-of-structs: the per-kind operations are thin enough that a shared
// record with a kind switch reads cleaner in Go (see DESIGN.md).
type Samizdat struct {
	Kind   Kind
	Schema string // defaults to DefaultSchema; for triggers it is not derived from OnTable
	Name   string // defaults to the identifier; FunctionName may override it

	SQLTemplate Template

	DepsOn          []Ref
	DepsOnUnmanaged []Ref

	// Function-specific.
	FunctionName               string             // overrides Name when set, allows overloads
	FunctionArgumentsSignature string             // identity-bearing, normalized
	FunctionArguments          []FunctionArgument // creation-time, may carry defaults/OUT

	// Trigger-specific.
	OnTable   string // required
	Condition string // e.g. "BEFORE INSERT"

	// Matview-specific.
	RefreshConcurrently bool
	RefreshTriggers     []Ref // unmanaged table references

	// Table-specific.
	Unlogged bool

	// Ghost marks a samizdat reconstructed from database introspection: it
	// has an identity and hash but no template, and can only be dropped.
	Ghost    bool
	GhostHash string
}

// FQN returns the samizdat's identity, resolving the effective name and
// schema per-kind (spec.md §4.1).
func (s *Samizdat) FQN() FQN {
	schema := s.Schema
	if schema == "" {
		schema = DefaultSchema
	}
	name := s.Name
	if s.Kind == KindFunction && s.FunctionName != "" {
		name = s.FunctionName
	}
	if s.Kind == KindTrigger {
		// Triggers share namespaces per-table, not per-schema (spec.md
		// §4.1): fold the target table into the graph-identity name so two
		// same-named triggers on different tables don't collide, while the
		// bare trigger name (used in CREATE/DROP/COMMENT) stays s.Name.
		name = s.Name + "@" + s.OnTable
	}
	args := ""
	if s.Kind == KindFunction {
		args = s.FunctionArgumentsSignature
	}
	return FQN{Schema: schema, Name: name, Args: args}
}

// Ref builds the reference other samizdats' DepsOn lists would use to name
// this one.
func (s *Samizdat) Ref() Ref {
	fqn := s.FQN()
	return RefFunction(fqn.Schema, fqn.Name, fqn.Args)
}
