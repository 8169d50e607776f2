// SPDX-License-Identifier: Apache-2.0

// Package samizdat models the declarative database objects ("samizdats")
// this system reconciles: their identity, their per-kind SQL templates, and
// the dbinfo signature every owned object carries in its COMMENT.
package samizdat

import (
	"fmt"

	"github.com/lib/pq"
)

// FQN is a fully qualified name: (schema, object_name, args?). args is
// present only for functions, holding the argument signature used for
// overload disambiguation. Two FQNs are equal iff all three fields match.
type FQN struct {
	Schema string
	Name   string
	Args   string // empty for non-functions
}

// String renders the canonical identity: "schema"."name" or
// "schema"."name"(args) for functions.
func (f FQN) String() string {
	if f.Args != "" {
		return fmt.Sprintf("%s.%s(%s)", pq.QuoteIdentifier(f.Schema), pq.QuoteIdentifier(f.Name), f.Args)
	}
	return fmt.Sprintf("%s.%s", pq.QuoteIdentifier(f.Schema), pq.QuoteIdentifier(f.Name))
}

// Ref is any of the forms deps_on/deps_on_unmanaged may hold: a bare
// string (interpreted as (public, name)), a 2-tuple (schema, name), a
// 3-tuple (schema, name, args), or a Samizdat value. Normalization to FQN
// happens once, at the graph boundary.
type Ref struct {
	Schema string // empty means "use default schema"
	Name   string
	Args   string
	hasSchema bool
}

// RefName builds a bare-name reference: (public, name) once normalized.
func RefName(name string) Ref { return Ref{Name: name} }

// RefSchema builds a (schema, name) reference.
func RefSchema(schema, name string) Ref { return Ref{Schema: schema, Name: name, hasSchema: true} }

// RefFunction builds a (schema, name, args) reference.
func RefFunction(schema, name, args string) Ref {
	return Ref{Schema: schema, Name: name, Args: args, hasSchema: true}
}

// Fqify normalizes a Ref to an FQN, applying defaultSchema when the Ref
// carries none (the bare-string case in spec.md §3).
func Fqify(r Ref, defaultSchema string) FQN {
	schema := r.Schema
	if !r.hasSchema || schema == "" {
		schema = defaultSchema
	}
	return FQN{Schema: schema, Name: r.Name, Args: r.Args}
}
