// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"strings"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// NameClashError is raised when two samizdats in a declared set resolve to
// the same database object identity.
type NameClashError struct {
	Identities []string
}

func (e NameClashError) Error() string {
	return fmt.Sprintf("non-unique DB entities specified: %s", strings.Join(e.Identities, ", "))
}

// DanglingReferenceError is raised when a deps_on entry names an FQN absent
// from the declared set.
type DanglingReferenceError struct {
	Missing []samizdat.FQN
}

func (e DanglingReferenceError) Error() string {
	return fmt.Sprintf("nonexistent dependencies referenced: %s", joinFQNs(e.Missing))
}

// TypeConfusionError is raised when the same FQN appears in both deps_on and
// deps_on_unmanaged across the declared set.
type TypeConfusionError struct {
	FQNs []samizdat.FQN
}

func (e TypeConfusionError) Error() string {
	return fmt.Sprintf("samizdat entity is also declared as unmanaged dependency: %s", joinFQNs(e.FQNs))
}

// DependencyCycleError is raised when the declared set contains a
// self-referential or transitive dependency cycle.
type DependencyCycleError struct {
	Reason string
	FQNs   []samizdat.FQN
}

func (e DependencyCycleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, joinFQNs(e.FQNs))
}

// UnknownRootError is raised by SubtreeDepends when a requested root FQN is
// not present in the declared set.
type UnknownRootError struct {
	FQN samizdat.FQN
}

func (e UnknownRootError) Error() string {
	return fmt.Sprintf("subtree root %s is not a known samizdat", e.FQN)
}

func joinFQNs(fqns []samizdat.FQN) string {
	parts := make([]string, len(fqns))
	for i, f := range fqns {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}
