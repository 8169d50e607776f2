// SPDX-License-Identifier: Apache-2.0

// Package graph implements the dependency graph over a declared set of
// samizdats: validation, deterministic topological sort, sidekick
// expansion, and subtree selection (spec.md §4.3).
package graph

import (
	"sort"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// normalized holds one samizdat alongside its FQN-normalized edge sets, so
// the rest of the package never re-touches samizdat.Ref.
type normalized struct {
	sd            *samizdat.Samizdat
	fqn           samizdat.FQN
	deps          []samizdat.FQN
	depsUnmanaged []samizdat.FQN
}

func normalize(samizdats []*samizdat.Samizdat) []normalized {
	out := make([]normalized, len(samizdats))
	for i, sd := range samizdats {
		schema := sd.Schema
		if schema == "" {
			schema = samizdat.DefaultSchema
		}
		deps := make([]samizdat.FQN, len(sd.DepsOn))
		for j, r := range sd.DepsOn {
			deps[j] = samizdat.Fqify(r, schema)
		}
		depsUnmanaged := make([]samizdat.FQN, len(sd.DepsOnUnmanaged))
		for j, r := range sd.DepsOnUnmanaged {
			depsUnmanaged[j] = samizdat.Fqify(r, schema)
		}
		out[i] = normalized{sd: sd, fqn: sd.FQN(), deps: deps, depsUnmanaged: depsUnmanaged}
	}
	return out
}

// SanityCheck enforces invariants 1-6 of spec.md §3 and runs cycle
// detection, in the same order the reference implementation does: name
// validation, uniqueness, dangling references, type confusion,
// self-reference, then transitive cycles (via a full sort attempt).
func SanityCheck(samizdats []*samizdat.Samizdat) error {
	for _, sd := range samizdats {
		if err := samizdat.ValidateName(sd.Name); err != nil {
			return err
		}
	}

	norm := normalize(samizdats)

	fqnSeen := make(map[samizdat.FQN]bool, len(norm))
	var clashes []string
	for _, n := range norm {
		if fqnSeen[n.fqn] {
			clashes = append(clashes, n.fqn.String())
		}
		fqnSeen[n.fqn] = true
	}
	if len(clashes) > 0 {
		return NameClashError{Identities: clashes}
	}

	var dangling []samizdat.FQN
	seenDangling := make(map[samizdat.FQN]bool)
	for _, n := range norm {
		for _, d := range n.deps {
			if !fqnSeen[d] && !seenDangling[d] {
				dangling = append(dangling, d)
				seenDangling[d] = true
			}
		}
	}
	if len(dangling) > 0 {
		return DanglingReferenceError{Missing: dangling}
	}

	unmanagedSet := make(map[samizdat.FQN]bool)
	for _, n := range norm {
		for _, d := range n.depsUnmanaged {
			unmanagedSet[d] = true
		}
	}
	var confused []samizdat.FQN
	for _, n := range norm {
		if unmanagedSet[n.fqn] {
			confused = append(confused, n.fqn)
		}
	}
	if len(confused) > 0 {
		return TypeConfusionError{FQNs: confused}
	}

	for _, n := range norm {
		for _, d := range n.deps {
			if d == n.fqn {
				return DependencyCycleError{Reason: "self-referential dependency", FQNs: []samizdat.FQN{n.fqn}}
			}
		}
	}

	if _, err := DepsortWithSidekicks(samizdats); err != nil {
		return err
	}
	return nil
}

// Depsort topologically sorts samizdats into creation-safe order. Within a
// layer (nodes whose dependencies are all already placed), ties break
// lexicographically on canonical FQN rendering, for deterministic,
// reproducible output (spec.md §4.3, §8).
func Depsort(samizdats []*samizdat.Samizdat) ([]*samizdat.Samizdat, error) {
	norm := normalize(samizdats)

	byFQN := make(map[samizdat.FQN]normalized, len(norm))
	remaining := make(map[samizdat.FQN][]samizdat.FQN, len(norm))
	for _, n := range norm {
		byFQN[n.fqn] = n
		remaining[n.fqn] = append([]samizdat.FQN(nil), n.deps...)
	}

	var ordered []*samizdat.Samizdat
	for len(remaining) > 0 {
		var layer []samizdat.FQN
		for fqn, deps := range remaining {
			if len(deps) == 0 {
				layer = append(layer, fqn)
			}
		}
		if len(layer) == 0 {
			return nil, cycleAmong(remaining, byFQN)
		}
		sort.Slice(layer, func(i, j int) bool { return layer[i].String() < layer[j].String() })
		for _, fqn := range layer {
			ordered = append(ordered, byFQN[fqn].sd)
			delete(remaining, fqn)
		}
		for fqn, deps := range remaining {
			kept := deps[:0]
			for _, d := range deps {
				if _, gone := byFQN[d]; !gone {
					continue // dangling refs are caught by SanityCheck, not here
				}
				if _, stillPending := remaining[d]; stillPending {
					kept = append(kept, d)
				}
			}
			remaining[fqn] = kept
		}
	}
	return ordered, nil
}

func cycleAmong(remaining map[samizdat.FQN][]samizdat.FQN, byFQN map[samizdat.FQN]normalized) error {
	fqns := make([]samizdat.FQN, 0, len(remaining))
	for fqn := range remaining {
		fqns = append(fqns, fqn)
	}
	sort.Slice(fqns, func(i, j int) bool { return fqns[i].String() < fqns[j].String() })
	return DependencyCycleError{Reason: "dependency cycle detected", FQNs: fqns}
}

// DepsortWithSidekicks runs Depsort, then expands each matview with
// non-empty RefreshTriggers into its sidekick function and per-table
// triggers, inline, immediately after the matview itself. A single
// monotonic counter is shared across the whole run, so sidekick indices
// never repeat (spec.md §4.2, §4.3).
func DepsortWithSidekicks(samizdats []*samizdat.Samizdat) ([]*samizdat.Samizdat, error) {
	sorted, err := Depsort(samizdats)
	if err != nil {
		return nil, err
	}

	counter := 1
	out := make([]*samizdat.Samizdat, 0, len(sorted))
	for _, sd := range sorted {
		out = append(out, sd)
		if sd.Kind != samizdat.KindMatview || len(sd.RefreshTriggers) == 0 {
			continue
		}
		sk, err := samizdat.GenerateSidekicks(sd, counter)
		if err != nil {
			return nil, err
		}
		counter++
		out = append(out, sk.Function)
		for _, trg := range sk.Triggers {
			out = append(out, trg)
		}
	}
	return out, nil
}

// SubtreeDepends returns every samizdat directly or indirectly depending on
// any of roots, including the roots themselves. An unknown root is a fatal
// error (spec.md §4.3, used by `refresh --belownodes`).
func SubtreeDepends(samizdats []*samizdat.Samizdat, roots []samizdat.FQN) ([]*samizdat.Samizdat, error) {
	norm := normalize(samizdats)
	byFQN := make(map[samizdat.FQN]normalized, len(norm))
	for _, n := range norm {
		byFQN[n.fqn] = n
	}

	// reverse adjacency: dependency -> dependents (managed and unmanaged
	// edges both count, matching subtree_nodes in the reference graph).
	revdeps := make(map[samizdat.FQN][]samizdat.FQN)
	for _, n := range norm {
		for _, d := range n.deps {
			revdeps[d] = append(revdeps[d], n.fqn)
		}
		for _, d := range n.depsUnmanaged {
			revdeps[d] = append(revdeps[d], n.fqn)
		}
	}

	result := make(map[samizdat.FQN]bool)
	for _, root := range roots {
		if _, ok := byFQN[root]; !ok {
			return nil, UnknownRootError{FQN: root}
		}
		var walk func(samizdat.FQN)
		walk = func(fqn samizdat.FQN) {
			if result[fqn] {
				return
			}
			result[fqn] = true
			for _, dependent := range revdeps[fqn] {
				walk(dependent)
			}
		}
		walk(root)
	}

	out := make([]*samizdat.Samizdat, 0, len(result))
	for _, n := range norm {
		if result[n.fqn] {
			out = append(out, n.sd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FQN().String() < out[j].FQN().String() })
	return out, nil
}
