// SPDX-License-Identifier: Apache-2.0

// Package reconcile computes the symmetric difference between a declared
// set of samizdats and the live database state (spec.md §4.5).
package reconcile

import (
	"crypto/md5" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"
	"strings"

	"github.com/catalpainternational/dbsamizdat-go/pkg/introspect"
	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// HeadID is the stable hash the reconciler compares by: over
// (schema, name, kind, definition_hash). Two objects with the same head id
// are considered the same object (spec.md §4.5, §8).
func HeadID(schema, name string, kind samizdat.Kind, definitionHash string) string {
	sum := md5.Sum([]byte(strings.Join([]string{schema, name, string(kind), definitionHash}, "|"))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Result is the reconciler's output: what's in the database but not
// declared (or whose hash changed), what's declared but not in the
// database (or whose hash changed), and whether the two states already
// agree.
type Result struct {
	ExcessDBState      []introspect.Record
	ExcessDefinedState []*samizdat.Samizdat
}

// Same reports whether both excess sets are empty -- the declared set and
// the live database already agree (spec.md §4.5's `issame`).
func (r Result) Same() bool {
	return len(r.ExcessDBState) == 0 && len(r.ExcessDefinedState) == 0
}

// Reconcile compares declared (post-sort, post-sidekick) against live,
// previously introspected database state. When the same FQN/kind pair
// carries different definition hashes on each side, it appears in *both*
// excess sets: the fundamental "drop and recreate" unit (spec.md §4.5).
func Reconcile(declared []*samizdat.Samizdat, live []introspect.Record) (Result, error) {
	liveByFQN := make(map[samizdat.FQN]introspect.Record, len(live))
	for _, rec := range live {
		ghost := introspect.DBInfoToClass(rec)
		liveByFQN[ghost.FQN()] = rec
	}

	declaredByFQN := make(map[samizdat.FQN]*samizdat.Samizdat, len(declared))
	declaredHeadID := make(map[samizdat.FQN]string, len(declared))
	for _, sd := range declared {
		fqn := sd.FQN()
		declaredByFQN[fqn] = sd
		hash, err := sd.DefinitionHash()
		if err != nil {
			return Result{}, err
		}
		declaredHeadID[fqn] = HeadID(fqn.Schema, fqn.Name, sd.Kind, hash)
	}

	var result Result
	seen := make(map[samizdat.FQN]bool)

	for fqn, sd := range declaredByFQN {
		seen[fqn] = true
		rec, inDB := liveByFQN[fqn]
		switch {
		case !inDB:
			result.ExcessDefinedState = append(result.ExcessDefinedState, sd)
		case HeadID(fqn.Schema, fqn.Name, rec.Kind, rec.DBInfo.DefinitionHash) != declaredHeadID[fqn]:
			result.ExcessDefinedState = append(result.ExcessDefinedState, sd)
			result.ExcessDBState = append(result.ExcessDBState, rec)
		}
	}

	for fqn, rec := range liveByFQN {
		if seen[fqn] {
			continue
		}
		result.ExcessDBState = append(result.ExcessDBState, rec)
	}

	return result, nil
}
