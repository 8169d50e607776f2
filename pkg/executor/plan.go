// SPDX-License-Identifier: Apache-2.0

// Package executor applies an ordered action plan against the database
// under one of three transaction disciplines, with per-action savepoints
// and a targeted function-signature recovery path (spec.md §4.6).
package executor

import (
	"fmt"

	"github.com/catalpainternational/dbsamizdat-go/pkg/introspect"
	"github.com/catalpainternational/dbsamizdat-go/pkg/reconcile"
	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// Action is one of the five verbs the executor understands.
type Action string

const (
	ActionCreate  Action = "create"
	ActionSign    Action = "sign"
	ActionDrop    Action = "drop"
	ActionRefresh Action = "refresh"
	ActionNuke    Action = "nuke"
)

// Step is one (action, samizdat, sql) triple, the executor's unit of work.
type Step struct {
	Action   Action
	Samizdat *samizdat.Samizdat
	SQL      string
}

// DropPlan builds the drop half of `sync`'s plan: one drop per object the
// database has that the declared set doesn't (or whose hash changed). This
// runs before the live state is re-read, since CASCADE may have taken
// unrelated owned objects down with it (spec.md §4.7).
func DropPlan(result reconcile.Result) []Step {
	steps := make([]Step, 0, len(result.ExcessDBState))
	for _, rec := range result.ExcessDBState {
		ghost := introspect.DBInfoToClass(rec)
		steps = append(steps, Step{Action: ActionDrop, Samizdat: ghost, SQL: ghost.DropSQL(true)})
	}
	return steps
}

// CreatePlan builds the create+sign+refresh half of `sync`'s plan, against
// whatever is missing in live (which the caller must re-read after running
// a DropPlan, per spec.md §4.7). declared must already be sorted and
// sidekick-expanded (graph.DepsortWithSidekicks).
func CreatePlan(declared []*samizdat.Samizdat, live []introspect.Record) ([]Step, error) {
	present := make(map[samizdat.FQN]bool, len(live))
	for _, rec := range live {
		present[introspect.DBInfoToClass(rec).FQN()] = true
	}

	var steps []Step
	var createdMatviews []*samizdat.Samizdat
	for _, sd := range declared {
		if present[sd.FQN()] {
			continue
		}
		createSQL, err := sd.CreateSQL()
		if err != nil {
			return nil, fmt.Errorf("building create SQL for %s: %w", sd.FQN(), err)
		}
		steps = append(steps, Step{Action: ActionCreate, Samizdat: sd, SQL: createSQL})
		steps = append(steps, Step{Action: ActionSign, Samizdat: sd, SQL: sd.SignSQLTemplate()})
		if sd.Kind == samizdat.KindMatview {
			createdMatviews = append(createdMatviews, sd)
		}
	}

	for _, mv := range createdMatviews {
		sql, err := mv.RefreshSQL(false) // first population is never concurrent
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Action: ActionRefresh, Samizdat: mv, SQL: sql})
	}

	return steps, nil
}

// SyncPlan builds the full plan in one snapshot, without re-reading live
// state between the drop and create passes. Callers that want spec.md
// §4.7's "re-read after drop" behavior should run DropPlan, re-introspect,
// then CreatePlan instead (see cmd/sync.go); SyncPlan remains for tests and
// callers that know no drop in this run can cascade onto a samizdat they're
// about to (re)create.
func SyncPlan(declared []*samizdat.Samizdat, result reconcile.Result) ([]Step, error) {
	steps := DropPlan(result)

	toCreate := make(map[samizdat.FQN]bool, len(result.ExcessDefinedState))
	for _, sd := range result.ExcessDefinedState {
		toCreate[sd.FQN()] = true
	}
	var declaredMissing []*samizdat.Samizdat
	for _, sd := range declared {
		if toCreate[sd.FQN()] {
			declaredMissing = append(declaredMissing, sd)
		}
	}
	createSteps, err := CreatePlan(declaredMissing, nil)
	if err != nil {
		return nil, err
	}
	return append(steps, createSteps...), nil
}

// RefreshPlan builds the plan for the `refresh` command: every declared
// matview currently present in the database, in dependency order, using
// CONCURRENTLY where the matview permits it. scope, when non-nil, restricts
// to a subtree (spec.md §4.7, `refresh --belownodes`).
func RefreshPlan(declared []*samizdat.Samizdat, live []introspect.Record, scope []*samizdat.Samizdat) ([]Step, error) {
	present := make(map[samizdat.FQN]bool, len(live))
	for _, rec := range live {
		present[introspect.DBInfoToClass(rec).FQN()] = true
	}

	var allowed map[samizdat.FQN]bool
	if scope != nil {
		allowed = make(map[samizdat.FQN]bool, len(scope))
		for _, sd := range scope {
			allowed[sd.FQN()] = true
		}
	}

	var steps []Step
	for _, sd := range declared {
		if sd.Kind != samizdat.KindMatview {
			continue
		}
		if !present[sd.FQN()] {
			continue
		}
		if allowed != nil && !allowed[sd.FQN()] {
			continue
		}
		sql, err := sd.RefreshSQL(true)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Action: ActionRefresh, Samizdat: sd, SQL: sql})
	}
	return steps, nil
}

// NukePlan builds the plan for the `nuke` command: drop every owned
// object. Order is CASCADE-reliant, not dependency-sorted -- introspected
// records carry no dependency edges, so the drop order only needs to be
// deterministic, not dependency-safe (spec.md §4.7, §9 open questions).
func NukePlan(live []introspect.Record) []Step {
	steps := make([]Step, 0, len(live))
	for _, rec := range live {
		ghost := introspect.DBInfoToClass(rec)
		steps = append(steps, Step{Action: ActionNuke, Samizdat: ghost, SQL: ghost.DropSQL(true)})
	}
	return steps
}
