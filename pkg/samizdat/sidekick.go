// SPDX-License-Identifier: Apache-2.0

package samizdat

import "fmt"

// SidekickIndexWidth is the zero-padding width used for sidekick trigger
// names, so that Postgres's alphabetical trigger firing order matches
// dependency order (spec.md §4.2). Widening this constant is safe; the
// constraint it encodes is that trigger names for the same table fire in
// lexicographic order, so the index must sort the same way numerically and
// lexicographically — which a fixed zero-padded width guarantees.
const SidekickIndexWidth = 5

// MaxSidekickIndex is the largest index representable at SidekickIndexWidth
// (99999). Exceeding it is a hard failure (spec.md §4.2, §8).
const MaxSidekickIndex = 99999

// SidekickIndexOverflowError is raised when sidekick numbering would exceed
// MaxSidekickIndex.
type SidekickIndexOverflowError struct {
	Index int
}

func (e SidekickIndexOverflowError) Error() string {
	return fmt.Sprintf("sidekick index %d exceeds the %d-digit trigger-name budget (max %d)", e.Index, SidekickIndexWidth, MaxSidekickIndex)
}

// RefreshFunctionName is the name of the trigger-returning function
// generated for a matview with non-empty RefreshTriggers.
func RefreshFunctionName(matviewName string) string {
	return matviewName + "_refresh"
}

// Sidekicks describes the auto-generated trigger function and per-table
// triggers a matview's RefreshTriggers produce.
type Sidekicks struct {
	Function *Samizdat
	Triggers []*Samizdat
}

// GenerateSidekicks builds the sidekick function and one trigger per
// unmanaged table in mv.RefreshTriggers, per spec.md §4.2. index is the
// monotonic counter the graph engine assigns during sidekick expansion
// (§4.3); GenerateSidekicks consumes one index value for the whole matview
// (shared across its triggers, distinguished by a per-table ordinal) and
// returns it unconsumed if there are no refresh triggers.
func GenerateSidekicks(mv *Samizdat, index int) (Sidekicks, error) {
	if len(mv.RefreshTriggers) == 0 {
		return Sidekicks{}, nil
	}
	if index > MaxSidekickIndex {
		return Sidekicks{}, SidekickIndexOverflowError{Index: index}
	}

	fnName := RefreshFunctionName(mv.Name)
	fn := &Samizdat{
		Kind:   KindFunction,
		Schema: mv.FQN().Schema,
		Name:   fnName,
		FunctionArgumentsSignature: "",
		SQLTemplate: StaticTemplate(fmt.Sprintf(
			"${preamble} RETURNS TRIGGER LANGUAGE PLPGSQL AS $sidekick$ BEGIN REFRESH MATERIALIZED VIEW %s; RETURN NULL; END; $sidekick$;",
			mv.FQN(),
		)),
		DepsOnUnmanaged: []Ref{},
	}
	fn.DepsOn = append(fn.DepsOn, mv.Ref())

	triggers := make([]*Samizdat, 0, len(mv.RefreshTriggers))
	for ordinal, tableRef := range mv.RefreshTriggers {
		table := tableRef.Name
		triggerName := fmt.Sprintf("t%0*d_%d_autorefresh", SidekickIndexWidth, index, ordinal)
		trg := &Samizdat{
			Kind:            KindTrigger,
			Schema:          mv.FQN().Schema,
			Name:            triggerName,
			OnTable:         table,
			Condition:       "AFTER INSERT OR UPDATE OR DELETE OR TRUNCATE",
			SQLTemplate:     StaticTemplate(fmt.Sprintf("${preamble} FOR EACH STATEMENT EXECUTE FUNCTION %s.%s();", mv.FQN().Schema, fnName)),
			DepsOn:          []Ref{fn.Ref()},
			DepsOnUnmanaged: []Ref{tableRef},
		}
		triggers = append(triggers, trg)
	}

	return Sidekicks{Function: fn, Triggers: triggers}, nil
}
