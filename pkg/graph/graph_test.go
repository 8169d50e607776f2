// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

func view(name string, deps ...string) *samizdat.Samizdat {
	refs := make([]samizdat.Ref, len(deps))
	for i, d := range deps {
		refs[i] = samizdat.RefName(d)
	}
	return &samizdat.Samizdat{
		Kind:        samizdat.KindView,
		Name:        name,
		SQLTemplate: samizdat.StaticTemplate("${preamble} SELECT 1;"),
		DepsOn:      refs,
	}
}

func TestDepsort_OrdersDependenciesBeforeDependents(t *testing.T) {
	a := view("a")
	b := view("b", "a")
	c := view("c", "b")

	sorted, err := Depsort([]*samizdat.Samizdat{c, b, a})
	require.NoError(t, err)

	order := make(map[string]int, len(sorted))
	for i, sd := range sorted {
		order[sd.Name] = i
	}
	assert.Less(t, order["a"], order["b"])
	assert.Less(t, order["b"], order["c"])
}

func TestDepsort_DeterministicTieBreak(t *testing.T) {
	x := view("xx")
	y := view("yy")
	z := view("zz")

	s1, err := Depsort([]*samizdat.Samizdat{z, x, y})
	require.NoError(t, err)
	s2, err := Depsort([]*samizdat.Samizdat{y, z, x})
	require.NoError(t, err)

	names1 := namesOf(s1)
	names2 := namesOf(s2)
	assert.Equal(t, names1, names2)
	assert.Equal(t, []string{"xx", "yy", "zz"}, names1)
}

func namesOf(sds []*samizdat.Samizdat) []string {
	out := make([]string, len(sds))
	for i, sd := range sds {
		out[i] = sd.Name
	}
	return out
}

func TestDepsort_CycleDetected(t *testing.T) {
	a := view("a", "b")
	b := view("b", "a")

	_, err := Depsort([]*samizdat.Samizdat{a, b})
	require.Error(t, err)
	var cycleErr DependencyCycleError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestSanityCheck_NameClash(t *testing.T) {
	a := view("dup")
	b := view("dup")
	err := SanityCheck([]*samizdat.Samizdat{a, b})
	require.Error(t, err)
	var clashErr NameClashError
	assert.ErrorAs(t, err, &clashErr)
}

func TestSanityCheck_DanglingReference(t *testing.T) {
	a := view("a", "nonexistent")
	err := SanityCheck([]*samizdat.Samizdat{a})
	require.Error(t, err)
	var danglingErr DanglingReferenceError
	assert.ErrorAs(t, err, &danglingErr)
}

func TestSanityCheck_TypeConfusion(t *testing.T) {
	a := view("a")
	b := &samizdat.Samizdat{
		Kind:            samizdat.KindView,
		Name:            "b",
		SQLTemplate:     samizdat.StaticTemplate("x"),
		DepsOnUnmanaged: []samizdat.Ref{samizdat.RefName("a")},
	}
	err := SanityCheck([]*samizdat.Samizdat{a, b})
	require.Error(t, err)
	var confusionErr TypeConfusionError
	assert.ErrorAs(t, err, &confusionErr)
}

func TestSanityCheck_SelfReference(t *testing.T) {
	a := view("a", "a")
	err := SanityCheck([]*samizdat.Samizdat{a})
	require.Error(t, err)
	var cycleErr DependencyCycleError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestSanityCheck_Valid(t *testing.T) {
	a := view("a")
	b := view("b", "a")
	assert.NoError(t, SanityCheck([]*samizdat.Samizdat{a, b}))
}

func TestDepsortWithSidekicks_ExpandsMatviewInline(t *testing.T) {
	mv := &samizdat.Samizdat{
		Kind:            samizdat.KindMatview,
		Name:            "rollup",
		SQLTemplate:     samizdat.StaticTemplate("${preamble} SELECT 1${postamble};"),
		RefreshTriggers: []samizdat.Ref{samizdat.RefName("orders")},
	}
	sorted, err := DepsortWithSidekicks([]*samizdat.Samizdat{mv})
	require.NoError(t, err)
	require.Len(t, sorted, 3) // matview + refresh function + one trigger

	assert.Equal(t, "rollup", sorted[0].Name)
	assert.Equal(t, samizdat.KindFunction, sorted[1].Kind)
	assert.Equal(t, samizdat.KindTrigger, sorted[2].Kind)
}

func TestDepsortWithSidekicks_CounterSharedAcrossMatviews(t *testing.T) {
	mv1 := &samizdat.Samizdat{
		Kind:            samizdat.KindMatview,
		Name:            "aa",
		SQLTemplate:     samizdat.StaticTemplate("${preamble} SELECT 1${postamble};"),
		RefreshTriggers: []samizdat.Ref{samizdat.RefName("orders")},
	}
	mv2 := &samizdat.Samizdat{
		Kind:            samizdat.KindMatview,
		Name:            "bb",
		SQLTemplate:     samizdat.StaticTemplate("${preamble} SELECT 1${postamble};"),
		RefreshTriggers: []samizdat.Ref{samizdat.RefName("refunds")},
	}
	sorted, err := DepsortWithSidekicks([]*samizdat.Samizdat{mv1, mv2})
	require.NoError(t, err)

	var triggerNames []string
	for _, sd := range sorted {
		if sd.Kind == samizdat.KindTrigger {
			triggerNames = append(triggerNames, sd.Name)
		}
	}
	require.Len(t, triggerNames, 2)
	assert.NotEqual(t, triggerNames[0], triggerNames[1])
}

func TestSubtreeDepends(t *testing.T) {
	a := view("a")
	b := view("b", "a")
	c := view("c", "b")
	d := view("d") // unrelated

	scope, err := SubtreeDepends([]*samizdat.Samizdat{a, b, c, d}, []samizdat.FQN{a.FQN()})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, namesOf(scope))
}

func TestSubtreeDepends_UnknownRoot(t *testing.T) {
	a := view("a")
	_, err := SubtreeDepends([]*samizdat.Samizdat{a}, []samizdat.FQN{{Schema: "public", Name: "ghost"}})
	require.Error(t, err)
	var unknownErr UnknownRootError
	assert.ErrorAs(t, err, &unknownErr)
}
