// SPDX-License-Identifier: Apache-2.0

package dot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

func TestRender_NodeShapesByKind(t *testing.T) {
	decls := []*samizdat.Samizdat{
		{Kind: samizdat.KindTable, Name: "t"},
		{Kind: samizdat.KindView, Name: "v"},
		{Kind: samizdat.KindMatview, Name: "mv"},
		{Kind: samizdat.KindFunction, Name: "f"},
		{Kind: samizdat.KindTrigger, Name: "trg", OnTable: "t"},
	}
	out := Render(decls)

	assert.Contains(t, out, "digraph dbsamizdat {")
	assert.Contains(t, out, `shape=box`)
	assert.Contains(t, out, `shape=ellipse`)
	assert.Contains(t, out, `shape=doubleoctagon`)
	assert.Contains(t, out, `shape=hexagon`)
	assert.Contains(t, out, `shape=diamond`)
}

func TestRender_EdgesOnlyForManagedDepsPresentInSet(t *testing.T) {
	a := &samizdat.Samizdat{Kind: samizdat.KindView, Name: "a"}
	b := &samizdat.Samizdat{Kind: samizdat.KindView, Name: "b", DepsOn: []samizdat.Ref{samizdat.RefName("a"), samizdat.RefName("missing")}}
	out := Render([]*samizdat.Samizdat{a, b})
	assert.Contains(t, out, `"\"public\".\"a\"" -> "\"public\".\"b\""`)
	assert.NotContains(t, out, "missing")
}

func TestRender_TriggerLabelNamesItsTable(t *testing.T) {
	trg := &samizdat.Samizdat{Kind: samizdat.KindTrigger, Name: "trg", OnTable: "widgets"}
	out := Render([]*samizdat.Samizdat{trg})
	assert.Contains(t, out, `trg\non widgets`)
}
