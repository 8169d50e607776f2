// SPDX-License-Identifier: Apache-2.0

// Package dot renders a sorted, sidekick-expanded samizdat list as a
// GraphViz DOT document (spec.md §4.7 `printdot`, SPEC_FULL.md §4.10). It
// is a pure formatter: no database dependency.
package dot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

var shapeByKind = map[samizdat.Kind]string{
	samizdat.KindTable:    "box",
	samizdat.KindView:     "ellipse",
	samizdat.KindMatview:  "doubleoctagon",
	samizdat.KindFunction: "hexagon",
	samizdat.KindTrigger:  "diamond",
}

// Render produces a `digraph dbsamizdat { ... }` document: one node per
// samizdat (shaped by kind), one edge per managed dependency.
func Render(decls []*samizdat.Samizdat) string {
	var b strings.Builder
	b.WriteString("digraph dbsamizdat {\n")
	b.WriteString("  rankdir=LR;\n")

	byFQN := make(map[samizdat.FQN]*samizdat.Samizdat, len(decls))
	for _, sd := range decls {
		byFQN[sd.FQN()] = sd
	}

	for _, sd := range decls {
		shape := shapeByKind[sd.Kind]
		if shape == "" {
			shape = "plaintext"
		}
		// The label keeps its backslashes so DOT reads "\n" as a line break;
		// only double quotes are escaped.
		label := strings.ReplaceAll(nodeLabel(sd), `"`, `\"`)
		fmt.Fprintf(&b, "  %q [shape=%s,label=\"%s\"];\n", sd.FQN().String(), shape, label)
	}

	var edges []string
	for _, sd := range decls {
		schema := sd.Schema
		if schema == "" {
			schema = samizdat.DefaultSchema
		}
		for _, ref := range sd.DepsOn {
			dep := samizdat.Fqify(ref, schema)
			if _, ok := byFQN[dep]; !ok {
				continue
			}
			edges = append(edges, fmt.Sprintf("  %q -> %q;", dep.String(), sd.FQN().String()))
		}
	}
	sort.Strings(edges)
	for _, e := range edges {
		b.WriteString(e)
		b.WriteString("\n")
	}

	b.WriteString("}\n")
	return b.String()
}

func nodeLabel(sd *samizdat.Samizdat) string {
	if sd.Kind == samizdat.KindTrigger {
		return fmt.Sprintf("%s\\non %s", sd.Name, sd.OnTable)
	}
	return sd.FQN().String()
}
