// SPDX-License-Identifier: Apache-2.0

package samizdat

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// CreateSQL expands the template's ${preamble}/${postamble}/${samizdatname}
// placeholders per spec.md §4.2. Placeholders the template doesn't use are
// left alone; placeholders the template misspells are also left alone
// (fail-loud-but-visible: a stray "${preamle}" surfaces as a Postgres syntax
// error downstream, not a silent drop).
func (s *Samizdat) CreateSQL() (string, error) {
	if s.Ghost {
		return "", ErrGhostSamizdat{FQN: s.FQN()}
	}
	tmpl, err := s.SQLTemplate.Resolve()
	if err != nil {
		return "", err
	}

	preamble, err := s.preamble()
	if err != nil {
		return "", err
	}

	replacer := strings.NewReplacer(
		"${preamble}", preamble,
		"${postamble}", s.postamble(),
		"${samizdatname}", s.samizdatNamePlaceholder(),
	)
	return replacer.Replace(tmpl), nil
}

func (s *Samizdat) preamble() (string, error) {
	switch s.Kind {
	case KindView:
		return fmt.Sprintf("CREATE VIEW %s AS", s.FQN()), nil
	case KindMatview:
		kw := "MATERIALIZED VIEW"
		if s.Unlogged {
			kw = "UNLOGGED MATERIALIZED VIEW"
		}
		return fmt.Sprintf("CREATE %s %s AS", kw, s.FQN()), nil
	case KindTable:
		kw := "TABLE"
		if s.Unlogged {
			kw = "UNLOGGED TABLE"
		}
		return fmt.Sprintf("CREATE %s %s", kw, s.FQN()), nil
	case KindFunction:
		return fmt.Sprintf("CREATE FUNCTION %s", s.creationIdentity()), nil
	case KindTrigger:
		return fmt.Sprintf("CREATE TRIGGER %s %s ON %s",
			pq.QuoteIdentifier(s.triggerName()), s.Condition, pq.QuoteIdentifier(s.OnTable)), nil
	default:
		return "", fmt.Errorf("unknown kind %q", s.Kind)
	}
}

func (s *Samizdat) postamble() string {
	if s.Kind == KindMatview {
		return "WITH NO DATA"
	}
	return ""
}

func (s *Samizdat) samizdatNamePlaceholder() string {
	if s.Kind == KindTrigger {
		return s.triggerName()
	}
	return s.FQN().String()
}

// triggerName is the bare trigger name (distinct from the FQN, which must
// stay unique across the whole graph even though triggers share a
// per-table namespace in Postgres — spec.md §4.1).
func (s *Samizdat) triggerName() string {
	if s.FunctionName != "" {
		return s.FunctionName
	}
	return s.Name
}

// DropSQL produces `DROP <KIND> [IF EXISTS] <id> CASCADE;`. CASCADE is
// mandatory: this system does not track in-database dependencies on
// unmanaged objects.
func (s *Samizdat) DropSQL(ifExists bool) string {
	kw := map[Kind]string{
		KindView:     "VIEW",
		KindMatview:  "MATERIALIZED VIEW",
		KindFunction: "FUNCTION",
		KindTrigger:  "TRIGGER",
		KindTable:    "TABLE",
	}[s.Kind]

	ifx := ""
	if ifExists {
		ifx = "IF EXISTS "
	}

	if s.Kind == KindTrigger {
		return fmt.Sprintf("DROP TRIGGER %s%s ON %s CASCADE;", ifx, pq.QuoteIdentifier(s.triggerName()), pq.QuoteIdentifier(s.OnTable))
	}
	return fmt.Sprintf("DROP %s %s%s CASCADE;", kw, ifx, s.FQN())
}

// SignSQLTemplate returns the parameterized `COMMENT ON ... IS $1;`
// statement; the caller (the executor) substitutes $1 via db.DB.Mogrify so
// the comment survives arbitrary JSON content.
func (s *Samizdat) SignSQLTemplate() string {
	kw := map[Kind]string{
		KindView:     "VIEW",
		KindMatview:  "MATERIALIZED VIEW",
		KindFunction: "FUNCTION",
		KindTrigger:  "TRIGGER",
		KindTable:    "TABLE",
	}[s.Kind]

	if s.Kind == KindTrigger {
		return fmt.Sprintf("COMMENT ON TRIGGER %s ON %s IS $1;", pq.QuoteIdentifier(s.triggerName()), pq.QuoteIdentifier(s.OnTable))
	}
	return fmt.Sprintf("COMMENT ON %s %s IS $1;", kw, s.FQN())
}

// RefreshSQL (matviews only) produces `REFRESH MATERIALIZED VIEW
// [CONCURRENTLY] <id>;`. CONCURRENTLY is only ever emitted when the matview
// declares RefreshConcurrently and the caller permits it — never on initial
// population, which happens WITH NO DATA.
func (s *Samizdat) RefreshSQL(concurrentAllowed bool) (string, error) {
	if s.Kind != KindMatview {
		return "", fmt.Errorf("RefreshSQL called on non-matview %s", s.FQN())
	}
	concurrently := ""
	if s.RefreshConcurrently && concurrentAllowed {
		concurrently = "CONCURRENTLY "
	}
	return fmt.Sprintf("REFRESH MATERIALIZED VIEW %s%s;", concurrently, s.FQN()), nil
}
