// SPDX-License-Identifier: Apache-2.0

// Package sqlcheck preflight-lints expanded samizdat SQL before it reaches
// the executor, using a real PostgreSQL grammar parser (SPEC_FULL.md §4.8).
// It is strictly an early-warning pass: a parse failure is reported before
// any statement touches the server, but a template that only misbehaves
// given live catalog state still falls through to the executor's runtime
// recovery path.
package sqlcheck

import (
	"fmt"
	"strings"

	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// Diagnostic describes why a samizdat's expanded SQL failed to parse.
type Diagnostic struct {
	FQN  samizdat.FQN
	SQL  string
	Hint string
	Err  error
}

func (d Diagnostic) Error() string {
	msg := fmt.Sprintf("SQL for %s does not parse: %v", d.FQN, d.Err)
	if d.Hint != "" {
		msg += fmt.Sprintf(" (hint: %s)", d.Hint)
	}
	return msg
}

// Check parses sql with PostgreSQL's own grammar and returns a Diagnostic
// if it fails. It never talks to a database.
func Check(sd *samizdat.Samizdat, sql string) error {
	if _, err := pgq.Parse(sql); err != nil {
		return Diagnostic{FQN: sd.FQN(), SQL: sql, Hint: hint(sd, sql), Err: err}
	}
	return nil
}

// CheckAll runs Check over CreateSQL for every non-ghost samizdat in decls,
// short-circuiting on the first failure (declared order, so the first
// reported failure is also the first one sync would hit).
func CheckAll(decls []*samizdat.Samizdat) error {
	for _, sd := range decls {
		if sd.Ghost {
			continue
		}
		sql, err := sd.CreateSQL()
		if err != nil {
			return fmt.Errorf("expanding template for %s: %w", sd.FQN(), err)
		}
		if err := Check(sd, sql); err != nil {
			return err
		}
	}
	return nil
}

func hint(sd *samizdat.Samizdat, sql string) string {
	if strings.Contains(sql, "${") {
		return "template still contains an unresolved ${...} placeholder"
	}
	if sd.Kind == samizdat.KindFunction && !strings.Contains(strings.ToUpper(sql), "CREATE FUNCTION") {
		return "template has no CREATE FUNCTION preamble"
	}
	return ""
}
