// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"
	"strings"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// FunctionSignatureError is raised when signing a function fails because
// function_arguments_signature doesn't match what PostgreSQL actually
// assigned the object (spec.md §4.6). Candidates lists every effective
// signature PostgreSQL has on file for (schema, name), regardless of match.
type FunctionSignatureError struct {
	FQN        samizdat.FQN
	Candidates []string
}

func (e FunctionSignatureError) Error() string {
	return fmt.Sprintf("could not sign function %s: no matching signature in pg_proc; candidates: %s",
		e.FQN, strings.Join(e.Candidates, ", "))
}

// DatabaseError wraps any other SQL failure during execution, annotated
// with the SQL text and a best-effort hint (spec.md §4.6, §7). The source
// template and its placeholder substitutions are not recorded.
type DatabaseError struct {
	Action string
	FQN    samizdat.FQN
	SQL    string
	Hint   string
	Err    error
}

func (e DatabaseError) Error() string {
	msg := fmt.Sprintf("database error during %s of %s: %v", e.Action, e.FQN, e.Err)
	if e.Hint != "" {
		msg += fmt.Sprintf(" (hint: %s)", e.Hint)
	}
	return msg
}

func (e DatabaseError) Unwrap() error { return e.Err }

// heuristicHint pattern-matches the expanded SQL and the underlying
// PostgreSQL error for the common mistakes spec.md §4.6 names: an
// unresolved placeholder, a missing CREATE FUNCTION preamble, or a
// duplicated signature.
func heuristicHint(sql string, kind samizdat.Kind, err error) string {
	if strings.Contains(sql, "${") {
		return "SQL still contains an unresolved ${...} placeholder"
	}
	if kind == samizdat.KindFunction && !strings.Contains(strings.ToUpper(sql), "CREATE FUNCTION") {
		return "template has no CREATE FUNCTION preamble; was ${preamble} dropped from the template?"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already exists"):
		return "a function with this name and signature already exists (duplicated signature)"
	case strings.Contains(msg, "syntax error"):
		return "PostgreSQL reported a syntax error; check for an unresolved or misspelled placeholder"
	}
	return ""
}
