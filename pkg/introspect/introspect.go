// SPDX-License-Identifier: Apache-2.0

// Package introspect enumerates the database objects this system owns, by
// finding every view, materialized view, function, trigger, and table whose
// COMMENT carries a valid dbinfo signature (spec.md §4.4).
package introspect

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// Queryer is the slice of the driver boundary introspection needs: either a
// db.DB (outside a transaction) or a db.Tx (mid-sync, reading within the
// same transaction the executor will act in) satisfies it.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Record is one introspected, owned database object.
type Record struct {
	Schema string
	Name   string
	Kind   samizdat.Kind
	Table  string // trigger only: the table it's defined on
	Args   string // function only: effective argument signature
	DBInfo samizdat.DBInfo
}

// schemaValidator is installed by SetSchema, and stays nil (skip
// validation) until then -- the CLI leaves it unset if the bundled schema
// can't be compiled, so introspection does not hard-fail on a packaging
// problem in its own self-check.
var schemaValidator *jsonschema.Schema

// SetSchema installs the compiled dbinfo JSON Schema used to validate
// comments before trusting them as owned state (SPEC_FULL.md §3). Called
// once at startup by the CLI boundary with the bundled schema document.
func SetSchema(s *jsonschema.Schema) {
	schemaValidator = s
}

const catalogQuery = `
SELECT n.nspname AS schema, c.relname AS name, 'view' AS kind, '' AS extra, obj_description(c.oid, 'pg_class') AS comment
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'v'
UNION ALL
SELECT n.nspname, c.relname, 'matview', '', obj_description(c.oid, 'pg_class')
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'm'
UNION ALL
SELECT n.nspname, c.relname, 'table', '', obj_description(c.oid, 'pg_class')
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'r'
UNION ALL
SELECT n.nspname, p.proname, 'function', pg_catalog.pg_get_function_identity_arguments(p.oid), obj_description(p.oid, 'pg_proc')
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
WHERE p.prokind = 'f'
UNION ALL
SELECT n.nspname, t.tgname, 'trigger', ct.relname, obj_description(t.oid, 'pg_trigger')
FROM pg_catalog.pg_trigger t
JOIN pg_catalog.pg_class ct ON ct.oid = t.tgrelid
JOIN pg_catalog.pg_namespace n ON n.oid = ct.relnamespace
WHERE NOT t.tgisinternal
`

// GetDBState enumerates every owned object: a row whose comment is absent,
// not JSON, or fails the bundled schema is simply invisible (spec.md §4.4) --
// not an error.
func GetDBState(ctx context.Context, q Queryer) ([]Record, error) {
	rows, err := q.QueryContext(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("introspecting database state: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var schema, name, kind, extra string
		var comment sql.NullString
		if err := rows.Scan(&schema, &name, &kind, &extra, &comment); err != nil {
			return nil, fmt.Errorf("scanning introspected row: %w", err)
		}
		if !comment.Valid {
			continue
		}
		dbinfo, ok := validComment(comment.String)
		if !ok {
			continue
		}

		rec := Record{Schema: schema, Name: name, Kind: samizdat.Kind(kind), DBInfo: dbinfo}
		switch rec.Kind {
		case samizdat.KindFunction:
			rec.Args = extra
		case samizdat.KindTrigger:
			rec.Table = extra
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func validComment(comment string) (samizdat.DBInfo, bool) {
	envelope, ok := samizdat.ParseDBInfoComment(comment)
	if !ok {
		return samizdat.DBInfo{}, false
	}
	if schemaValidator != nil {
		var raw any
		if err := json.Unmarshal([]byte(comment), &raw); err != nil {
			return samizdat.DBInfo{}, false
		}
		if err := schemaValidator.Validate(raw); err != nil {
			return samizdat.DBInfo{}, false
		}
	}
	return envelope.DBSamizdat, true
}

// DBInfoToClass reconstructs a ghost samizdat from an introspected record:
// same FQN and hash, no template. Ghosts can only be dropped (spec.md §4.4).
func DBInfoToClass(rec Record) *samizdat.Samizdat {
	sd := &samizdat.Samizdat{
		Kind:      rec.Kind,
		Schema:    rec.Schema,
		Name:      rec.Name,
		Ghost:     true,
		GhostHash: rec.DBInfo.DefinitionHash,
	}
	switch rec.Kind {
	case samizdat.KindFunction:
		sd.FunctionArgumentsSignature = rec.Args
	case samizdat.KindTrigger:
		sd.OnTable = rec.Table
	}
	return sd
}
