// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/catalpainternational/dbsamizdat-go/pkg/db"
)

// Discipline is one of the three transaction disciplines spec.md §4.6
// names.
type Discipline string

const (
	DisciplineJumbo      Discipline = "jumbo"
	DisciplineDryrun     Discipline = "dryrun"
	DisciplineCheckpoint Discipline = "checkpoint"
)

// Run applies steps in order under the given discipline. jumbo and dryrun
// hold one transaction open for the whole plan (committing or rolling back
// at the end); checkpoint commits after each create+sign pair, each drop,
// and each refresh, to minimize held locks on long runs.
func Run(ctx context.Context, conn db.DB, discipline Discipline, steps []Step, logger Logger) error {
	if logger == nil {
		logger = NewNoopLogger()
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("opening transaction: %w", err)
	}

	for _, step := range steps {
		logger.LogStepStart(step)
		spname := "action_" + string(step.Action)
		if err := tx.Savepoint(ctx, spname); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("savepoint %s: %w", spname, err)
		}

		sqlText := step.SQL
		if step.Action == ActionSign {
			sqlText, err = signSQL(conn, step)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if _, execErr := tx.ExecContext(ctx, sqlText); execErr != nil {
			if step.Action == ActionSign {
				err := recoverSignFailure(ctx, tx, spname, step, execErr)
				logger.LogStepError(step, err)
				return err
			}
			hint := heuristicHint(step.SQL, step.Samizdat.Kind, execErr)
			_ = tx.Rollback(ctx)
			err := DatabaseError{Action: string(step.Action), FQN: step.Samizdat.FQN(), SQL: step.SQL, Hint: hint, Err: execErr}
			logger.LogStepError(step, err)
			return err
		}

		if err := tx.Release(ctx, spname); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("release savepoint %s: %w", spname, err)
		}
		logger.LogStepComplete(step)

		if discipline == DisciplineCheckpoint && step.Action != ActionCreate {
			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("checkpoint commit after %s: %w", step.Action, err)
			}
			tx, err = conn.Begin(ctx)
			if err != nil {
				return fmt.Errorf("reopening transaction after checkpoint: %w", err)
			}
		}
	}

	if discipline == DisciplineDryrun {
		return tx.Rollback(ctx)
	}
	return tx.Commit(ctx)
}

// signSQL computes the samizdat's dbinfo comment and substitutes it for $1
// in the sign step's COMMENT statement via conn.Mogrify.
func signSQL(conn db.DB, step Step) (string, error) {
	signed, err := step.Samizdat.Sign(time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("signing %s: %w", step.Samizdat.FQN(), err)
	}
	comment, err := signed.MarshalComment()
	if err != nil {
		return "", fmt.Errorf("signing %s: %w", step.Samizdat.FQN(), err)
	}
	return conn.Mogrify(step.SQL, comment)
}

func recoverSignFailure(ctx context.Context, tx db.Tx, spname string, step Step, signErr error) error {
	if err := tx.RollbackTo(ctx, spname); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("rolling back to %s after sign failure: %w", spname, err)
	}
	candidates, lookupErr := lookupFunctionSignatures(ctx, tx, step.Samizdat.FQN().Schema, step.Samizdat.FQN().Name)
	_ = tx.Rollback(ctx)
	if lookupErr != nil {
		return fmt.Errorf("signing %s failed (%w), and candidate lookup also failed: %w", step.Samizdat.FQN(), signErr, lookupErr)
	}
	return FunctionSignatureError{FQN: step.Samizdat.FQN(), Candidates: candidates}
}

const candidateSignaturesQuery = `
SELECT pg_catalog.pg_get_function_identity_arguments(p.oid)
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
WHERE n.nspname = $1 AND p.proname = $2
`

func lookupFunctionSignatures(ctx context.Context, tx db.Tx, schema, name string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, candidateSignaturesQuery, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
