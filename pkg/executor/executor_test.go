// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalpainternational/dbsamizdat-go/pkg/db"
	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

// recordingDB is a scripted db.DB/db.Tx fake: it never talks to QueryContext
// (the sign-failure recovery path, which needs a real *sql.Rows and is
// exercised by the testcontainers-backed integration suite instead), and
// lets tests fail a specific SQL statement on demand.
type recordingDB struct {
	failSQL string
	events  []string
}

func (f *recordingDB) Begin(ctx context.Context) (db.Tx, error) {
	f.events = append(f.events, "begin")
	return &recordingTx{parent: f}, nil
}
func (f *recordingDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("unexpected QueryContext call on recordingDB")
}
func (f *recordingDB) Mogrify(query string, args ...any) (string, error) { return query, nil }
func (f *recordingDB) Close() error                                      { return nil }

type recordingTx struct {
	parent *recordingDB
}

func (t *recordingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if t.parent.failSQL != "" && query == t.parent.failSQL {
		return nil, errors.New("simulated SQL failure")
	}
	t.parent.events = append(t.parent.events, "exec:"+query)
	return nil, nil
}
func (t *recordingTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("unexpected QueryContext call on recordingTx")
}
func (t *recordingTx) Savepoint(ctx context.Context, name string) error {
	t.parent.events = append(t.parent.events, "savepoint:"+name)
	return nil
}
func (t *recordingTx) Release(ctx context.Context, name string) error {
	t.parent.events = append(t.parent.events, "release:"+name)
	return nil
}
func (t *recordingTx) RollbackTo(ctx context.Context, name string) error {
	t.parent.events = append(t.parent.events, "rollbackto:"+name)
	return nil
}
func (t *recordingTx) Commit(ctx context.Context) error {
	t.parent.events = append(t.parent.events, "commit")
	return nil
}
func (t *recordingTx) Rollback(ctx context.Context) error {
	t.parent.events = append(t.parent.events, "rollback")
	return nil
}

func viewStep(name string) Step {
	sd := &samizdat.Samizdat{Kind: samizdat.KindView, Name: name}
	return Step{Action: ActionCreate, Samizdat: sd, SQL: "CREATE VIEW " + name}
}

func TestRun_JumboHoldsOneTransaction(t *testing.T) {
	fake := &recordingDB{}
	steps := []Step{viewStep("a"), viewStep("b")}

	err := Run(context.Background(), fake, DisciplineJumbo, steps, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"begin",
		"savepoint:action_create", "exec:CREATE VIEW a", "release:action_create",
		"savepoint:action_create", "exec:CREATE VIEW b", "release:action_create",
		"commit",
	}, fake.events)
}

func TestRun_DryrunRollsBackAtEnd(t *testing.T) {
	fake := &recordingDB{}
	err := Run(context.Background(), fake, DisciplineDryrun, []Step{viewStep("a")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "rollback", fake.events[len(fake.events)-1])
}

func TestRun_CheckpointCommitsAfterNonCreateSteps(t *testing.T) {
	fake := &recordingDB{}
	sd := &samizdat.Samizdat{Kind: samizdat.KindView, Name: "a"}
	steps := []Step{
		{Action: ActionCreate, Samizdat: sd, SQL: "CREATE VIEW a"},
		{Action: ActionSign, Samizdat: sd, SQL: "COMMENT ON VIEW a IS 'x'"},
	}
	err := Run(context.Background(), fake, DisciplineCheckpoint, steps, nil)
	require.NoError(t, err)

	assert.Contains(t, fake.events, "commit")
	// a fresh transaction must be opened again after the checkpoint commit
	assert.Equal(t, 2, countOccurrences(fake.events, "begin"))
}

func countOccurrences(events []string, want string) int {
	n := 0
	for _, e := range events {
		if e == want {
			n++
		}
	}
	return n
}

func TestRun_NonSignFailureRollsBackAndReturnsDatabaseError(t *testing.T) {
	fake := &recordingDB{failSQL: "CREATE VIEW a"}
	err := Run(context.Background(), fake, DisciplineJumbo, []Step{viewStep("a")}, nil)
	require.Error(t, err)
	var dbErr DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "create", dbErr.Action)
	assert.Contains(t, fake.events, "rollback")
}

func TestHeuristicHint_UnresolvedPlaceholder(t *testing.T) {
	hint := heuristicHint("CREATE VIEW x AS ${preamble} SELECT 1", samizdat.KindView, errors.New("syntax error"))
	assert.Contains(t, hint, "unresolved")
}

func TestHeuristicHint_MissingCreateFunctionPreamble(t *testing.T) {
	hint := heuristicHint("SELECT 1", samizdat.KindFunction, errors.New("syntax error"))
	assert.Contains(t, hint, "CREATE FUNCTION")
}

func TestHeuristicHint_AlreadyExists(t *testing.T) {
	hint := heuristicHint("CREATE VIEW x AS SELECT 1", samizdat.KindView, errors.New(`relation "x" already exists`))
	assert.Contains(t, hint, "already exists")
}
