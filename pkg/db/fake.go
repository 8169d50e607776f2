// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
)

// FakeDB is a fake implementation of `DB`. All methods are no-ops; it lets
// an executor run without a live Postgres connection.
type FakeDB struct{}

func (db *FakeDB) Begin(ctx context.Context) (Tx, error) {
	return &FakeTx{}, nil
}

func (db *FakeDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (db *FakeDB) Mogrify(query string, args ...any) (string, error) {
	return query, nil
}

func (db *FakeDB) Close() error {
	return nil
}

// FakeTx is a no-op Tx, pairing with FakeDB.
type FakeTx struct{}

func (t *FakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (t *FakeTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (t *FakeTx) Savepoint(ctx context.Context, name string) error  { return nil }
func (t *FakeTx) Release(ctx context.Context, name string) error    { return nil }
func (t *FakeTx) RollbackTo(ctx context.Context, name string) error { return nil }
func (t *FakeTx) Commit(ctx context.Context) error                  { return nil }
func (t *FakeTx) Rollback(ctx context.Context) error                { return nil }
