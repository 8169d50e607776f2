// SPDX-License-Identifier: Apache-2.0

// Package db wraps the *sql.DB/*sql.Tx pair for the single cursor the core
// talks to, adding retry-on-lock-timeout and the savepoint primitives the
// executor's per-action transaction discipline depends on.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/lib/pq"
)

const (
	lockNotAvailableErrorCode pq.ErrorCode = "55P03"
	maxBackoffDuration                     = 1 * time.Minute
	backoffInterval                        = 1 * time.Second
)

// DB is the driver boundary described in spec.md §6.4: begin, query, and
// mogrify. Exec/commit/rollback/savepoint live on the Tx returned by Begin,
// since the executor's transaction disciplines operate on one open
// transaction at a time, not one transaction per statement.
type DB interface {
	Begin(ctx context.Context) (Tx, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Mogrify(query string, args ...any) (string, error)
	Close() error
}

// Tx is one open database transaction plus named-savepoint control.
// database/sql has no savepoint verbs, so Savepoint/Release/RollbackTo
// issue the raw SQL themselves.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Savepoint(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RDB wraps a *sql.DB and retries queries using an exponential backoff (with
// jitter) on lock_timeout errors, same discipline as pgroll's RDB.
type RDB struct {
	DB *sql.DB
}

func (db *RDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &rdbTx{tx: tx}, nil
}

// QueryContext wraps sql.DB.QueryContext, retrying queries on lock_timeout errors.
func (db *RDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		rows, err := db.DB.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}

		pqErr := &pq.Error{}
		if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailableErrorCode {
			if err := sleepCtx(ctx, b.Duration()); err != nil {
				return nil, err
			}
			continue
		}

		return nil, err
	}
}

var mogrifyPlaceholder = regexp.MustCompile(`\$(\d+)`)

// Mogrify produces a server-safe, literal-substituted SQL string. It exists
// exclusively to build `COMMENT ON ... IS '<dbinfo json>'` statements, where
// the substituted value must survive arbitrary JSON content without relying
// on driver parameter binding inside DDL.
func (db *RDB) Mogrify(query string, args ...any) (string, error) {
	var substErr error
	out := mogrifyPlaceholder.ReplaceAllStringFunc(query, func(m string) string {
		idx, err := strconv.Atoi(m[1:])
		if err != nil || idx < 1 || idx > len(args) {
			substErr = fmt.Errorf("mogrify: no argument for placeholder %q", m)
			return m
		}
		return pq.QuoteLiteral(fmt.Sprint(args[idx-1]))
	})
	if substErr != nil {
		return "", substErr
	}
	return out, nil
}

func (db *RDB) Close() error {
	return db.DB.Close()
}

type rdbTx struct {
	tx *sql.Tx
}

func (t *rdbTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *rdbTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *rdbTx) Savepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, "SAVEPOINT "+pq.QuoteIdentifier(name))
	return err
}

func (t *rdbTx) Release(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+pq.QuoteIdentifier(name))
	return err
}

func (t *rdbTx) RollbackTo(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+pq.QuoteIdentifier(name))
	return err
}

func (t *rdbTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *rdbTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ScanFirstValue scans the first row's single column, a helper for the
// "exec a query that returns one scalar" pattern.
func ScanFirstValue[T any](rows *sql.Rows, dest *T) error {
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(dest); err != nil {
			return err
		}
	}
	return rows.Err()
}
