// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	dbpkg "github.com/catalpainternational/dbsamizdat-go/pkg/db"
	"github.com/catalpainternational/dbsamizdat-go/pkg/graph"
	"github.com/catalpainternational/dbsamizdat-go/pkg/introspect"
	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
	"github.com/catalpainternational/dbsamizdat-go/pkg/sqlcheck"
)

// declaredState discovers, validates, sorts, sidekick-expands, and
// preflight-lints the declared samizdat set. Any validation failure here is
// fatal before any SQL is issued (spec.md §4.3, §7).
func declaredState(manifestDirs []string) ([]*samizdat.Samizdat, error) {
	decls, err := discoverAll(manifestDirs)
	if err != nil {
		return nil, err
	}
	if err := graph.SanityCheck(decls); err != nil {
		return nil, err
	}
	sorted, err := graph.DepsortWithSidekicks(decls)
	if err != nil {
		return nil, err
	}
	if err := sqlcheck.CheckAll(sorted); err != nil {
		return nil, err
	}
	return sorted, nil
}

// liveState introspects the database for every object this system owns.
func liveState(ctx context.Context, conn *dbpkg.RDB) ([]introspect.Record, error) {
	return introspect.GetDBState(ctx, conn)
}
