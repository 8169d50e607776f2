// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/lib/pq"
	"github.com/pterm/pterm"

	"github.com/catalpainternational/dbsamizdat-go/cmd/flags"
	dbpkg "github.com/catalpainternational/dbsamizdat-go/pkg/db"
	"github.com/catalpainternational/dbsamizdat-go/pkg/discovery"
	"github.com/catalpainternational/dbsamizdat-go/pkg/discovery/manifest"
	"github.com/catalpainternational/dbsamizdat-go/pkg/discovery/registry"
	"github.com/catalpainternational/dbsamizdat-go/pkg/introspect"
	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
	dbinfoschema "github.com/catalpainternational/dbsamizdat-go/schema"
)

// Version is the dbsamizdat-go version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("DBSAMIZDAT")
	viper.AutomaticEnv()
	viper.BindEnv("DBURL", "DBURL")

	flags.CommonFlags(rootCmd)

	// A broken embedded schema must not make the whole binary unusable;
	// introspection simply skips validation (pkg/introspect's documented
	// nil-validator fallback).
	sch, err := introspect.LoadSchemaBytes("dbinfo.schema.json", dbinfoschema.DBInfoSchemaJSON)
	if err != nil {
		pterm.Warning.Printfln("dbinfo schema validation disabled: %s", err)
		return
	}
	introspect.SetSchema(sch)
}

var rootCmd = &cobra.Command{
	Use:           "dbsamizdat",
	Short:         "Reconcile derived PostgreSQL schema objects with a declared set",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

// Execute executes the root command.
func Execute() error {
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(nukeCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(printdotCmd())

	return rootCmd.Execute()
}

// connect opens a *sql.DB for the given URI, falling back to the DBURL
// environment variable when uri is empty (spec.md §6.1).
func connect(uri string) (*dbpkg.RDB, error) {
	if uri == "" {
		uri = flags.DBURL()
	}
	if uri == "" {
		return nil, fmt.Errorf("no database URL given and DBURL is not set")
	}
	sqldb, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	return &dbpkg.RDB{DB: sqldb}, nil
}

// discoverAll builds the declared samizdat set from the process-wide
// registry plus every manifest directory named positionally (spec.md
// §6.3's standalone mode: module names become manifest directories here,
// since there is no dynamic module import in a compiled systems language).
func discoverAll(manifestDirs []string) ([]*samizdat.Samizdat, error) {
	discoverers := []discovery.Discoverer{registry.Registry{}}
	for _, dir := range manifestDirs {
		discoverers = append(discoverers, manifest.New(dir))
	}

	var all []*samizdat.Samizdat
	for _, d := range discoverers {
		sds, err := d.Discover()
		if err != nil {
			return nil, err
		}
		all = append(all, sds...)
	}
	return all, nil
}
