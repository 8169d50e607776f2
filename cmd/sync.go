// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/catalpainternational/dbsamizdat-go/cmd/flags"
	"github.com/catalpainternational/dbsamizdat-go/pkg/executor"
	"github.com/catalpainternational/dbsamizdat-go/pkg/reconcile"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <dburl> [manifest-dir...]",
		Short: "Reconcile the database with the declared samizdat set",
		Args:  cobra.MinimumNArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			uri, dirs := splitDBURLArgs(args)

			conn, err := connect(uri)
			if err != nil {
				return err
			}
			defer conn.Close()

			decls, err := declaredState(dirs)
			if err != nil {
				return err
			}

			live, err := liveState(ctx, conn)
			if err != nil {
				return err
			}

			result, err := reconcile.Reconcile(decls, live)
			if err != nil {
				return err
			}
			if result.Same() {
				pterm.Info.Println("database already matches the declared set")
				return nil
			}

			discipline := executor.Discipline(flags.TxDiscipline())

			if dropPlan := executor.DropPlan(result); len(dropPlan) > 0 {
				if err := executor.Run(ctx, conn, discipline, dropPlan, executor.NewLogger()); err != nil {
					return err
				}
			}

			// A CASCADE drop may have taken unrelated owned objects down
			// with it; re-read live state before planning the create
			// pass so it reflects what actually survived (spec.md §4.7).
			live, err = liveState(ctx, conn)
			if err != nil {
				return err
			}
			createPlan, err := executor.CreatePlan(decls, live)
			if err != nil {
				return err
			}
			if len(createPlan) > 0 {
				if err := executor.Run(ctx, conn, discipline, createPlan, executor.NewLogger()); err != nil {
					return err
				}
			}

			pterm.Success.Println("sync complete")
			return nil
		},
	}
	return cmd
}

// splitDBURLArgs separates the leading positional dburl from any trailing
// manifest-directory arguments, falling back to DBURL when omitted
// (spec.md §6.1).
func splitDBURLArgs(args []string) (uri string, manifestDirs []string) {
	if len(args) == 0 {
		return "", nil
	}
	return args[0], args[1:]
}
