// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/catalpainternational/dbsamizdat-go/cmd/flags"
	"github.com/catalpainternational/dbsamizdat-go/pkg/executor"
	"github.com/catalpainternational/dbsamizdat-go/pkg/graph"
	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

func refreshCmd() *cobra.Command {
	var belowNodes []string

	cmd := &cobra.Command{
		Use:   "refresh <dburl> [manifest-dir...]",
		Short: "Refresh declared materialized views",
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

			var scope []*samizdat.Samizdat
			if len(belowNodes) > 0 {
				roots := make([]samizdat.FQN, len(belowNodes))
				for i, name := range belowNodes {
					roots[i] = samizdat.FQN{Schema: samizdat.DefaultSchema, Name: name}
				}
				scope, err = graph.SubtreeDepends(decls, roots)
				if err != nil {
					return err
				}
			}

			live, err := liveState(ctx, conn)
			if err != nil {
				return err
			}

			plan, err := executor.RefreshPlan(decls, live, scope)
			if err != nil {
				return err
			}
			if len(plan) == 0 {
				pterm.Info.Println("no matviews to refresh")
				return nil
			}

			discipline := executor.Discipline(flags.TxDiscipline())
			if err := executor.Run(ctx, conn, discipline, plan, executor.NewLogger()); err != nil {
				return err
			}

			pterm.Success.Println("refresh complete")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&belowNodes, "belownodes", nil, "Restrict refresh to the subtree depending on these FQNs")
	return cmd
}
