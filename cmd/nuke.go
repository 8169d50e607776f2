// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/catalpainternational/dbsamizdat-go/cmd/flags"
	"github.com/catalpainternational/dbsamizdat-go/pkg/executor"
)

func nukeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nuke <dburl>",
		Short: "Drop every database object this system owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			uri, _ := splitDBURLArgs(args)

			conn, err := connect(uri)
			if err != nil {
				return err
			}
			defer conn.Close()

			live, err := liveState(ctx, conn)
			if err != nil {
				return err
			}
			if len(live) == 0 {
				pterm.Info.Println("nothing owned to drop")
				return nil
			}

			// CASCADE-reliant: this may drop dependent objects this
			// system doesn't own. Inspect first with
			// --txdiscipline dryrun if that matters.
			plan := executor.NukePlan(live)

			discipline := executor.Discipline(flags.TxDiscipline())
			if err := executor.Run(ctx, conn, discipline, plan, executor.NewLogger()); err != nil {
				return err
			}

			pterm.Success.Println("nuke complete")
			return nil
		},
	}
	return cmd
}
