// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/catalpainternational/dbsamizdat-go/pkg/reconcile"
)

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <dburl> [manifest-dir...]",
		Short: "Print the reconciler's excess sets without applying anything",
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

			exitFlags := 0
			if len(result.ExcessDBState) > 0 {
				exitFlags |= 1
				fmt.Println("in database, not declared (or hash changed):")
				for _, rec := range result.ExcessDBState {
					fmt.Printf("  %s.%s (%s)\n", rec.Schema, rec.Name, rec.Kind)
				}
			}
			if len(result.ExcessDefinedState) > 0 {
				exitFlags |= 2
				fmt.Println("declared, not in database (or hash changed):")
				for _, sd := range result.ExcessDefinedState {
					fmt.Printf("  %s (%s)\n", sd.FQN(), sd.Kind)
				}
			}

			if exitFlags == 0 {
				fmt.Println("in sync")
				return nil
			}
			os.Exit(100 + exitFlags)
			return nil
		},
	}
	return cmd
}
