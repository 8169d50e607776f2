// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catalpainternational/dbsamizdat-go/pkg/dot"
)

func printdotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "printdot [manifest-dir...]",
		Short: "Render the dependency graph as GraphViz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			decls, err := declaredState(args)
			if err != nil {
				return err
			}
			fmt.Print(dot.Render(decls))
			return nil
		},
	}
	return cmd
}
