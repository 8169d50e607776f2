// SPDX-License-Identifier: Apache-2.0

package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func DBURL() string {
	return viper.GetString("DBURL")
}

func TxDiscipline() string {
	return viper.GetString("TXDISCIPLINE")
}

// Verbosity returns -v count minus -q count: positive means "log more",
// negative means "log less".
func Verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	q, _ := cmd.Flags().GetCount("quiet")
	return v - q
}

// CommonFlags registers the flags every subcommand shares: transaction
// discipline and verbosity (spec.md §6.1).
func CommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("txdiscipline", "checkpoint", "Transaction discipline: checkpoint, jumbo, or dryrun")
	cmd.PersistentFlags().CountP("verbose", "v", "Increase verbosity (repeatable)")
	cmd.PersistentFlags().CountP("quiet", "q", "Decrease verbosity (repeatable)")

	viper.BindPFlag("TXDISCIPLINE", cmd.PersistentFlags().Lookup("txdiscipline"))
}
