package cli

import (
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:     "lookup <iid>",
	Short:   "Print the report line for a single bet",
	Example: "  stakewatch lookup sport:15684378",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Lookup(cmd.Context(), args[0])
	},
}
