package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stake-bet-watcher/internal/app"
)

var (
	runMinUSD   float64
	runInterval int
)

// runWatcher polls until interrupted. Flags left unset fall back to config.
func runWatcher(cmd *cobra.Command, args []string) error {
	a := getApp()
	flags := cmd.Flags()
	if flags.Changed("interval") && runInterval <= 0 {
		return fmt.Errorf("--interval must be greater than zero")
	}

	opts := app.RunOptions{
		MinUSD:   a.Config.ResolveMinUSD(runMinUSD, flags.Changed("min-usd-amount")),
		Interval: a.Config.ResolveInterval(runInterval, flags.Changed("interval")),
	}
	return a.Run(cmd.Context(), opts)
}

func bindRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&runMinUSD, "min-usd-amount", "m", 1000, "Minimum bet amount in USD to report (inclusive)")
	cmd.Flags().IntVarP(&runInterval, "interval", "i", 60, "Seconds between polls")
}
