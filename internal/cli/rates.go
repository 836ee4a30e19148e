package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stake-bet-watcher/internal/app"
)

var (
	ratesCurrencies []string
	ratesPlaces     int
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Display currency conversion rates in every supported fiat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ratesPlaces < -1 || ratesPlaces > 18 {
			return fmt.Errorf("--places must be within -1..18")
		}

		opts := app.RatesOptions{
			Currencies: ratesCurrencies,
			Places:     int32(ratesPlaces),
		}

		return getApp().Rates(cmd.Context(), opts)
	},
}

func init() {
	ratesCmd.Flags().StringSliceVar(&ratesCurrencies, "currency", nil, "Only show these currencies (comma separated)")
	ratesCmd.Flags().IntVar(&ratesPlaces, "places", 4, "Decimal places to print, -1 for full precision")
}
