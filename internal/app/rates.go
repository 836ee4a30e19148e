package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"stake-bet-watcher/internal/stake"
)

// RatesOptions configure the rates command.
type RatesOptions struct {
	// Currencies limits the rows; empty prints every currency.
	Currencies []string
	Places     int32
}

type fiatRateSource interface {
	FiatRates(ctx context.Context) ([]stake.CurrencyRates, error)
}

// Rates prints the fiat conversion table.
func (a *App) Rates(ctx context.Context, opts RatesOptions) error {
	return a.printRates(ctx, a.newStakeClient(), opts)
}

func (a *App) printRates(ctx context.Context, src fiatRateSource, opts RatesOptions) error {
	rows, err := src.FiatRates(ctx)
	if err != nil {
		return fmt.Errorf("fetch fiat rates: %w", err)
	}
	rows = filterRates(rows, opts.Currencies)
	if len(rows) == 0 {
		fmt.Fprintln(a.Out, "no currencies found")
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := []string{"Currency"}
	for _, fiat := range stake.FiatCurrencies {
		header = append(header, strings.ToUpper(fiat))
	}
	fmt.Fprintln(writer, strings.Join(header, "\t")+"\t")

	for _, row := range rows {
		cells := []string{row.Name}
		for _, fiat := range stake.FiatCurrencies {
			v, ok := row.Fiat[fiat]
			if !ok {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, formatDecimal(v, opts.Places))
		}
		fmt.Fprintln(writer, strings.Join(cells, "\t")+"\t")
	}

	return writer.Flush()
}

func filterRates(rows []stake.CurrencyRates, only []string) []stake.CurrencyRates {
	if len(only) == 0 {
		return rows
	}
	want := make(map[string]struct{}, len(only))
	for _, code := range only {
		want[strings.ToLower(strings.TrimSpace(code))] = struct{}{}
	}
	out := rows[:0:0]
	for _, row := range rows {
		if _, ok := want[row.Name]; ok {
			out = append(out, row)
		}
	}
	return out
}

func formatDecimal(d decimal.Decimal, places int32) string {
	if places < 0 {
		return d.String()
	}
	return d.StringFixed(places)
}
