package app

import (
	"context"
	"errors"
	"fmt"

	"stake-bet-watcher/internal/currency"
	"stake-bet-watcher/internal/report"
	"stake-bet-watcher/internal/stake"
)

type betSource interface {
	BetLookup(ctx context.Context, iid string) (stake.Bet, error)
}

type rateFetcher interface {
	FetchRates(ctx context.Context) (currency.RateTable, error)
}

// Lookup 查询单个下注并按报告格式输出，不受金额阈值限制。
func (a *App) Lookup(ctx context.Context, iid string) error {
	client := a.newStakeClient()
	return a.lookup(ctx, client, currency.NewNormalizer(client, a.Logger), iid)
}

func (a *App) lookup(ctx context.Context, bets betSource, rates rateFetcher, iid string) error {
	bet, err := bets.BetLookup(ctx, iid)
	if errors.Is(err, stake.ErrBetNotFound) {
		return fmt.Errorf("bet %q not found", iid)
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", iid, err)
	}

	table, err := rates.FetchRates(ctx)
	if err != nil {
		return err
	}
	usd, ok := table.ToUSD(bet.Amount, bet.Currency)
	if !ok {
		return fmt.Errorf("no conversion rate for currency %q", bet.Currency)
	}

	a.Logger.Debug().
		Str("iid", bet.IID).
		Str("kind", bet.Kind.String()).
		Str("amount", bet.Amount.String()).
		Str("currency", bet.Currency).
		Msg("bet resolved")
	return report.NewConsoleReporter(a.Out).Report(ctx, report.NewRecord(bet, usd))
}
