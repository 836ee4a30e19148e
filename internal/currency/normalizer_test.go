package currency

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type sourceFunc func(ctx context.Context) (map[string]decimal.Decimal, error)

func (f sourceFunc) UsdRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	return f(ctx)
}

func TestToUSD(t *testing.T) {
	table := RateTable{"btc": decimal.NewFromInt(40000)}

	usd, ok := table.ToUSD(decimal.RequireFromString("0.025"), "BTC")
	if !ok {
		t.Fatal("BTC should resolve case-insensitively")
	}
	if !usd.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("usd = %s, want 1000", usd)
	}

	if _, ok := table.ToUSD(decimal.NewFromInt(1_000_000), "doge"); ok {
		t.Fatal("missing currency must not convert")
	}
}

func TestFetchRatesRebuildsEveryCall(t *testing.T) {
	calls := 0
	src := sourceFunc(func(ctx context.Context) (map[string]decimal.Decimal, error) {
		calls++
		if calls == 1 {
			return map[string]decimal.Decimal{"BTC": decimal.NewFromInt(1), "eth": decimal.NewFromInt(2)}, nil
		}
		return map[string]decimal.Decimal{"eth": decimal.NewFromInt(3)}, nil
	})
	n := NewNormalizer(src, zerolog.Nop())

	first, err := n.FetchRates(context.Background())
	if err != nil {
		t.Fatalf("FetchRates: %v", err)
	}
	if _, ok := first.Rate("btc"); !ok {
		t.Fatal("codes should be normalised to lowercase")
	}

	second, err := n.FetchRates(context.Background())
	if err != nil {
		t.Fatalf("FetchRates: %v", err)
	}
	if _, ok := second.Rate("btc"); ok {
		t.Fatal("rates must not carry over between fetches")
	}
	if rate, _ := second.Rate("eth"); !rate.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("eth = %s", rate)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestFetchRatesWrapsError(t *testing.T) {
	cause := errors.New("boom")
	n := NewNormalizer(sourceFunc(func(context.Context) (map[string]decimal.Decimal, error) {
		return nil, cause
	}), zerolog.Nop())

	if _, err := n.FetchRates(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("want wrapped cause, got %v", err)
	}
}
