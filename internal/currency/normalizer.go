package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RateSource returns the USD value of one unit of each currency.
type RateSource interface {
	UsdRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// RateTable maps a lowercase currency code to its USD multiplier.
type RateTable map[string]decimal.Decimal

// Rate looks up a currency code case-insensitively.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := t[strings.ToLower(strings.TrimSpace(code))]
	return rate, ok
}

// ToUSD converts amount in the given currency. ok is false when the table has
// no rate for the code; the caller must not guess a value.
func (t RateTable) ToUSD(amount decimal.Decimal, code string) (usd decimal.Decimal, ok bool) {
	rate, ok := t.Rate(code)
	if !ok {
		return decimal.Decimal{}, false
	}
	return amount.Mul(rate), true
}

// Normalizer fetches a fresh rate table on every call.
type Normalizer struct {
	source RateSource
	logger zerolog.Logger
}

// NewNormalizer wires a rate source.
func NewNormalizer(source RateSource, logger zerolog.Logger) *Normalizer {
	return &Normalizer{source: source, logger: logger.With().Str("component", "currency").Logger()}
}

// FetchRates performs a single request; nothing is cached between calls.
func (n *Normalizer) FetchRates(ctx context.Context) (RateTable, error) {
	rates, err := n.source.UsdRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch conversion rates: %w", err)
	}

	table := make(RateTable, len(rates))
	for code, rate := range rates {
		table[strings.ToLower(code)] = rate
	}
	n.logger.Debug().Int("currencies", len(table)).Msg("conversion rates refreshed")
	return table, nil
}
