package stake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stake-bet-watcher/internal/gateway"
)

// MaxPageSize is the largest limit the bet feeds accept.
const MaxPageSize = 50

// FeedKind selects one of the public bet feeds.
type FeedKind string

const (
	// FeedGeneral lists the most recent sport bets regardless of stake.
	FeedGeneral FeedKind = "allSportBets"
	// FeedHighroller lists only large-stake sport bets.
	FeedHighroller FeedKind = "highrollerSportBets"
)

func (f FeedKind) operation() string {
	if f == FeedHighroller {
		return opHighrollerBet
	}
	return opAllSportBets
}

// Sender is the transport used by Client; *gateway.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, req gateway.Request) (gateway.Response, error)
}

// Feed is the decoded result of one feed request.
type Feed struct {
	Kind     FeedKind
	Bets     []Bet
	Rejected []*DataShapeError
}

// CurrencyRates is one row of the fiat conversion table.
type CurrencyRates struct {
	Name string
	Fiat map[string]decimal.Decimal
}

// Client exposes typed Stake GraphQL operations.
type Client struct {
	sender Sender
	logger zerolog.Logger
}

// New wraps a transport.
func New(sender Sender, logger zerolog.Logger) *Client {
	return &Client{sender: sender, logger: logger.With().Str("component", "stake_client").Logger()}
}

func (c *Client) call(ctx context.Context, req gateway.Request, out any) error {
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msg := e.Message
			if e.ErrorType != "" {
				msg = fmt.Sprintf("%s (%s)", msg, e.ErrorType)
			}
			msgs = append(msgs, msg)
		}
		return &DomainError{Operation: req.OperationName, Messages: msgs}
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("%s: response has no data", req.OperationName)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", req.OperationName, err)
	}
	return nil
}

// UsdRates returns the USD value of one unit of every listed currency.
func (c *Client) UsdRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var data struct {
		Info struct {
			Currencies []struct {
				Name  string              `json:"name"`
				Value decimal.NullDecimal `json:"value"`
			} `json:"currencies"`
		} `json:"info"`
	}
	req := gateway.Request{OperationName: opUsdRates, Query: usdRatesQuery}
	if err := c.call(ctx, req, &data); err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal, len(data.Info.Currencies))
	for _, cur := range data.Info.Currencies {
		if cur.Name == "" || !cur.Value.Valid {
			continue
		}
		rates[strings.ToLower(cur.Name)] = cur.Value.Decimal
	}
	return rates, nil
}

// FiatRates returns every currency's value in each of FiatCurrencies.
func (c *Client) FiatRates(ctx context.Context) ([]CurrencyRates, error) {
	var data struct {
		Info struct {
			Currencies []map[string]json.RawMessage `json:"currencies"`
		} `json:"info"`
	}
	req := gateway.Request{OperationName: opFiatRates, Query: fiatRatesQuery()}
	if err := c.call(ctx, req, &data); err != nil {
		return nil, err
	}

	out := make([]CurrencyRates, 0, len(data.Info.Currencies))
	for _, row := range data.Info.Currencies {
		var name string
		if err := json.Unmarshal(row["name"], &name); err != nil || name == "" {
			continue
		}
		rates := CurrencyRates{Name: strings.ToLower(name), Fiat: make(map[string]decimal.Decimal, len(FiatCurrencies))}
		for _, fiat := range FiatCurrencies {
			raw, ok := row[fiat]
			if !ok {
				continue
			}
			var v decimal.NullDecimal
			if err := json.Unmarshal(raw, &v); err != nil || !v.Valid {
				continue
			}
			rates.Fiat[fiat] = v.Decimal
		}
		out = append(out, rates)
	}
	return out, nil
}

// Bets fetches one page of the requested feed. Elements that cannot be
// interpreted are returned in Feed.Rejected instead of failing the request.
func (c *Client) Bets(ctx context.Context, kind FeedKind, limit int) (Feed, error) {
	if limit <= 0 || limit > MaxPageSize {
		return Feed{}, fmt.Errorf("feed limit %d outside 1..%d", limit, MaxPageSize)
	}

	var data map[string][]json.RawMessage
	req := gateway.Request{
		OperationName: kind.operation(),
		Variables:     map[string]any{"limit": limit},
		Query:         feedQuery(string(kind), kind.operation()),
	}
	if err := c.call(ctx, req, &data); err != nil {
		return Feed{}, err
	}

	items := data[string(kind)]
	feed := Feed{Kind: kind, Bets: make([]Bet, 0, len(items))}
	for _, raw := range items {
		bet, err := DecodeBet(raw)
		if err != nil {
			var shapeErr *DataShapeError
			if !errors.As(err, &shapeErr) {
				shapeErr = &DataShapeError{Field: "bet", Reason: err.Error()}
			}
			feed.Rejected = append(feed.Rejected, shapeErr)
			continue
		}
		feed.Bets = append(feed.Bets, bet)
	}

	c.logger.Debug().Str("feed", string(kind)).
		Int("bets", len(feed.Bets)).
		Int("rejected", len(feed.Rejected)).
		Msg("feed decoded")
	return feed, nil
}

// AllSportBets fetches the general recent-bets feed.
func (c *Client) AllSportBets(ctx context.Context, limit int) (Feed, error) {
	return c.Bets(ctx, FeedGeneral, limit)
}

// HighrollerSportBets fetches the high-value feed.
func (c *Client) HighrollerSportBets(ctx context.Context, limit int) (Feed, error) {
	return c.Bets(ctx, FeedHighroller, limit)
}

// BetLookup fetches a single bet by iid, e.g. "sport:15684378".
func (c *Client) BetLookup(ctx context.Context, iid string) (Bet, error) {
	iid = strings.TrimSpace(iid)
	if iid == "" {
		return Bet{}, fmt.Errorf("iid is required")
	}

	var data struct {
		Bet json.RawMessage `json:"bet"`
	}
	req := gateway.Request{
		OperationName: opBetLookup,
		Variables:     map[string]any{"iid": iid},
		Query:         betLookupQuery(),
	}
	if err := c.call(ctx, req, &data); err != nil {
		return Bet{}, err
	}
	if len(data.Bet) == 0 || string(data.Bet) == "null" {
		return Bet{}, ErrBetNotFound
	}
	return DecodeBet(data.Bet)
}
