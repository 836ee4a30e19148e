package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"stake-bet-watcher/internal/stake"
)

const (
	LabelSingle = "Single bet"
	LabelMulti  = "Multibet"
)

// Record 是一条待输出的高额下注记录。
type Record struct {
	IID    string
	Kind   stake.Kind
	Active bool
	Status string
	USD    decimal.Decimal
	Legs   []stake.Leg
}

// NewRecord builds the display record for bet valued at usd.
func NewRecord(bet stake.Bet, usd decimal.Decimal) Record {
	return Record{
		IID:    bet.IID,
		Kind:   bet.Kind,
		Active: bet.Active,
		Status: bet.Status,
		USD:    usd.Round(2),
		Legs:   bet.Legs,
	}
}

// Label returns "Multibet" for more than one leg, otherwise "Single bet".
func (r Record) Label() string {
	if len(r.Legs) > 1 {
		return LabelMulti
	}
	return LabelSingle
}

// Reporter 定义下注记录的输出接口。
type Reporter interface {
	Report(ctx context.Context, rec Record) error
}

// ConsoleReporter writes one line per record.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter writes to out, typically os.Stdout.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Report renders rec and writes it as a single line.
func (c *ConsoleReporter) Report(ctx context.Context, rec Record) error {
	line := Render(rec)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.out, line+"\n"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Render formats rec in the human-readable report layout.
func Render(rec Record) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("betID:'%s'  active:%t  Status:%s  Amount:$%s  %s:[",
		rec.IID, rec.Active, rec.Status, rec.USD.StringFixed(2), rec.Label()))
	for i, leg := range rec.Legs {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(renderLeg(leg))
	}
	builder.WriteString("]")
	return builder.String()
}

func renderLeg(leg stake.Leg) string {
	s := fmt.Sprintf("{odds:%s competitors:%q tournament:%q sport_category:%q sport:%s",
		leg.Odds.String(), leg.Fixture, leg.Tournament, leg.Category, leg.Sport)
	if leg.Market != "" {
		s += fmt.Sprintf(" market:%q", leg.Market)
	}
	return s + "}"
}

var _ Reporter = (*ConsoleReporter)(nil)
