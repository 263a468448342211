// Package report combines performance statistics, the grade and the
// behavioral profile of a completed run into a single plain-data Report.
package report

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/analytics"
	"github.com/atmx/sim-engine/internal/behavior"
	"github.com/atmx/sim-engine/internal/ledger"
	"github.com/atmx/sim-engine/internal/model"
)

// Overview is the headline performance of a run.
type Overview struct {
	InitialCash        decimal.Decimal `json:"initial_cash"`
	FinalValue         decimal.Decimal `json:"final_value"`
	Profit             decimal.Decimal `json:"profit"`
	ReturnPct          float64         `json:"return_pct"`
	BenchmarkReturnPct float64         `json:"benchmark_return_pct"`
	Outperformance     float64         `json:"outperformance"`
	Steps              int             `json:"steps"`
	Months             int             `json:"months"`
}

// TradeStats summarises the transaction log.
type TradeStats struct {
	TotalTrades    int             `json:"total_trades"`
	BuyTrades      int             `json:"buy_trades"`
	SellTrades     int             `json:"sell_trades"`
	WinRate        float64         `json:"win_rate"`
	AvgGain        float64         `json:"avg_gain"`
	AvgLoss        float64         `json:"avg_loss"`
	RealizedPnL    decimal.Decimal `json:"realized_pnl"`
	TradesPerMonth float64         `json:"trades_per_month"`
}

// Risk carries the simplified risk proxies.
type Risk struct {
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
}

// Report is the rendered result of one run. It has no behavior; consumers
// treat it as plain data. All float fields are finite.
type Report struct {
	Currency          string            `json:"currency"`
	Grade             analytics.Grade   `json:"grade"`
	Overview          Overview          `json:"overview"`
	TradeStats        TradeStats        `json:"trade_stats"`
	Risk              Risk              `json:"risk"`
	BehavioralProfile behavior.Profile  `json:"behavioral_profile"`
	Holdings          []ledger.Position `json:"holdings"`
	Narrative         []string          `json:"narrative"`
}

// Builder produces reports. It holds no per-run state and is safe for
// concurrent use.
type Builder struct {
	profiler *behavior.Profiler
	currency string
}

// NewBuilder creates a Builder. currency is an ISO 4217 code used for
// money amounts in the narrative.
func NewBuilder(profiler *behavior.Profiler, currency string) *Builder {
	if profiler == nil {
		profiler = behavior.NewProfiler(nil)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Builder{profiler: profiler, currency: currency}
}

// Build derives the report for a frozen snapshot.
func (b *Builder) Build(snap model.Snapshot) Report {
	stats := analytics.Analyze(snap)
	profile := b.profiler.Score(snap, stats)

	r := Report{
		Currency: b.currency,
		Grade:    analytics.GradeFor(stats.TotalReturnPct, stats.Sharpe),
		Overview: Overview{
			InitialCash:        snap.InitialCash,
			FinalValue:         stats.FinalValue,
			Profit:             stats.Profit,
			ReturnPct:          finite(stats.TotalReturnPct),
			BenchmarkReturnPct: finite(stats.BenchmarkReturnPct),
			Outperformance:     finite(stats.Outperformance),
			Steps:              snap.Steps,
			Months:             stats.Months,
		},
		TradeStats: TradeStats{
			TotalTrades:    stats.TotalTrades,
			BuyTrades:      stats.BuyTrades,
			SellTrades:     stats.SellTrades,
			WinRate:        finite(stats.WinRate),
			AvgGain:        finite(stats.AvgGain),
			AvgLoss:        finite(stats.AvgLoss),
			RealizedPnL:    stats.RealizedPnL,
			TradesPerMonth: finite(stats.TradesPerMonth),
		},
		Risk: Risk{
			Volatility: finite(stats.Volatility),
			Sharpe:     finite(stats.Sharpe),
		},
		BehavioralProfile: profile,
		Holdings:          ledger.MarkPositions(snap.Account.Holdings, ledger.PriceMap(snap.LastPrices)),
	}
	r.Narrative = b.narrate(r)
	return r
}

func (b *Builder) narrate(r Report) []string {
	o := r.Overview
	lines := []string{
		fmt.Sprintf("Over %s you turned %s into %s, a %s return (%.2f%%).",
			Duration(o.Months),
			FormatMoney(o.InitialCash, b.currency),
			FormatMoney(o.FinalValue, b.currency),
			FormatSignedMoney(o.Profit, b.currency),
			o.ReturnPct),
	}

	switch {
	case o.Outperformance > 0:
		lines = append(lines, fmt.Sprintf("You beat the benchmark (%.2f%%) by %.2f percentage points.", o.BenchmarkReturnPct, o.Outperformance))
	case o.Outperformance < 0:
		lines = append(lines, fmt.Sprintf("You trailed the benchmark (%.2f%%) by %.2f percentage points.", o.BenchmarkReturnPct, -o.Outperformance))
	default:
		lines = append(lines, fmt.Sprintf("You matched the benchmark return of %.2f%%.", o.BenchmarkReturnPct))
	}

	if t := r.TradeStats; t.SellTrades > 0 {
		lines = append(lines, fmt.Sprintf("%d of your %d sells were profitable (win rate %.1f%%), realizing %s.",
			int(math.Round(t.WinRate*float64(t.SellTrades)/100)), t.SellTrades, t.WinRate,
			FormatSignedMoney(t.RealizedPnL, b.currency)))
	}

	p := r.BehavioralProfile
	lines = append(lines, fmt.Sprintf("Grade %s (%s): %s", r.Grade.Letter, r.Grade.Label, r.Grade.Description))
	lines = append(lines, fmt.Sprintf("Your investor type is %s. %s", p.InvestorType.Label, p.InvestorType.Description))
	for _, trait := range []string{p.PrimaryTrait, p.SecondaryTrait} {
		for _, ts := range p.TraitScores {
			if ts.Type == trait {
				lines = append(lines, ts.Insight)
				break
			}
		}
	}
	if next := p.InvestorType.Roadmap.ShortTerm; len(next) > 0 {
		lines = append(lines, "Next step: "+next[0])
	}
	return lines
}

// Duration renders a month count as "1 month" or "N months".
func Duration(months int) string {
	if months == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
