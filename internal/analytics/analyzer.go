// Package analytics computes aggregate performance statistics from a
// completed simulation snapshot and maps them to a letter grade.
//
// Everything here is a pure function of its inputs and safe for
// concurrent use on read-only snapshots.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/model"
)

// BenchmarkMonthlyReturns is the fixed reference market series, in percent
// per month. It is cycled when a run is longer than twelve months.
var BenchmarkMonthlyReturns = []float64{1.2, -0.8, 2.1, 0.6, -1.5, 1.8, 0.9, -0.4, 1.1, 2.3, -1.0, 0.7}

// Stats holds the derived performance figures. Percentages are already
// multiplied by 100 and rounded to two decimals.
type Stats struct {
	FinalValue         decimal.Decimal `json:"final_value"`
	Profit             decimal.Decimal `json:"profit"`
	TotalReturnPct     float64         `json:"total_return_pct"`
	BenchmarkReturnPct float64         `json:"benchmark_return_pct"`
	Outperformance     float64         `json:"outperformance"`

	TotalTrades  int     `json:"total_trades"`
	BuyTrades    int     `json:"buy_trades"`
	SellTrades   int     `json:"sell_trades"`
	WinningSells int     `json:"winning_sells"`
	LosingSells  int     `json:"losing_sells"`
	WinRate      float64 `json:"win_rate"`
	AvgGain      float64 `json:"avg_gain"` // mean % gain over winning sells
	AvgLoss      float64 `json:"avg_loss"` // mean % loss over losing sells, ≤ 0

	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Volatility  float64         `json:"volatility"`
	Sharpe      float64         `json:"sharpe"`

	Months          int     `json:"months"`
	TradesPerMonth  float64 `json:"trades_per_month"`
	DistinctSymbols int     `json:"distinct_symbols"`
}

// Analyze derives Stats from a snapshot.
func Analyze(snap model.Snapshot) Stats {
	s := Stats{
		FinalValue:  snap.FinalValue,
		Profit:      snap.FinalValue.Sub(snap.InitialCash),
		RealizedPnL: decimal.Zero,
		Months:      snap.Months,
	}
	if s.Months < 1 {
		s.Months = 1
	}

	s.TotalReturnPct = ReturnPct(snap.FinalValue, snap.InitialCash)
	s.BenchmarkReturnPct = BenchmarkReturn(s.Months)
	s.Outperformance = round2(s.TotalReturnPct - s.BenchmarkReturnPct)

	symbols := make(map[string]struct{})
	var gains, losses []float64
	for _, t := range snap.Account.Transactions {
		s.TotalTrades++
		symbols[t.Symbol] = struct{}{}
		if t.Side == model.Buy {
			s.BuyTrades++
			continue
		}
		s.SellTrades++
		if t.RealizedPnL == nil {
			continue
		}
		pnl := *t.RealizedPnL
		s.RealizedPnL = s.RealizedPnL.Add(pnl)

		pct := 0.0
		if basis := t.CostBasis(); basis.IsPositive() {
			pct = pnl.Div(basis).Mul(hundred).InexactFloat64()
		}
		switch {
		case pnl.IsPositive():
			s.WinningSells++
			gains = append(gains, pct)
		case pnl.IsNegative():
			s.LosingSells++
			losses = append(losses, pct)
		}
	}
	s.DistinctSymbols = len(symbols)

	if s.SellTrades > 0 {
		s.WinRate = round2(float64(s.WinningSells) / float64(s.SellTrades) * 100)
	}
	s.AvgGain = round2(mean(gains))
	s.AvgLoss = round2(mean(losses))
	s.TradesPerMonth = round2(float64(s.TotalTrades) / float64(s.Months))

	s.Volatility, s.Sharpe = RiskProxy(s.TotalReturnPct)
	return s
}

var hundred = decimal.NewFromInt(100)

// ReturnPct returns (final − initial) / initial × 100, or 0 when initial is
// not positive.
func ReturnPct(final, initial decimal.Decimal) float64 {
	if !initial.IsPositive() {
		return 0
	}
	return round2(final.Sub(initial).Div(initial).Mul(hundred).InexactFloat64())
}

// BenchmarkReturn compounds BenchmarkMonthlyReturns over months, in percent.
func BenchmarkReturn(months int) float64 {
	growth := 1.0
	for i := 0; i < months; i++ {
		r := BenchmarkMonthlyReturns[i%len(BenchmarkMonthlyReturns)]
		growth *= 1 + r/100
	}
	return round2((growth - 1) * 100)
}

// RiskProxy returns the simplified volatility and Sharpe figures:
// volatility = |return| × 0.3 and sharpe = return / max(volatility, 1).
// These are approximations, not a standard deviation of returns.
func RiskProxy(totalReturnPct float64) (volatility, sharpe float64) {
	volatility = math.Abs(totalReturnPct) * 0.3
	sharpe = totalReturnPct / math.Max(volatility, 1)
	return round2(volatility), round2(sharpe)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Round(f*100) / 100
}
