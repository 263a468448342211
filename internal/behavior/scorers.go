// Package behavior classifies a completed run's trading behavior into trait
// scores, an investor type with a roadmap, and a conceptualization level.
//
// Every scorer is a pure function of the snapshot and its statistics.
// Identical inputs always produce identical profiles.
package behavior

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/analytics"
	"github.com/atmx/sim-engine/internal/model"
)

// Trait labels.
const (
	Concentrated = "Concentrated"
	Balanced     = "Balanced"
	Diversified  = "Diversified"
	Active       = "Active"
	Deliberate   = "Deliberate"
	Analytical   = "Analytical"
	Intuitive    = "Intuitive"
	Exploratory  = "Exploratory"
	Swing        = "Swing"
	BuyAndHold   = "Buy-and-hold"
	Aggressive   = "Aggressive"
	Conservative = "Conservative"
)

// TraitScore is one scorer's verdict.
type TraitScore struct {
	Dimension string   `json:"dimension"`
	Type      string   `json:"type"`
	Score     int      `json:"score"` // 0-100
	Insight   string   `json:"insight"`
	Evidence  []string `json:"evidence"`
}

// Input is what every scorer sees.
type Input struct {
	Snapshot model.Snapshot
	Stats    analytics.Stats
}

// Scorer produces one trait score.
type Scorer func(Input) TraitScore

// battery is the fixed scorer order; it is also the tie-break order.
var battery = []Scorer{
	ScoreConcentration,
	ScoreActionStyle,
	ScoreDecisionStyle,
	ScoreMarketApproach,
	ScoreRiskTolerance,
}

// ScoreConcentration looks at the largest symbol's share of shares held.
// With no open positions left, shares bought over the run are used instead.
func ScoreConcentration(in Input) TraitScore {
	shares := make(map[string]int64)
	for _, h := range in.Snapshot.Account.Holdings {
		shares[h.Symbol] += h.Quantity
	}
	basis := "shares held at the end"
	if len(shares) == 0 {
		basis = "shares bought during the run"
		for _, t := range in.Snapshot.Account.Transactions {
			if t.Side == model.Buy {
				shares[t.Symbol] += t.Quantity
			}
		}
	}

	ts := TraitScore{Dimension: "concentration"}
	if len(shares) == 0 {
		ts.Type = Balanced
		ts.Score = 40
		ts.Insight = "No positions were opened, so concentration could not be measured."
		ts.Evidence = []string{"0 symbols traded"}
		return ts
	}

	var total, largest int64
	var top string
	for sym, q := range shares {
		total += q
		if q > largest || (q == largest && sym < top) {
			largest, top = q, sym
		}
	}
	share := float64(largest) / float64(total)
	ts.Evidence = []string{
		fmt.Sprintf("%d distinct symbols by %s", len(shares), basis),
		fmt.Sprintf("largest position %s is %.0f%% of shares", top, share*100),
	}

	switch {
	case len(shares) <= 2 || share >= 0.6:
		ts.Type = Concentrated
		ts.Score = clamp(60 + int(share*40))
		ts.Insight = fmt.Sprintf("You bet heavily on a few names, led by %s. Conviction pays when you are right and hurts when you are not.", top)
	case len(shares) >= 4 && share <= 0.35:
		ts.Type = Diversified
		ts.Score = clamp(60 + min(len(shares), 10)*4)
		ts.Insight = "You spread capital across many symbols, limiting the damage any single mistake can do."
	default:
		ts.Type = Balanced
		ts.Score = 55
		ts.Insight = "Your portfolio mixes a core position with smaller satellite holdings."
	}
	return ts
}

// ScoreActionStyle looks at trades per elapsed month.
func ScoreActionStyle(in Input) TraitScore {
	tpm := in.Stats.TradesPerMonth
	ts := TraitScore{
		Dimension: "action",
		Evidence: []string{
			fmt.Sprintf("%d trades over %d months", in.Stats.TotalTrades, in.Stats.Months),
			fmt.Sprintf("%.2f trades per month", tpm),
		},
	}
	switch {
	case tpm >= 4:
		ts.Type = Active
		ts.Score = clamp(60 + int(tpm*5))
		ts.Insight = "You trade often and react quickly to price moves."
	case tpm >= 1.5:
		ts.Type = Balanced
		ts.Score = 55
		ts.Insight = "You trade at a measured pace, acting when something changes."
	default:
		ts.Type = Deliberate
		ts.Score = clamp(60 + int((1.5-tpm)*20))
		ts.Insight = "You act rarely and let positions play out."
	}
	return ts
}

// ScoreDecisionStyle looks at win rate and absolute return.
func ScoreDecisionStyle(in Input) TraitScore {
	st := in.Stats
	absRet := math.Abs(st.TotalReturnPct)
	ts := TraitScore{
		Dimension: "decision",
		Evidence: []string{
			fmt.Sprintf("win rate %.1f%% over %d sells", st.WinRate, st.SellTrades),
			fmt.Sprintf("total return %.2f%%", st.TotalReturnPct),
		},
	}
	switch {
	case st.SellTrades == 0:
		ts.Type = Exploratory
		ts.Score = 45
		ts.Insight = "You never closed a position, so your decision quality is still untested."
	case st.WinRate >= 70:
		ts.Type = Analytical
		ts.Score = clamp(70 + int(st.WinRate-70))
		ts.Insight = "Most of your exits were profitable, a sign of planned entries and exits."
	case st.WinRate < 40 && absRet >= 10:
		ts.Type = Intuitive
		ts.Score = clamp(min(65+int(absRet/2), 95))
		ts.Insight = "Your results swing widely despite a low hit rate; you follow instinct more than a plan."
	default:
		ts.Type = Balanced
		ts.Score = 50
		ts.Insight = "You mix research with gut feeling."
	}
	return ts
}

// ScoreMarketApproach looks at the ratio of profitable sells to all sells.
func ScoreMarketApproach(in Input) TraitScore {
	st := in.Stats
	ts := TraitScore{Dimension: "market"}
	if st.SellTrades == 0 {
		ts.Type = BuyAndHold
		ts.Score = 75
		ts.Insight = "You bought and held, leaving the market to do the work."
		ts.Evidence = []string{"no positions sold"}
		return ts
	}

	ratio := float64(st.WinningSells) / float64(st.SellTrades)
	ts.Evidence = []string{fmt.Sprintf("%d of %d sells profitable", st.WinningSells, st.SellTrades)}
	if ratio >= 0.6 && st.SellTrades >= 3 {
		ts.Type = Swing
		ts.Score = clamp(min(60+st.SellTrades*3, 95))
		ts.Insight = "You repeatedly took profits on upswings."
		return ts
	}
	ts.Type = Balanced
	ts.Score = 50
	ts.Insight = "You hold core positions and trade around them occasionally."
	return ts
}

// ScoreRiskTolerance combines return magnitude with win rate.
func ScoreRiskTolerance(in Input) TraitScore {
	st := in.Stats
	absRet := math.Abs(st.TotalReturnPct)
	ts := TraitScore{
		Dimension: "risk",
		Evidence: []string{
			fmt.Sprintf("return magnitude %.2f%%", absRet),
			fmt.Sprintf("win rate %.1f%%", st.WinRate),
		},
	}
	switch {
	case st.TotalTrades == 0:
		ts.Type = Exploratory
		ts.Score = 40
		ts.Insight = "You stayed in cash; your risk appetite is still unknown."
	case absRet >= 20:
		ts.Type = Aggressive
		ts.Score = 65 + int(absRet/2)
		if st.WinRate < 50 {
			ts.Score += 5
		}
		ts.Score = clamp(ts.Score)
		ts.Insight = "You accept large swings in pursuit of large gains."
	case absRet < 5 && (st.WinRate >= 50 || st.SellTrades == 0):
		ts.Type = Conservative
		ts.Score = 70
		ts.Insight = "You protected capital and kept drawdowns small."
	default:
		ts.Type = Balanced
		ts.Score = 55
		ts.Insight = "You take moderate risk for moderate reward."
	}
	return ts
}

// buyNotional sums price × quantity bought per symbol.
func buyNotional(txs []model.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Side == model.Buy {
			out[t.Symbol] = out[t.Symbol].Add(t.TotalAmount)
		}
	}
	return out
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
