package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/model"
)

// PriceLookup returns the current price of a symbol, or false when no
// price is available.
type PriceLookup func(symbol string) (decimal.Decimal, bool)

// PriceMap adapts a symbol → price map to a PriceLookup.
func PriceMap(prices map[string]decimal.Decimal) PriceLookup {
	return func(symbol string) (decimal.Decimal, bool) {
		p, ok := prices[symbol]
		return p, ok
	}
}

// Valuate returns cash + Σ quantity × price. A holding without a current
// price is marked at its average cost rather than at zero.
func (l *Ledger) Valuate(prices PriceLookup) decimal.Decimal {
	total := l.cash
	for _, h := range l.holdings {
		p, _ := markPrice(h, prices)
		total = total.Add(p.Mul(decimal.NewFromInt(h.Quantity)))
	}
	return total
}

// Position is a holding marked to market.
type Position struct {
	model.Holding
	Price         decimal.Decimal `json:"price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"` // (price − averageCost) × quantity
	Stale         bool            `json:"stale,omitempty"` // marked at average cost
}

// Positions marks every holding to market, sorted by symbol.
func (l *Ledger) Positions(prices PriceLookup) []Position {
	return MarkPositions(l.Holdings(), prices)
}

// MarkPositions marks a list of holdings, such as a snapshot's, to market.
// Order follows the input.
func MarkPositions(holdings []model.Holding, prices PriceLookup) []Position {
	out := make([]Position, 0, len(holdings))
	for i := range holdings {
		h := holdings[i]
		p, fresh := markPrice(&h, prices)
		qty := decimal.NewFromInt(h.Quantity)
		out = append(out, Position{
			Holding:       h,
			Price:         p,
			MarketValue:   p.Mul(qty),
			UnrealizedPnL: p.Sub(h.AverageCost).Mul(qty),
			Stale:         !fresh,
		})
	}
	return out
}

func markPrice(h *model.Holding, prices PriceLookup) (decimal.Decimal, bool) {
	if prices != nil {
		if p, ok := prices(h.Symbol); ok && p.IsPositive() {
			return p, true
		}
	}
	return h.AverageCost, false
}
