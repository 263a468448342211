// Package ledger implements the simulated trading account: cash balance,
// per-symbol holdings at average cost, and an append-only transaction log.
//
// All monetary values use shopspring/decimal, never float64.
//
// A Ledger is single-writer. It does no locking of its own; the owner
// (the simulation driver) must serialize Buy and Sell calls.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/model"
)

var (
	// ErrInsufficientFunds is returned when a buy costs more than the
	// available cash. There are no partial fills.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrInsufficientShares is returned when selling a symbol that is not
	// held, or more shares than are held.
	ErrInsufficientShares = errors.New("ledger: insufficient shares")

	// ErrInvalidOrder is returned for non-positive quantity or price.
	ErrInvalidOrder = errors.New("ledger: quantity and price must be positive")
)

// Ledger is the mutable cash + holdings + transaction-log state of one
// simulated account.
type Ledger struct {
	cash         decimal.Decimal
	holdings     map[string]*model.Holding
	transactions []model.Transaction // chronological
	newID        func() string
}

// New creates a ledger funded with initial cash and no holdings.
func New(initialCash decimal.Decimal) *Ledger {
	return &Ledger{
		cash:     initialCash,
		holdings: make(map[string]*model.Holding),
		newID:    func() string { return uuid.New().String() },
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Buy purchases quantity shares at price. On success cash decreases by
// price × quantity and the holding's average cost becomes the
// quantity-weighted mean of the old position and the new lot.
// The ledger is untouched on failure.
func (l *Ledger) Buy(symbol string, quantity int64, price decimal.Decimal, at model.Stamp) (model.Transaction, error) {
	if quantity <= 0 || !price.IsPositive() {
		return model.Transaction{}, ErrInvalidOrder
	}

	qty := decimal.NewFromInt(quantity)
	cost := price.Mul(qty)
	if cost.GreaterThan(l.cash) {
		return model.Transaction{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost, l.cash)
	}

	l.cash = l.cash.Sub(cost)

	h, ok := l.holdings[symbol]
	if !ok {
		l.holdings[symbol] = &model.Holding{
			Symbol:      symbol,
			Quantity:    quantity,
			AverageCost: price,
		}
	} else {
		// newAvg = (oldAvg × oldQty + cost) / (oldQty + qty)
		oldQty := decimal.NewFromInt(h.Quantity)
		h.AverageCost = h.AverageCost.Mul(oldQty).Add(cost).Div(oldQty.Add(qty))
		h.Quantity += quantity
	}

	tx := model.Transaction{
		ID:          l.newID(),
		Side:        model.Buy,
		Symbol:      symbol,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: cost,
		Step:        at.Step,
		Date:        at.Date,
	}
	l.transactions = append(l.transactions, tx)
	return tx, nil
}

// Sell disposes of quantity shares at price, realizing
// (price − averageCost) × quantity. A holding sold down to zero is removed
// along with its average cost. The ledger is untouched on failure.
func (l *Ledger) Sell(symbol string, quantity int64, price decimal.Decimal, at model.Stamp) (model.Transaction, error) {
	if quantity <= 0 || !price.IsPositive() {
		return model.Transaction{}, ErrInvalidOrder
	}

	h, ok := l.holdings[symbol]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: no position in %s", ErrInsufficientShares, symbol)
	}
	if quantity > h.Quantity {
		return model.Transaction{}, fmt.Errorf("%w: hold %d %s, asked to sell %d",
			ErrInsufficientShares, h.Quantity, symbol, quantity)
	}

	qty := decimal.NewFromInt(quantity)
	revenue := price.Mul(qty)
	avgCost := h.AverageCost
	pnl := price.Sub(avgCost).Mul(qty)

	l.cash = l.cash.Add(revenue)
	h.Quantity -= quantity
	if h.Quantity == 0 {
		delete(l.holdings, symbol)
	}

	tx := model.Transaction{
		ID:          l.newID(),
		Side:        model.Sell,
		Symbol:      symbol,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: revenue,
		Step:        at.Step,
		Date:        at.Date,
		AverageCost: &avgCost,
		RealizedPnL: &pnl,
	}
	l.transactions = append(l.transactions, tx)
	return tx, nil
}

// Holding returns a copy of the open position in symbol.
func (l *Ledger) Holding(symbol string) (model.Holding, bool) {
	h, ok := l.holdings[symbol]
	if !ok {
		return model.Holding{}, false
	}
	return *h, true
}

// Holdings returns copies of all open positions sorted by symbol.
func (l *Ledger) Holdings() []model.Holding {
	out := make([]model.Holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Transactions returns the log in chronological order.
func (l *Ledger) Transactions() []model.Transaction {
	out := make([]model.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Recent returns up to n transactions, newest first. n <= 0 returns all.
func (l *Ledger) Recent(n int) []model.Transaction {
	if n <= 0 || n > len(l.transactions) {
		n = len(l.transactions)
	}
	out := make([]model.Transaction, 0, n)
	for i := len(l.transactions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.transactions[i])
	}
	return out
}

// Snapshot returns a deep copy of the ledger state.
func (l *Ledger) Snapshot() model.Account {
	return model.Account{
		Cash:         l.cash,
		Holdings:     l.Holdings(),
		Transactions: l.Transactions(),
	}
}
