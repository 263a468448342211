// Package model defines the core domain types shared across the simulation engine.
// All monetary values use shopspring/decimal, never float64.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order or transaction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Quote is one symbol's price at a simulation step.
type Quote struct {
	Symbol    string          `json:"symbol" yaml:"symbol"`
	Price     decimal.Decimal `json:"price" yaml:"price"`
	ChangePct float64         `json:"change_pct" yaml:"change_pct"`
}

// Holding is an open position. A holding with zero quantity never exists;
// it is removed from the account instead.
type Holding struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"` // quantity-weighted mean purchase price
}

// Transaction is an immutable record of a filled order.
// Once created, these are never modified or deleted.
type Transaction struct {
	ID          string           `json:"id"`
	Side        Side             `json:"side"`
	Symbol      string           `json:"symbol"`
	Quantity    int64            `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	TotalAmount decimal.Decimal  `json:"total_amount"` // price × quantity
	Step        int              `json:"step"`
	Date        time.Time        `json:"date"`
	AverageCost *decimal.Decimal `json:"average_cost,omitempty"` // SELL only: cost basis per share at sale time
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"` // SELL only
}

// CostBasis returns averageCost × quantity for a SELL, zero otherwise.
func (t Transaction) CostBasis() decimal.Decimal {
	if t.AverageCost == nil {
		return decimal.Zero
	}
	return t.AverageCost.Mul(decimal.NewFromInt(t.Quantity))
}

// Stamp locates a transaction in simulated time.
type Stamp struct {
	Step int
	Date time.Time
}

// Account is a read-only copy of a ledger's state. Transactions are in
// chronological order; holdings are sorted by symbol.
type Account struct {
	Cash         decimal.Decimal `json:"cash"`
	Holdings     []Holding       `json:"holdings"`
	Transactions []Transaction   `json:"transactions"`
}

// Sells returns the SELL transactions in chronological order.
func (a Account) Sells() []Transaction {
	var sells []Transaction
	for _, t := range a.Transactions {
		if t.Side == Sell {
			sells = append(sells, t)
		}
	}
	return sells
}

// Snapshot is the frozen end-of-run state handed to analytics and scoring.
type Snapshot struct {
	Config      SimulationConfig           `json:"config"`
	Account     Account                    `json:"account"`
	LastPrices  map[string]decimal.Decimal `json:"last_prices"`
	FinalValue  decimal.Decimal            `json:"final_value"`
	InitialCash decimal.Decimal            `json:"initial_cash"`
	Steps       int                        `json:"steps"`  // steps actually played
	Months      int                        `json:"months"` // elapsed months, minimum 1
}

// HistoryEntry is the saved summary of one completed run.
type HistoryEntry struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"` // 2006-01-02
	Time          string          `json:"time"` // 15:04:05
	FinalScore    int             `json:"final_score"`
	Grade         string          `json:"grade"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	Profit        decimal.Decimal `json:"profit"`
	Duration      string          `json:"duration"`
	Comment       string          `json:"comment"`
}
