// Package market supplies price quotes per simulation step.
//
// A Source is a pure lookup table indexed by step: asking twice for the
// same step returns the same quotes. Steps are 1-based.
package market

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/model"
)

// Source returns the quotes available at a step. An unknown step yields
// an empty list, never an error.
type Source interface {
	Quotes(step int) []model.Quote
}

// Table is a Source backed by explicit per-step quote lists.
// Index 0 of the underlying slice holds step 1.
type Table struct {
	steps [][]model.Quote
}

// NewTable copies steps into a Table, sorting each step by symbol and
// filling ChangePct from the previous step's price when it was left zero.
func NewTable(steps [][]model.Quote) *Table {
	t := &Table{steps: make([][]model.Quote, len(steps))}
	prev := make(map[string]decimal.Decimal)

	for i, qs := range steps {
		row := make([]model.Quote, len(qs))
		copy(row, qs)
		sort.Slice(row, func(a, b int) bool { return row[a].Symbol < row[b].Symbol })

		for j := range row {
			q := &row[j]
			if p, ok := prev[q.Symbol]; ok && q.ChangePct == 0 && p.IsPositive() {
				q.ChangePct = q.Price.Sub(p).Div(p).Mul(hundred).Round(2).InexactFloat64()
			}
		}
		for _, q := range row {
			prev[q.Symbol] = q.Price
		}
		t.steps[i] = row
	}
	return t
}

var hundred = decimal.NewFromInt(100)

// Len returns the number of steps in the table.
func (t *Table) Len() int {
	return len(t.steps)
}

// Quotes implements Source.
func (t *Table) Quotes(step int) []model.Quote {
	if step < 1 || step > len(t.steps) {
		return nil
	}
	out := make([]model.Quote, len(t.steps[step-1]))
	copy(out, t.steps[step-1])
	return out
}
