package ledger

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmx/sim-engine/internal/model"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func at(step int) model.Stamp {
	return model.Stamp{Step: step, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, step-1, 0)}
}

// --- Buy ---

func TestBuy_NewHolding(t *testing.T) {
	l := New(d(100000))

	tx, err := l.Buy("AAA", 100, d(100), at(1))
	require.NoError(t, err)

	assert.Equal(t, model.Buy, tx.Side)
	assert.NotEmpty(t, tx.ID)
	assert.True(t, tx.TotalAmount.Equal(d(10000)))
	assert.Nil(t, tx.RealizedPnL, "BUY carries no realized P&L")
	assert.Equal(t, 1, tx.Step)

	assert.True(t, l.Cash().Equal(d(90000)), "cash %s", l.Cash())
	h, ok := l.Holding("AAA")
	require.True(t, ok)
	assert.Equal(t, int64(100), h.Quantity)
	assert.True(t, h.AverageCost.Equal(d(100)))
}

func TestBuy_WeightedAverageCost(t *testing.T) {
	tests := []struct {
		q1, q2 int64
		p1, p2 float64
		want   float64
	}{
		{10, 30, 100, 120, 115},
		{3, 1, 10, 11, 10.25},
		{100, 100, 50, 150, 100},
		{1, 1, 0.01, 0.02, 0.015},
	}
	for _, tt := range tests {
		l := New(d(1_000_000))
		_, err := l.Buy("AAA", tt.q1, d(tt.p1), at(1))
		require.NoError(t, err)
		_, err = l.Buy("AAA", tt.q2, d(tt.p2), at(2))
		require.NoError(t, err)

		h, _ := l.Holding("AAA")
		assert.Equal(t, tt.q1+tt.q2, h.Quantity)
		assert.True(t, h.AverageCost.Equal(d(tt.want)),
			"(%d@%v + %d@%v) avg = %s, want %v", tt.q1, tt.p1, tt.q2, tt.p2, h.AverageCost, tt.want)
	}
}

func TestBuy_ExactCashAllowed(t *testing.T) {
	l := New(d(1000))
	_, err := l.Buy("AAA", 10, d(100), at(1))
	require.NoError(t, err)
	assert.True(t, l.Cash().IsZero())
}

func TestBuy_InsufficientFundsLeavesLedgerUnchanged(t *testing.T) {
	l := New(d(5000))
	_, err := l.Buy("AAA", 10, d(100), at(1))
	require.NoError(t, err)

	before := l.Snapshot()

	_, err = l.Buy("BBB", 50, d(100), at(2))
	assert.True(t, errors.Is(err, ErrInsufficientFunds), "got %v", err)

	_, err = l.Buy("AAA", 41, d(100), at(2))
	assert.True(t, errors.Is(err, ErrInsufficientFunds), "got %v", err)

	assert.Equal(t, before, l.Snapshot())
}

func TestBuy_InvalidOrder(t *testing.T) {
	l := New(d(1000))
	tests := []struct {
		qty   int64
		price float64
	}{
		{0, 10},
		{-1, 10},
		{1, 0},
		{1, -5},
	}
	for _, tt := range tests {
		_, err := l.Buy("AAA", tt.qty, d(tt.price), at(1))
		assert.True(t, errors.Is(err, ErrInvalidOrder), "qty=%d price=%v: %v", tt.qty, tt.price, err)
	}
	assert.Empty(t, l.Transactions())
	assert.True(t, l.Cash().Equal(d(1000)))
}

// --- Sell ---

func TestSell_RealizedPnL(t *testing.T) {
	l := New(d(100000))
	_, err := l.Buy("AAA", 100, d(100), at(1))
	require.NoError(t, err)

	tx, err := l.Sell("AAA", 50, d(150), at(2))
	require.NoError(t, err)

	assert.Equal(t, model.Sell, tx.Side)
	require.NotNil(t, tx.RealizedPnL)
	assert.True(t, tx.RealizedPnL.Equal(d(2500)), "pnl %s", tx.RealizedPnL)
	require.NotNil(t, tx.AverageCost)
	assert.True(t, tx.AverageCost.Equal(d(100)))
	assert.True(t, tx.CostBasis().Equal(d(5000)))
	assert.True(t, tx.TotalAmount.Equal(d(7500)))

	assert.True(t, l.Cash().Equal(d(97500)), "cash %s", l.Cash())
	h, ok := l.Holding("AAA")
	require.True(t, ok)
	assert.Equal(t, int64(50), h.Quantity)
	assert.True(t, h.AverageCost.Equal(d(100)), "average cost is not updated on a sell")
}

func TestSell_LossIsNegative(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 10, d(100), at(1))

	tx, err := l.Sell("AAA", 4, d(80), at(2))
	require.NoError(t, err)
	assert.True(t, tx.RealizedPnL.Equal(d(-80)), "pnl %s", tx.RealizedPnL)
}

func TestSell_AllRemovesHolding(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 10, d(100), at(1))

	_, err := l.Sell("AAA", 10, d(120), at(2))
	require.NoError(t, err)

	_, ok := l.Holding("AAA")
	assert.False(t, ok, "zero-quantity holding must be removed")
	assert.Empty(t, l.Holdings())

	// A later buy starts a fresh average cost.
	_, _ = l.Buy("AAA", 10, d(50), at(3))
	h, _ := l.Holding("AAA")
	assert.True(t, h.AverageCost.Equal(d(50)))
}

func TestSell_RoundTripIsFlat(t *testing.T) {
	start := d(25000)
	l := New(start)
	_, err := l.Buy("AAA", 37, d(123.45), at(1))
	require.NoError(t, err)

	tx, err := l.Sell("AAA", 37, d(123.45), at(1))
	require.NoError(t, err)

	assert.True(t, tx.RealizedPnL.IsZero())
	assert.True(t, l.Cash().Equal(start), "cash %s", l.Cash())
}

func TestSell_InsufficientSharesLeavesLedgerUnchanged(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 10, d(100), at(1))
	before := l.Snapshot()

	_, err := l.Sell("AAA", 11, d(100), at(2))
	assert.True(t, errors.Is(err, ErrInsufficientShares), "got %v", err)

	_, err = l.Sell("ZZZ", 1, d(100), at(2))
	assert.True(t, errors.Is(err, ErrInsufficientShares), "got %v", err)

	assert.Equal(t, before, l.Snapshot())
}

func TestSell_InvalidOrder(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 10, d(100), at(1))

	_, err := l.Sell("AAA", 0, d(100), at(2))
	assert.True(t, errors.Is(err, ErrInvalidOrder))
}

// --- Log ordering ---

func TestTransactions_ChronologicalAndRecentReversed(t *testing.T) {
	l := New(d(100000))
	_, _ = l.Buy("AAA", 1, d(10), at(1))
	_, _ = l.Buy("BBB", 1, d(10), at(2))
	_, _ = l.Sell("AAA", 1, d(12), at(3))

	txs := l.Transactions()
	require.Len(t, txs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{txs[0].Step, txs[1].Step, txs[2].Step})

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].Step)
	assert.Equal(t, 2, recent[1].Step)

	assert.Len(t, l.Recent(0), 3)
	assert.Len(t, l.Recent(10), 3)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 10, d(100), at(1))

	snap := l.Snapshot()
	snap.Holdings[0].Quantity = 999
	snap.Transactions[0].Quantity = 999

	h, _ := l.Holding("AAA")
	assert.Equal(t, int64(10), h.Quantity)
	assert.Equal(t, int64(10), l.Transactions()[0].Quantity)
}

// --- Invariants ---

func TestInvariants_RandomOrderSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	symbols := []string{"AAA", "BBB", "CCC"}
	l := New(d(50000))

	for i := 0; i < 2000; i++ {
		sym := symbols[rng.Intn(len(symbols))]
		qty := int64(rng.Intn(60) + 1)
		price := decimal.NewFromInt(int64(rng.Intn(400) + 1))
		if rng.Intn(2) == 0 {
			_, _ = l.Buy(sym, qty, price, at(i+1))
		} else {
			_, _ = l.Sell(sym, qty, price, at(i+1))
		}

		require.False(t, l.Cash().IsNegative(), "cash went negative at op %d", i)
		for _, h := range l.Holdings() {
			require.Greater(t, h.Quantity, int64(0), "op %d left %s at %d", i, h.Symbol, h.Quantity)
		}
	}
}
