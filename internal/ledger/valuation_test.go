package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuate_Scenario(t *testing.T) {
	l := New(d(100000))
	_, err := l.Buy("AAA", 100, d(100), at(1))
	require.NoError(t, err)
	_, err = l.Sell("AAA", 50, d(150), at(2))
	require.NoError(t, err)

	prices := PriceMap(map[string]decimal.Decimal{"AAA": d(150)})
	v := l.Valuate(prices)
	assert.True(t, v.Equal(d(105000)), "value %s", v)
}

func TestValuate_Idempotent(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 7, d(101.5), at(1))
	_, _ = l.Buy("BBB", 3, d(33.33), at(1))
	prices := PriceMap(map[string]decimal.Decimal{"AAA": d(99.1), "BBB": d(40)})

	first := l.Valuate(prices)
	second := l.Valuate(prices)
	assert.True(t, first.Equal(second))
}

func TestValuate_FallsBackToAverageCost(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 10, d(100), at(1))
	_, _ = l.Buy("BBB", 10, d(50), at(1))

	// No price for BBB: marked at its average cost, not zero.
	prices := PriceMap(map[string]decimal.Decimal{"AAA": d(120)})
	v := l.Valuate(prices)
	// cash 8500 + 10×120 + 10×50
	assert.True(t, v.Equal(d(10200)), "value %s", v)

	assert.True(t, l.Valuate(nil).Equal(d(10000)))
}

func TestPositions_MarkToMarket(t *testing.T) {
	l := New(d(10000))
	_, _ = l.Buy("AAA", 10, d(100), at(1))
	_, _ = l.Buy("BBB", 4, d(25), at(1))

	pos := l.Positions(PriceMap(map[string]decimal.Decimal{"AAA": d(90)}))
	require.Len(t, pos, 2)

	assert.Equal(t, "AAA", pos[0].Symbol)
	assert.True(t, pos[0].MarketValue.Equal(d(900)))
	assert.True(t, pos[0].UnrealizedPnL.Equal(d(-100)))
	assert.False(t, pos[0].Stale)

	assert.Equal(t, "BBB", pos[1].Symbol)
	assert.True(t, pos[1].Stale)
	assert.True(t, pos[1].UnrealizedPnL.IsZero())
}
