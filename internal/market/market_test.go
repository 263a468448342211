package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmx/sim-engine/internal/instrument"
	"github.com/atmx/sim-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func q(sym string, price float64) model.Quote {
	return model.Quote{Symbol: sym, Price: d(price)}
}

func TestTable_StepsAreOneBased(t *testing.T) {
	tbl := NewTable([][]model.Quote{
		{q("AAA", 10)},
		{q("AAA", 11)},
	})

	assert.Equal(t, 2, tbl.Len())
	assert.Nil(t, tbl.Quotes(0))
	assert.Nil(t, tbl.Quotes(3))

	s1 := tbl.Quotes(1)
	require.Len(t, s1, 1)
	assert.True(t, s1[0].Price.Equal(d(10)))
}

func TestTable_FillsChangePct(t *testing.T) {
	tbl := NewTable([][]model.Quote{
		{q("BBB", 50), q("AAA", 100)},
		{q("AAA", 150), q("BBB", 45)},
	})

	s2 := tbl.Quotes(2)
	require.Len(t, s2, 2)
	assert.Equal(t, "AAA", s2[0].Symbol, "quotes sorted by symbol")
	assert.Equal(t, 50.0, s2[0].ChangePct)
	assert.Equal(t, -10.0, s2[1].ChangePct)

	s1 := tbl.Quotes(1)
	assert.Equal(t, 0.0, s1[0].ChangePct)
}

func TestTable_KeepsExplicitChangePct(t *testing.T) {
	tbl := NewTable([][]model.Quote{
		{q("AAA", 100)},
		{{Symbol: "AAA", Price: d(110), ChangePct: 7.5}},
	})
	assert.Equal(t, 7.5, tbl.Quotes(2)[0].ChangePct)
}

func TestTable_ReturnsCopies(t *testing.T) {
	tbl := NewTable([][]model.Quote{{q("AAA", 100)}})

	got := tbl.Quotes(1)
	got[0].Price = d(1)

	assert.True(t, tbl.Quotes(1)[0].Price.Equal(d(100)))
}

func TestSynthetic_DeterministicAndTotal(t *testing.T) {
	src := NewSynthetic(instrument.Catalog())
	other := NewSynthetic(instrument.Catalog())

	for step := 1; step <= 48; step++ {
		a := src.Quotes(step)
		b := other.Quotes(step)
		require.Len(t, a, len(instrument.Catalog()))
		for i := range a {
			assert.Equal(t, a[i].Symbol, b[i].Symbol)
			assert.True(t, a[i].Price.Equal(b[i].Price), "step %d %s", step, a[i].Symbol)
			assert.True(t, a[i].Price.IsPositive(), "step %d %s", step, a[i].Symbol)
		}
	}
	assert.Nil(t, src.Quotes(0))
}

func TestSynthetic_FirstStepHasNoChange(t *testing.T) {
	src := NewSynthetic(instrument.Catalog())
	for _, quote := range src.Quotes(1) {
		assert.Equal(t, 0.0, quote.ChangePct, quote.Symbol)
	}
}
