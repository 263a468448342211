package correlation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

var testThemes = map[string]string{
	"NVDA": "SEMICONDUCTOR",
	"AMD":  "SEMICONDUCTOR",
	"TSM":  "SEMICONDUCTOR",
	"TSLA": "EV",
	"RIVN": "EV",
	"KO":   "CONSUMER",
}

func TestStrongest_NoVolume(t *testing.T) {
	g := NewThemeGrouper(testThemes)

	l := g.Strongest(nil)
	assert.False(t, l.Linked())
	assert.True(t, l.Share.IsZero())
}

func TestStrongest_SingleSymbolThemeIsNotLinked(t *testing.T) {
	g := NewThemeGrouper(testThemes)

	l := g.Strongest(map[string]decimal.Decimal{
		"NVDA": d(1000),
		"KO":   d(1000),
	})
	assert.False(t, l.Linked())
	assert.Equal(t, "", l.Theme)
}

func TestStrongest_PicksHighestVolumeCluster(t *testing.T) {
	g := NewThemeGrouper(testThemes)

	l := g.Strongest(map[string]decimal.Decimal{
		"NVDA": d(3000),
		"AMD":  d(1000),
		"TSLA": d(2000),
		"RIVN": d(1000),
		"KO":   d(3000),
	})
	assert.True(t, l.Linked())
	assert.Equal(t, "SEMICONDUCTOR", l.Theme)
	assert.Equal(t, []string{"AMD", "NVDA"}, l.Symbols)
	assert.True(t, l.Volume.Equal(d(4000)), "volume %s", l.Volume)
	// 4000 / 10000
	assert.True(t, l.Share.Equal(d(0.4)), "share %s", l.Share)
}

func TestStrongest_UnknownSymbolsCountTowardTotal(t *testing.T) {
	g := NewThemeGrouper(testThemes)

	l := g.Strongest(map[string]decimal.Decimal{
		"NVDA":  d(500),
		"TSM":   d(500),
		"OTHER": d(1000),
	})
	assert.Equal(t, "SEMICONDUCTOR", l.Theme)
	assert.True(t, l.Share.Equal(d(0.5)), "share %s", l.Share)
}

func TestStrongest_TieBreaksOnThemeName(t *testing.T) {
	g := NewThemeGrouper(testThemes)

	l := g.Strongest(map[string]decimal.Decimal{
		"NVDA": d(100),
		"AMD":  d(100),
		"TSLA": d(100),
		"RIVN": d(100),
	})
	assert.Equal(t, "EV", l.Theme)
}

func TestStrongest_IgnoresNonPositiveVolume(t *testing.T) {
	g := NewThemeGrouper(testThemes)

	l := g.Strongest(map[string]decimal.Decimal{
		"NVDA": d(100),
		"AMD":  d(0),
		"TSM":  d(-50),
	})
	assert.False(t, l.Linked())
}

func TestThemeGrouper_CopiesTable(t *testing.T) {
	themes := map[string]string{"NVDA": "SEMICONDUCTOR"}
	g := NewThemeGrouper(themes)
	themes["NVDA"] = "CHANGED"

	assert.Equal(t, "SEMICONDUCTOR", g.Theme("NVDA"))
	assert.Equal(t, "", g.Theme("UNKNOWN"))
}
