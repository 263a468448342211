// Package instrument handles ticker symbol parsing and validation, and
// carries the built-in catalog of tradable instruments with their themes.
package instrument

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Supported themes. Symbols sharing a theme are considered thematically linked.
const (
	ThemeSemiconductor = "SEMICONDUCTOR"
	ThemeEV            = "EV"
	ThemePlatform      = "PLATFORM"
	ThemeFinance       = "FINANCE"
	ThemeEnergy        = "ENERGY"
	ThemeBio           = "BIO"
	ThemeConsumer      = "CONSUMER"
)

// symbolRegex matches an upper-case ticker: 1-12 chars, letters/digits with
// optional '.' or '-' separators after the first character.
// Example: NVDA, BRK.B, 005930
var symbolRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

var ErrInvalidSymbol = errors.New("instrument: invalid symbol")

// ParseSymbol trims and upper-cases a ticker and validates its format.
func ParseSymbol(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolRegex.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
	}
	return sym, nil
}

// Instrument describes a catalog entry. BasePrice, Drift and Swing
// parameterize the synthetic price series for the symbol.
type Instrument struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Theme     string          `json:"theme"`
	BasePrice decimal.Decimal `json:"base_price"`
	Drift     float64         `json:"drift"` // monthly drift, percent
	Swing     float64         `json:"swing"` // oscillation amplitude, percent
}

var catalog = []Instrument{
	{Symbol: "NVDA", Name: "Nvidia", Theme: ThemeSemiconductor, BasePrice: decimal.NewFromInt(120), Drift: 3.1, Swing: 9},
	{Symbol: "AMD", Name: "Advanced Micro Devices", Theme: ThemeSemiconductor, BasePrice: decimal.NewFromInt(95), Drift: 1.8, Swing: 8},
	{Symbol: "TSM", Name: "Taiwan Semiconductor", Theme: ThemeSemiconductor, BasePrice: decimal.NewFromInt(105), Drift: 1.5, Swing: 5},
	{Symbol: "TSLA", Name: "Tesla", Theme: ThemeEV, BasePrice: decimal.NewFromInt(210), Drift: 0.9, Swing: 14},
	{Symbol: "RIVN", Name: "Rivian", Theme: ThemeEV, BasePrice: decimal.NewFromInt(18), Drift: -1.2, Swing: 16},
	{Symbol: "GOOGL", Name: "Alphabet", Theme: ThemePlatform, BasePrice: decimal.NewFromInt(140), Drift: 1.1, Swing: 4},
	{Symbol: "META", Name: "Meta Platforms", Theme: ThemePlatform, BasePrice: decimal.NewFromInt(330), Drift: 1.6, Swing: 7},
	{Symbol: "JPM", Name: "JPMorgan Chase", Theme: ThemeFinance, BasePrice: decimal.NewFromInt(160), Drift: 0.7, Swing: 3},
	{Symbol: "GS", Name: "Goldman Sachs", Theme: ThemeFinance, BasePrice: decimal.NewFromInt(380), Drift: 0.6, Swing: 4},
	{Symbol: "XOM", Name: "Exxon Mobil", Theme: ThemeEnergy, BasePrice: decimal.NewFromInt(110), Drift: 0.2, Swing: 6},
	{Symbol: "MRNA", Name: "Moderna", Theme: ThemeBio, BasePrice: decimal.NewFromInt(100), Drift: -0.8, Swing: 12},
	{Symbol: "KO", Name: "Coca-Cola", Theme: ThemeConsumer, BasePrice: decimal.NewFromInt(60), Drift: 0.4, Swing: 2},
}

var bySymbol = func() map[string]Instrument {
	m := make(map[string]Instrument, len(catalog))
	for _, in := range catalog {
		m[in.Symbol] = in
	}
	return m
}()

// Catalog returns a copy of the built-in instruments sorted by symbol.
func Catalog() []Instrument {
	out := make([]Instrument, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Lookup returns the catalog entry for a symbol.
func Lookup(symbol string) (Instrument, bool) {
	in, ok := bySymbol[symbol]
	return in, ok
}

// Themes returns symbol → theme for every catalog instrument.
func Themes() map[string]string {
	m := make(map[string]string, len(catalog))
	for _, in := range catalog {
		m[in.Symbol] = in.Theme
	}
	return m
}
