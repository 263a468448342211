// Package correlation groups traded symbols into thematic clusters.
//
// A trader who concentrates volume in several semiconductor names is acting on
// a theme rather than on isolated tickers. This package detects that pattern:
// symbols that share a theme are considered linked, and the strongest linked
// cluster is reported together with its share of total traded volume.
package correlation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ThemeGrouper maps symbols to themes.
//
// Unknown symbols belong to no theme and are never linked to anything;
// they still count toward total volume.
type ThemeGrouper struct {
	themes map[string]string
}

// NewThemeGrouper creates a grouper over a symbol → theme table.
func NewThemeGrouper(themes map[string]string) *ThemeGrouper {
	m := make(map[string]string, len(themes))
	for sym, theme := range themes {
		m[sym] = theme
	}
	return &ThemeGrouper{themes: m}
}

// Theme returns the theme of a symbol, or "" when unknown.
func (g *ThemeGrouper) Theme(symbol string) string {
	return g.themes[symbol]
}

// Linkage describes the strongest cluster of thematically-linked symbols.
type Linkage struct {
	Theme   string          `json:"theme"`
	Symbols []string        `json:"symbols"` // sorted
	Volume  decimal.Decimal `json:"volume"`
	Share   decimal.Decimal `json:"share"` // Volume / total volume, in [0, 1]
}

// Linked reports whether at least two symbols share the theme.
func (l Linkage) Linked() bool {
	return len(l.Symbols) >= 2
}

// Strongest returns the theme cluster with the highest volume among clusters
// containing at least two distinct traded symbols. Ties break on theme name.
// volumes maps symbol → traded notional; non-positive entries are ignored.
func (g *ThemeGrouper) Strongest(volumes map[string]decimal.Decimal) Linkage {
	total := decimal.Zero
	byTheme := make(map[string]*Linkage)

	for sym, v := range volumes {
		if !v.IsPositive() {
			continue
		}
		total = total.Add(v)

		theme := g.themes[sym]
		if theme == "" {
			continue
		}
		l, ok := byTheme[theme]
		if !ok {
			l = &Linkage{Theme: theme}
			byTheme[theme] = l
		}
		l.Symbols = append(l.Symbols, sym)
		l.Volume = l.Volume.Add(v)
	}

	var best *Linkage
	for _, l := range byTheme {
		if !l.Linked() {
			continue
		}
		if best == nil ||
			l.Volume.GreaterThan(best.Volume) ||
			(l.Volume.Equal(best.Volume) && l.Theme < best.Theme) {
			best = l
		}
	}
	if best == nil || total.IsZero() {
		return Linkage{Volume: decimal.Zero, Share: decimal.Zero}
	}

	sort.Strings(best.Symbols)
	best.Share = best.Volume.Div(total)
	return *best
}
