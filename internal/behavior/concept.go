package behavior

import (
	"fmt"

	"github.com/atmx/sim-engine/internal/analytics"
	"github.com/atmx/sim-engine/internal/correlation"
	"github.com/atmx/sim-engine/internal/model"
)

// MaxConceptScore is the top of the conceptualization point scale.
const MaxConceptScore = 70

// Conceptualization estimates how structurally informed the trading
// pattern appears to be.
type Conceptualization struct {
	Score           int      `json:"score"` // 0-70
	Level           int      `json:"level"` // 1-5
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`

	ThematicPoints     int `json:"thematic_points"`      // 0-25
	ProfitTakingPoints int `json:"profit_taking_points"` // 0-25
	ConsistencyPoints  int `json:"consistency_points"`   // 0-20

	LinkedTheme   string   `json:"linked_theme,omitempty"`
	LinkedSymbols []string `json:"linked_symbols,omitempty"`
}

type conceptLevel struct {
	minScore        int
	title           string
	description     string
	recommendations []string
}

// levels are ordered from highest; the first with score ≥ minScore wins.
var levels = []conceptLevel{
	{56, "Systems Strategist", "Trades follow a coherent thesis across linked companies, with regular and consistent profit taking.", []string{
		"Stress-test your thesis against a market downturn.",
		"Document the causal chain behind each theme you trade.",
		"Mentor yourself with a post-mortem after every run.",
	}},
	{42, "Structural Thinker", "You connect companies through shared themes and harvest gains deliberately.", []string{
		"Extend your theme to suppliers and customers of your core names.",
		"Set explicit profit targets per theme.",
		"Track how macro events move your theme.",
	}},
	{28, "Theme Connector", "Some trades cluster around a theme, and you take profits at times.", []string{
		"Pick one theme and follow its leaders for a full cycle.",
		"Sell in stages rather than all at once.",
		"Compare your theme's return with the benchmark.",
	}},
	{14, "Pattern Seeker", "You react to price patterns more than to connections between businesses.", []string{
		"Group the symbols you trade by industry before buying.",
		"Decide on a profit-taking rule before entering a position.",
		"Review why each losing sell lost money.",
	}},
	{0, "Price Follower", "Trades respond to individual prices with little structure linking them.", []string{
		"Learn what each company you buy actually does.",
		"Start with two related companies and watch how they move together.",
		"Hold a position long enough to see a full price swing.",
	}},
}

// ScoreConceptualization combines thematic linkage (0-25), profit-taking
// cadence (0-25) and consistency (0-20) into a 0-70 score and level.
func ScoreConceptualization(snap model.Snapshot, stats analytics.Stats, grouper *correlation.ThemeGrouper) Conceptualization {
	var c Conceptualization

	link := grouper.Strongest(buyNotional(snap.Account.Transactions))
	if link.Linked() {
		share := link.Share.InexactFloat64()
		switch {
		case share >= 0.6:
			c.ThematicPoints = 25
		case share >= 0.4:
			c.ThematicPoints = 15
		default:
			c.ThematicPoints = 8
		}
		c.LinkedTheme = link.Theme
		c.LinkedSymbols = link.Symbols
	}

	profitSteps := make(map[int]struct{})
	for _, t := range snap.Account.Transactions {
		if t.Side == model.Sell && t.RealizedPnL != nil && t.RealizedPnL.IsPositive() {
			profitSteps[t.Step] = struct{}{}
		}
	}
	switch n := len(profitSteps); {
	case n >= 3:
		c.ProfitTakingPoints = 25
	case n == 2:
		c.ProfitTakingPoints = 15
	case n == 1:
		c.ProfitTakingPoints = 8
	}

	switch {
	case stats.SellTrades == 0:
	case stats.WinRate >= 60 && stats.AvgLoss >= -10:
		c.ConsistencyPoints = 20
	case stats.WinRate >= 40:
		c.ConsistencyPoints = 12
	default:
		c.ConsistencyPoints = 5
	}

	c.Score = c.ThematicPoints + c.ProfitTakingPoints + c.ConsistencyPoints
	for i, lv := range levels {
		if c.Score >= lv.minScore {
			c.Level = len(levels) - i
			c.Title = lv.title
			c.Description = lv.description
			c.Recommendations = append([]string(nil), lv.recommendations...)
			break
		}
	}
	return c
}

// Summary is a one-line description of the level.
func (c Conceptualization) Summary() string {
	return fmt.Sprintf("Level %d %s (%d/%d)", c.Level, c.Title, c.Score, MaxConceptScore)
}
