package behavior

// Roadmap lists next steps over three horizons.
type Roadmap struct {
	ShortTerm  []string `json:"short_term"`
	MediumTerm []string `json:"medium_term"`
	LongTerm   []string `json:"long_term"`
}

// InvestorType is the labeled combination of the top two traits.
type InvestorType struct {
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Strengths   []string `json:"strengths"`
	Roadmap     Roadmap  `json:"roadmap"`
}

func pairKey(primary, secondary string) string { return primary + "/" + secondary }

// pairTypes is consulted first, keyed "primary/secondary".
var pairTypes = map[string]InvestorType{
	pairKey(Analytical, Swing): {
		Label:       "Precision Trader",
		Description: "Plans entries and exits and repeatedly harvests gains on upswings.",
		Strengths:   []string{"high hit rate", "disciplined profit taking"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Write down the exit rule behind each winning sell."},
			MediumTerm: []string{"Add a stop-loss rule so losing trades are as planned as winners."},
			LongTerm:   []string{"Test the same rules across different market regimes."},
		},
	},
	pairKey(Concentrated, Aggressive): {
		Label:       "Conviction Hunter",
		Description: "Puts large bets on a few ideas and accepts big swings.",
		Strengths:   []string{"decisiveness", "willingness to act on research"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Cap any single position at a fixed share of the account."},
			MediumTerm: []string{"Build a watch list of alternatives for each core idea."},
			LongTerm:   []string{"Measure how much of your return came from one name."},
		},
	},
	pairKey(Diversified, Conservative): {
		Label:       "Steady Allocator",
		Description: "Spreads capital widely and keeps losses small.",
		Strengths:   []string{"capital preservation", "emotional stability"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Review which holdings actually contributed to return."},
			MediumTerm: []string{"Tilt toward the themes you understand best."},
			LongTerm:   []string{"Set a target return and rebalance toward it yearly."},
		},
	},
	pairKey(BuyAndHold, Deliberate): {
		Label:       "Patient Compounder",
		Description: "Buys rarely and lets time do the work.",
		Strengths:   []string{"low turnover", "long horizon"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Note the thesis behind every holding."},
			MediumTerm: []string{"Decide in advance what would make you sell."},
			LongTerm:   []string{"Compare your holdings with the benchmark each year."},
		},
	},
	pairKey(Active, Swing): {
		Label:       "Momentum Rider",
		Description: "Trades frequently and rides short-term price moves.",
		Strengths:   []string{"speed", "responsiveness to price action"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Track how many trades were planned versus reactive."},
			MediumTerm: []string{"Reduce trade count and keep only the best setups."},
			LongTerm:   []string{"Blend a long-term core with your trading book."},
		},
	},
	pairKey(Intuitive, Aggressive): {
		Label:       "Instinct Player",
		Description: "Follows gut feeling and swings for large outcomes.",
		Strengths:   []string{"boldness", "quick decisions"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Write one sentence of reasoning before each order."},
			MediumTerm: []string{"Size positions smaller when conviction comes from instinct alone."},
			LongTerm:   []string{"Build a checklist from your best and worst trades."},
		},
	},
	pairKey(Analytical, Conservative): {
		Label:       "Risk Manager",
		Description: "Wins often and keeps risk tightly controlled.",
		Strengths:   []string{"consistency", "loss control"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Identify trades where caution cost you upside."},
			MediumTerm: []string{"Allow slightly larger positions on your highest-conviction ideas."},
			LongTerm:   []string{"Grow from protecting capital to compounding it."},
		},
	},
	pairKey(Diversified, BuyAndHold): {
		Label:       "Index Minded",
		Description: "Holds a broad basket and rarely trades.",
		Strengths:   []string{"broad exposure", "low costs of indecision"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Check whether your basket beat the benchmark."},
			MediumTerm: []string{"Trim holdings you cannot explain."},
			LongTerm:   []string{"Consider which sectors deserve an overweight."},
		},
	},
}

// primaryTypes is the fallback keyed by the primary trait alone.
var primaryTypes = map[string]InvestorType{
	Concentrated: {
		Label:       "Focused Investor",
		Description: "Concentrates on a small set of ideas.",
		Strengths:   []string{"deep knowledge of few names"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"List the risks specific to your largest holding."},
			MediumTerm: []string{"Add one uncorrelated position."},
			LongTerm:   []string{"Define a maximum position size and keep to it."},
		},
	},
	Diversified: {
		Label:       "Diversifier",
		Description: "Spreads risk across many positions.",
		Strengths:   []string{"resilience to single-name shocks"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Remove positions too small to matter."},
			MediumTerm: []string{"Group holdings by theme and check for overlap."},
			LongTerm:   []string{"Rebalance on a fixed schedule."},
		},
	},
	Active: {
		Label:       "Active Trader",
		Description: "Trades frequently and responds to every move.",
		Strengths:   []string{"engagement", "fast execution"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Review which trades added value."},
			MediumTerm: []string{"Set a monthly trade budget."},
			LongTerm:   []string{"Turn your best patterns into written rules."},
		},
	},
	Deliberate: {
		Label:       "Deliberate Investor",
		Description: "Acts rarely and after reflection.",
		Strengths:   []string{"patience"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Keep a journal of decisions not taken."},
			MediumTerm: []string{"Define triggers that would prompt action."},
			LongTerm:   []string{"Review whether inaction cost you returns."},
		},
	},
	Analytical: {
		Label:       "Analyst",
		Description: "Makes planned, mostly profitable decisions.",
		Strengths:   []string{"high win rate"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Document your selection criteria."},
			MediumTerm: []string{"Let winners run longer before selling."},
			LongTerm:   []string{"Apply your method to new themes."},
		},
	},
	Intuitive: {
		Label:       "Intuitive Trader",
		Description: "Trusts instinct over process.",
		Strengths:   []string{"creativity", "speed"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Record the reason behind each trade."},
			MediumTerm: []string{"Compare instinct trades with planned trades."},
			LongTerm:   []string{"Build a repeatable process around what worked."},
		},
	},
	Swing: {
		Label:       "Swing Trader",
		Description: "Buys dips and sells rallies.",
		Strengths:   []string{"timing", "profit taking"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Measure how much upside you left after each sell."},
			MediumTerm: []string{"Define both entry and exit before buying."},
			LongTerm:   []string{"Keep a core position while trading the swings."},
		},
	},
	BuyAndHold: {
		Label:       "Long-term Holder",
		Description: "Buys and holds through volatility.",
		Strengths:   []string{"conviction", "low turnover"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Re-read the thesis for each holding."},
			MediumTerm: []string{"Decide when a thesis is broken."},
			LongTerm:   []string{"Add to winners on pullbacks."},
		},
	},
	Aggressive: {
		Label:       "Risk Taker",
		Description: "Accepts large swings for large gains.",
		Strengths:   []string{"courage"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Define the largest loss you accept per trade."},
			MediumTerm: []string{"Scale position size by conviction."},
			LongTerm:   []string{"Protect gains with partial profit taking."},
		},
	},
	Conservative: {
		Label:       "Capital Protector",
		Description: "Prioritizes safety over upside.",
		Strengths:   []string{"loss avoidance"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Identify one idea worth a larger allocation."},
			MediumTerm: []string{"Accept small drawdowns for better returns."},
			LongTerm:   []string{"Balance safety with growth targets."},
		},
	},
	Exploratory: {
		Label:       "Explorer",
		Description: "Still discovering a personal style.",
		Strengths:   []string{"openness"},
		Roadmap: Roadmap{
			ShortTerm:  []string{"Place a small trade in a company you understand."},
			MediumTerm: []string{"Try both holding and trading strategies."},
			LongTerm:   []string{"Settle on the approach that fits your temperament."},
		},
	},
}

var defaultType = InvestorType{
	Label:       "Balanced Learner",
	Description: "Combines several styles without a dominant trait.",
	Strengths:   []string{"flexibility", "room to grow in any direction"},
	Roadmap: Roadmap{
		ShortTerm:  []string{"Pick one trait you want to strengthen."},
		MediumTerm: []string{"Run another simulation focused on that trait."},
		LongTerm:   []string{"Develop a written investment policy."},
	},
}

// LookupInvestorType resolves the trait pair in either order, then the
// primary trait alone, then the generic default.
func LookupInvestorType(primary, secondary string) InvestorType {
	if it, ok := pairTypes[pairKey(primary, secondary)]; ok {
		return it
	}
	if it, ok := pairTypes[pairKey(secondary, primary)]; ok {
		return it
	}
	if it, ok := primaryTypes[primary]; ok {
		return it
	}
	return defaultType
}
