package analytics

// Grade is one rung of the grading ladder.
type Grade struct {
	Letter      string `json:"letter"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Score       int    `json:"score"` // 0-100
}

// rung pairs a grade with the minimum return and Sharpe proxy it requires.
type rung struct {
	minReturn float64
	minSharpe float64
	grade     Grade
}

// ladder is checked from the top; the first rung whose thresholds are both
// met wins. The last rung has no thresholds so every input maps to a grade.
var ladder = []rung{
	{30, 2.0, Grade{"S", "Master Investor", "Exceptional returns with disciplined risk control.", 95}},
	{15, 1.5, Grade{"A", "Skilled Investor", "Strong returns well ahead of a passive approach.", 85}},
	{5, 1.0, Grade{"B", "Solid Investor", "Steady gains with reasonable risk.", 75}},
	{0, 0, Grade{"C", "Developing Investor", "Capital preserved with modest growth.", 65}},
	{-10, -10, Grade{"D", "Learning Investor", "Some losses; review entries and exits.", 50}},
}

var floor = Grade{"F", "Beginner Investor", "Significant losses; revisit the fundamentals of risk.", 35}

// GradeFor maps a total return and Sharpe proxy to a grade. It is total:
// every finite input, including negative returns, yields exactly one grade.
func GradeFor(totalReturnPct, sharpe float64) Grade {
	for _, r := range ladder {
		if totalReturnPct >= r.minReturn && sharpe >= r.minSharpe {
			return r.grade
		}
	}
	return floor
}

// Grades returns the full ladder from best to worst.
func Grades() []Grade {
	out := make([]Grade, 0, len(ladder)+1)
	for _, r := range ladder {
		out = append(out, r.grade)
	}
	return append(out, floor)
}
