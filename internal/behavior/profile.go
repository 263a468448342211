package behavior

import (
	"sort"

	"github.com/atmx/sim-engine/internal/analytics"
	"github.com/atmx/sim-engine/internal/correlation"
	"github.com/atmx/sim-engine/internal/instrument"
	"github.com/atmx/sim-engine/internal/model"
)

// Profile is the combined behavioral verdict for one run.
type Profile struct {
	PrimaryTrait      string            `json:"primary_trait"`
	SecondaryTrait    string            `json:"secondary_trait"`
	InvestorType      InvestorType      `json:"investor_type"`
	TraitScores       []TraitScore      `json:"trait_scores"` // sorted by score, descending
	Conceptualization Conceptualization `json:"conceptualization"`
}

// Profiler runs the scorer battery. The zero value is not usable; use
// NewProfiler.
type Profiler struct {
	grouper *correlation.ThemeGrouper
}

// NewProfiler creates a profiler. A nil grouper falls back to the
// built-in instrument themes.
func NewProfiler(grouper *correlation.ThemeGrouper) *Profiler {
	if grouper == nil {
		grouper = correlation.NewThemeGrouper(instrument.Themes())
	}
	return &Profiler{grouper: grouper}
}

// Score classifies a completed run. It is a pure function of its inputs.
func (p *Profiler) Score(snap model.Snapshot, stats analytics.Stats) Profile {
	in := Input{Snapshot: snap, Stats: stats}

	scores := make([]TraitScore, 0, len(battery))
	for _, s := range battery {
		scores = append(scores, s(in))
	}
	// Stable keeps battery order for equal scores.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	primary := scores[0].Type
	secondary := ""
	for _, ts := range scores[1:] {
		if ts.Type != primary {
			secondary = ts.Type
			break
		}
	}

	return Profile{
		PrimaryTrait:      primary,
		SecondaryTrait:    secondary,
		InvestorType:      LookupInvestorType(primary, secondary),
		TraitScores:       scores,
		Conceptualization: ScoreConceptualization(snap, stats, p.grouper),
	}
}
