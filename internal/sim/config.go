package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/atmx/sim-engine/internal/model"
)

// ErrInvalidConfig is returned when a SimulationConfig cannot be run.
var ErrInvalidConfig = errors.New("sim: invalid configuration")

// maxSteps bounds derived step counts (daily cadence over decades).
const maxSteps = 10_000

// Normalize fills defaults and validates cfg. Difficulty defaults to
// normal, cadence to monthly; zero initial cash takes the difficulty's
// default; zero total steps is derived from the date range.
func Normalize(cfg model.SimulationConfig) (model.SimulationConfig, error) {
	if cfg.Difficulty == "" {
		cfg.Difficulty = model.Normal
	}
	if !cfg.Difficulty.Valid() {
		return cfg, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, cfg.Difficulty)
	}
	if cfg.Cadence == "" {
		cfg.Cadence = model.Monthly
	}
	if !cfg.Cadence.Valid() {
		return cfg, fmt.Errorf("%w: unknown cadence %q", ErrInvalidConfig, cfg.Cadence)
	}
	if cfg.StartDate.IsZero() {
		return cfg, fmt.Errorf("%w: start date is required", ErrInvalidConfig)
	}
	if !cfg.EndDate.IsZero() && cfg.EndDate.Before(cfg.StartDate) {
		return cfg, fmt.Errorf("%w: end date %s before start date %s",
			ErrInvalidConfig, cfg.EndDate.Format("2006-01-02"), cfg.StartDate.Format("2006-01-02"))
	}
	if cfg.InitialCash.IsZero() {
		cfg.InitialCash = cfg.Difficulty.DefaultCash()
	}
	if !cfg.InitialCash.IsPositive() {
		return cfg, fmt.Errorf("%w: initial cash must be positive", ErrInvalidConfig)
	}

	if cfg.TotalSteps == 0 {
		if cfg.EndDate.IsZero() {
			return cfg, fmt.Errorf("%w: total steps or end date is required", ErrInvalidConfig)
		}
		cfg.TotalSteps = countSteps(cfg)
	}
	if cfg.TotalSteps < 1 || cfg.TotalSteps > maxSteps {
		return cfg, fmt.Errorf("%w: total steps %d outside [1, %d]", ErrInvalidConfig, cfg.TotalSteps, maxSteps)
	}
	if cfg.EndDate.IsZero() {
		cfg.EndDate = DateAt(cfg, cfg.TotalSteps)
	}
	return cfg, nil
}

// countSteps counts cadence dates from start that fall on or before end.
func countSteps(cfg model.SimulationConfig) int {
	n := 0
	for t := cfg.StartDate; !t.After(cfg.EndDate) && n < maxSteps+1; t = cfg.Cadence.Next(t) {
		n++
	}
	return n
}

// DateAt returns the simulated date of a 1-based step.
func DateAt(cfg model.SimulationConfig, step int) time.Time {
	t := cfg.StartDate
	for i := 1; i < step; i++ {
		t = cfg.Cadence.Next(t)
	}
	return t
}
