package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Cadence is the time interval between simulation steps.
type Cadence string

const (
	Daily     Cadence = "daily"
	Weekly    Cadence = "weekly"
	Monthly   Cadence = "monthly"
	Quarterly Cadence = "quarterly"
)

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case Daily, Weekly, Monthly, Quarterly:
		return true
	}
	return false
}

// Next returns t advanced by one cadence unit.
func (c Cadence) Next(t time.Time) time.Time {
	switch c {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Quarterly:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// monthsPerStep approximates a cadence unit in months (30-day month).
func (c Cadence) monthsPerStep() float64 {
	switch c {
	case Daily:
		return 1.0 / 30
	case Weekly:
		return 7.0 / 30
	case Quarterly:
		return 3
	default:
		return 1
	}
}

// Months returns the elapsed months covered by steps, rounded up, minimum 1.
func (c Cadence) Months(steps int) int {
	m := int(math.Ceil(float64(steps)*c.monthsPerStep() - 1e-9))
	if m < 1 {
		return 1
	}
	return m
}

// Difficulty selects the default starting capital.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Normal, Hard:
		return true
	}
	return false
}

// DefaultCash is the starting capital used when none is configured.
func (d Difficulty) DefaultCash() decimal.Decimal {
	switch d {
	case Easy:
		return decimal.NewFromInt(1_000_000)
	case Hard:
		return decimal.NewFromInt(10_000)
	default:
		return decimal.NewFromInt(100_000)
	}
}

// SimulationConfig is immutable once a run starts.
type SimulationConfig struct {
	StartDate   time.Time       `json:"start_date" yaml:"start_date"`
	EndDate     time.Time       `json:"end_date" yaml:"end_date"`
	Cadence     Cadence         `json:"cadence" yaml:"cadence"`
	InitialCash decimal.Decimal `json:"initial_cash" yaml:"initial_cash"`
	Difficulty  Difficulty      `json:"difficulty" yaml:"difficulty"`
	TotalSteps  int             `json:"total_steps" yaml:"total_steps"`
}
