// Package scenario replays a scripted simulation run from a YAML file:
// a configuration, a per-step quote table and the orders to place.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/atmx/sim-engine/internal/market"
	"github.com/atmx/sim-engine/internal/model"
	"github.com/atmx/sim-engine/internal/report"
	"github.com/atmx/sim-engine/internal/sim"
)

// ErrInvalidScenario is returned for a file that cannot be replayed.
var ErrInvalidScenario = errors.New("scenario: invalid scenario")

const dateLayout = "2006-01-02"

// Config mirrors model.SimulationConfig with dates as YYYY-MM-DD strings.
type Config struct {
	StartDate   string           `yaml:"start_date"`
	EndDate     string           `yaml:"end_date"`
	Cadence     model.Cadence    `yaml:"cadence"`
	InitialCash decimal.Decimal  `yaml:"initial_cash"`
	Difficulty  model.Difficulty `yaml:"difficulty"`
	TotalSteps  int              `yaml:"total_steps"`
}

// Order is a scripted order placed at a 1-based step.
type Order struct {
	Step     int    `yaml:"step"`
	Side     string `yaml:"side"`
	Symbol   string `yaml:"symbol"`
	Quantity int64  `yaml:"quantity"`
}

// File is a parsed scenario.
//
//	config:
//	  start_date: 2024-01-01
//	  cadence: monthly
//	  initial_cash: 100000
//	quotes:
//	  - [{symbol: AAA, price: 100}]
//	  - [{symbol: AAA, price: 150}]
//	orders:
//	  - {step: 1, side: BUY, symbol: AAA, quantity: 100}
type File struct {
	Name   string          `yaml:"name"`
	Config Config          `yaml:"config"`
	Quotes [][]model.Quote `yaml:"quotes"`
	Orders []Order         `yaml:"orders"`
}

// Rejection records an order the ledger refused. The run continues past it.
type Rejection struct {
	Order  Order  `json:"order"`
	Reason string `json:"reason"`
}

// Result is the outcome of a replay.
type Result struct {
	Report       report.Report       `json:"report"`
	Transactions []model.Transaction `json:"transactions"`
	Rejected     []Rejection         `json:"rejected,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a scenario. Unknown fields are rejected.
func Parse(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if len(file.Quotes) == 0 {
		return File{}, fmt.Errorf("%w: no quotes", ErrInvalidScenario)
	}
	for i, o := range file.Orders {
		if o.Step < 1 || o.Step > len(file.Quotes) {
			return File{}, fmt.Errorf("%w: order %d at step %d outside [1, %d]", ErrInvalidScenario, i, o.Step, len(file.Quotes))
		}
	}
	return file, nil
}

// SimulationConfig converts the file's configuration. With neither an end
// date nor a step count, the run lasts as many steps as there are quotes.
func (f File) SimulationConfig() (model.SimulationConfig, error) {
	c := f.Config
	cfg := model.SimulationConfig{
		Cadence:     model.Cadence(strings.ToLower(string(c.Cadence))),
		InitialCash: c.InitialCash,
		Difficulty:  model.Difficulty(strings.ToLower(string(c.Difficulty))),
		TotalSteps:  c.TotalSteps,
	}
	var err error
	if cfg.StartDate, err = time.Parse(dateLayout, c.StartDate); err != nil {
		return cfg, fmt.Errorf("%w: start_date %q: %w", ErrInvalidScenario, c.StartDate, err)
	}
	if c.EndDate != "" {
		if cfg.EndDate, err = time.Parse(dateLayout, c.EndDate); err != nil {
			return cfg, fmt.Errorf("%w: end_date %q: %w", ErrInvalidScenario, c.EndDate, err)
		}
	}
	if cfg.TotalSteps == 0 && cfg.EndDate.IsZero() {
		cfg.TotalSteps = len(f.Quotes)
	}
	return cfg, nil
}

// Run plays the scenario to completion and builds its report. Orders are
// applied in file order within a step; rule violations are collected as
// rejections.
func Run(f File, builder *report.Builder) (Result, error) {
	cfg, err := f.SimulationConfig()
	if err != nil {
		return Result{}, err
	}
	s, err := sim.New(cfg, market.NewTable(f.Quotes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if builder == nil {
		builder = report.NewBuilder(nil, "")
	}

	byStep := make(map[int][]Order)
	for _, o := range f.Orders {
		byStep[o.Step] = append(byStep[o.Step], o)
	}

	var res Result
	for {
		if _, err := s.Advance(); err != nil {
			return Result{}, err
		}
		if s.Done() {
			break
		}
		for _, o := range byStep[s.Step()] {
			side := model.Side(strings.ToUpper(strings.TrimSpace(o.Side)))
			if _, err := s.Order(side, o.Symbol, o.Quantity); err != nil {
				res.Rejected = append(res.Rejected, Rejection{Order: o, Reason: err.Error()})
			}
		}
	}

	res.Transactions = s.Account().Transactions
	res.Report = builder.Build(s.Snapshot())
	return res, nil
}
