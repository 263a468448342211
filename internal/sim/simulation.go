// Package sim drives a simulation run step by step through a configured
// date range, applying orders against the current step's prices.
//
// State machine:
//
//	Configured --Advance--> Running --Advance (step > totalSteps)--> Completed
//
// Orders are accepted only while Running. Once Completed, only read-only
// valuation and snapshotting are permitted.
package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/instrument"
	"github.com/atmx/sim-engine/internal/ledger"
	"github.com/atmx/sim-engine/internal/market"
	"github.com/atmx/sim-engine/internal/model"
)

// State is the simulation phase.
type State string

const (
	Configured State = "configured"
	Running    State = "running"
	Completed  State = "completed"
)

var (
	// ErrUnknownSymbol is returned for an order on a symbol with no quote
	// at the current step.
	ErrUnknownSymbol = errors.New("sim: no quote for symbol at current step")

	// ErrSimulationFinished is returned by Advance and order calls once the
	// run is Completed.
	ErrSimulationFinished = errors.New("sim: simulation finished")

	// ErrNotStarted is returned for orders issued before the first Advance.
	ErrNotStarted = errors.New("sim: simulation not started")
)

// Simulation owns one Ledger for the lifetime of a run. It is not safe for
// concurrent use; callers serialize access per instance.
type Simulation struct {
	cfg    model.SimulationConfig
	source market.Source
	ledger *ledger.Ledger

	state      State
	step       int
	date       time.Time
	quotes     []model.Quote
	bySymbol   map[string]model.Quote
	lastPrices map[string]decimal.Decimal // last known price per symbol, across steps
}

// New validates cfg and creates a Configured simulation.
func New(cfg model.SimulationConfig, source market.Source) (*Simulation, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: price source is required", ErrInvalidConfig)
	}
	cfg, err := Normalize(cfg)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		cfg:        cfg,
		source:     source,
		ledger:     ledger.New(cfg.InitialCash),
		state:      Configured,
		bySymbol:   make(map[string]model.Quote),
		lastPrices: make(map[string]decimal.Decimal),
	}, nil
}

// Config returns the normalized configuration.
func (s *Simulation) Config() model.SimulationConfig { return s.cfg }

// State returns the current phase.
func (s *Simulation) State() State { return s.state }

// Step returns the current 1-based step; 0 before the first Advance and
// totalSteps+1 once Completed.
func (s *Simulation) Step() int { return s.step }

// Date returns the simulated date of the current step.
func (s *Simulation) Date() time.Time { return s.date }

// Done reports whether the run is Completed.
func (s *Simulation) Done() bool { return s.state == Completed }

// Advance moves to the next step and returns its quotes. Advancing past
// the last step completes the run and returns no quotes.
func (s *Simulation) Advance() ([]model.Quote, error) {
	switch s.state {
	case Completed:
		return nil, ErrSimulationFinished
	case Configured:
		s.state = Running
		s.step = 1
		s.date = s.cfg.StartDate
	default:
		s.step++
		if s.step > s.cfg.TotalSteps {
			s.state = Completed
			s.quotes = nil
			s.bySymbol = make(map[string]model.Quote)
			return nil, nil
		}
		s.date = s.cfg.Cadence.Next(s.date)
	}

	s.load(s.source.Quotes(s.step))
	return s.Quotes(), nil
}

func (s *Simulation) load(quotes []model.Quote) {
	s.quotes = quotes
	s.bySymbol = make(map[string]model.Quote, len(quotes))
	for _, q := range quotes {
		if !q.Price.IsPositive() {
			continue
		}
		s.bySymbol[q.Symbol] = q
		s.lastPrices[q.Symbol] = q.Price
	}
}

// Quotes returns a copy of the current step's quotes.
func (s *Simulation) Quotes() []model.Quote {
	out := make([]model.Quote, len(s.quotes))
	copy(out, s.quotes)
	return out
}

// Quote returns the current step's quote for symbol.
func (s *Simulation) Quote(symbol string) (model.Quote, bool) {
	q, ok := s.bySymbol[symbol]
	return q, ok
}

// Buy purchases quantity shares of symbol at the current step's price.
func (s *Simulation) Buy(symbol string, quantity int64) (model.Transaction, error) {
	sym, q, err := s.tradable(symbol)
	if err != nil {
		return model.Transaction{}, err
	}
	return s.ledger.Buy(sym, quantity, q.Price, s.stamp())
}

// Sell disposes of quantity shares of symbol at the current step's price.
func (s *Simulation) Sell(symbol string, quantity int64) (model.Transaction, error) {
	sym, q, err := s.tradable(symbol)
	if err != nil {
		return model.Transaction{}, err
	}
	return s.ledger.Sell(sym, quantity, q.Price, s.stamp())
}

// Order dispatches to Buy or Sell.
func (s *Simulation) Order(side model.Side, symbol string, quantity int64) (model.Transaction, error) {
	switch side {
	case model.Buy:
		return s.Buy(symbol, quantity)
	case model.Sell:
		return s.Sell(symbol, quantity)
	}
	return model.Transaction{}, fmt.Errorf("%w: unknown side %q", ledger.ErrInvalidOrder, side)
}

func (s *Simulation) tradable(symbol string) (string, model.Quote, error) {
	switch s.state {
	case Configured:
		return "", model.Quote{}, ErrNotStarted
	case Completed:
		return "", model.Quote{}, ErrSimulationFinished
	}
	sym, err := instrument.ParseSymbol(symbol)
	if err != nil {
		return "", model.Quote{}, err
	}
	q, ok := s.bySymbol[sym]
	if !ok {
		return "", model.Quote{}, fmt.Errorf("%w: %s at step %d", ErrUnknownSymbol, sym, s.step)
	}
	return sym, q, nil
}

func (s *Simulation) stamp() model.Stamp {
	return model.Stamp{Step: s.step, Date: s.date}
}

// Cash returns the ledger's cash balance.
func (s *Simulation) Cash() decimal.Decimal { return s.ledger.Cash() }

// LastPrices returns a copy of the last known price per symbol.
func (s *Simulation) LastPrices() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.lastPrices))
	for k, v := range s.lastPrices {
		out[k] = v
	}
	return out
}

// Valuation marks the account at the last known price of every held
// symbol, falling back to average cost when a symbol was never quoted.
func (s *Simulation) Valuation() decimal.Decimal {
	return s.ledger.Valuate(ledger.PriceMap(s.lastPrices))
}

// Positions marks every holding at its last known price.
func (s *Simulation) Positions() []ledger.Position {
	return s.ledger.Positions(ledger.PriceMap(s.lastPrices))
}

// Recent returns up to n transactions, newest first.
func (s *Simulation) Recent(n int) []model.Transaction {
	return s.ledger.Recent(n)
}

// Account returns a copy of the ledger state.
func (s *Simulation) Account() model.Account {
	return s.ledger.Snapshot()
}

// StepsPlayed is the number of steps entered so far, at most totalSteps.
func (s *Simulation) StepsPlayed() int {
	if s.step > s.cfg.TotalSteps {
		return s.cfg.TotalSteps
	}
	return s.step
}

// Snapshot freezes the run for analytics and scoring.
func (s *Simulation) Snapshot() model.Snapshot {
	steps := s.StepsPlayed()
	return model.Snapshot{
		Config:      s.cfg,
		Account:     s.ledger.Snapshot(),
		LastPrices:  s.LastPrices(),
		FinalValue:  s.Valuation(),
		InitialCash: s.cfg.InitialCash,
		Steps:       steps,
		Months:      s.cfg.Cadence.Months(steps),
	}
}
