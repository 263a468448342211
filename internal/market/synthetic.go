package market

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/instrument"
	"github.com/atmx/sim-engine/internal/model"
)

// Synthetic is a deterministic Source generated from instrument catalog
// parameters. It is total: every step ≥ 1 has a quote for every instrument.
//
//	price(step) = base × (1 + drift/100)^(step-1) × (1 + swing/100 × sin(step × φ))
//
// φ is derived from the symbol so instruments oscillate out of phase.
type Synthetic struct {
	instruments []instrument.Instrument
}

// NewSynthetic creates a Synthetic source over the given instruments.
// Pass instrument.Catalog() for the built-in universe.
func NewSynthetic(instruments []instrument.Instrument) *Synthetic {
	in := make([]instrument.Instrument, len(instruments))
	copy(in, instruments)
	return &Synthetic{instruments: in}
}

// Quotes implements Source.
func (s *Synthetic) Quotes(step int) []model.Quote {
	if step < 1 {
		return nil
	}
	quotes := make([]model.Quote, 0, len(s.instruments))
	for _, in := range s.instruments {
		price := s.price(in, step)
		var change float64
		if step > 1 {
			prev := s.price(in, step-1)
			change = price.Sub(prev).Div(prev).Mul(hundred).Round(2).InexactFloat64()
		}
		quotes = append(quotes, model.Quote{
			Symbol:    in.Symbol,
			Price:     price,
			ChangePct: change,
		})
	}
	return quotes
}

func (s *Synthetic) price(in instrument.Instrument, step int) decimal.Decimal {
	phase := 0.5 + float64(symbolSeed(in.Symbol)%7)/7
	growth := math.Pow(1+in.Drift/100, float64(step-1))
	wave := 1 + in.Swing/100*math.Sin(float64(step)*phase)
	p := in.BasePrice.Mul(decimal.NewFromFloat(growth * wave)).Round(2)
	if !p.IsPositive() {
		return decimal.New(1, -2)
	}
	return p
}

func symbolSeed(sym string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(sym); i++ {
		h ^= uint32(sym[i])
		h *= 16777619
	}
	return h
}
