package pricing

import (
	"iter"
	"slices"
)

// Synthesizer builds a day-by-day price history for one product.
type Synthesizer struct {
	sim   *Simulator
	clock Clock
}

func NewSynthesizer(sim *Simulator, clock Clock) *Synthesizer {
	return &Synthesizer{sim: sim, clock: clock}
}

// Generate returns days+1 daily snapshots ending today. Each snapshot has the
// merchant's own price, held constant, plus one point per competitor in
// bases. Competitor prices vary independently around their base price each
// day; they are not a walk from the previous day.
func (s *Synthesizer) Generate(productID int, yourPrice Price, bases map[Competitor]Price, days int) ([]PricePoint, error) {
	seq, err := s.Stream(productID, yourPrice, bases, days)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// Stream is the lazy form of Generate. Inputs are validated up front; the
// returned sequence draws prices as it is consumed.
func (s *Synthesizer) Stream(productID int, yourPrice Price, bases map[Competitor]Price, days int) (iter.Seq[PricePoint], error) {
	if days < 0 {
		return nil, invalidf("days must not be negative, got %d", days)
	}
	if !yourPrice.Valid() {
		return nil, invalidf("price %s is out of range", yourPrice)
	}
	order := make([]Competitor, 0, len(bases))
	for c, p := range bases {
		if !c.Valid() {
			return nil, invalidf("unknown competitor %q", c)
		}
		if !p.Valid() {
			return nil, invalidf("base price %s for %s is out of range", p, c)
		}
	}
	for _, c := range competitors {
		if _, ok := bases[c]; ok {
			order = append(order, c)
		}
	}

	now := s.clock()
	return func(yield func(PricePoint) bool) {
		for i := days; i >= 0; i-- {
			date := now.AddDate(0, 0, -i)
			if !yield(PricePoint{ProductID: productID, Source: SourceYourPrice, Price: yourPrice, Date: date}) {
				return
			}
			for _, c := range order {
				p := s.sim.NextPrice(bases[c], -BackfillBandPct, BackfillBandPct)
				if !yield(PricePoint{ProductID: productID, Source: SourceFor(c), Price: p, Date: date}) {
					return
				}
			}
		}
	}, nil
}
