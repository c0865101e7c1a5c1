package pricing

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Rand is the randomness the simulator draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Clock returns the current instant.
type Clock func() time.Time

// NewRand returns a PCG-backed source. A zero seed picks one from the wall clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Variance bands, in percent, used by the different callers of NextPrice.
const (
	SeedBandPct     = 10.0 // new competitor quote for a freshly created product
	RefreshBandPct  = 3.0  // periodic competitor refresh
	BackfillBandPct = 2.0  // day-to-day synthesized history
)

// Simulator produces plausible competitor prices from a previous price.
type Simulator struct {
	mu  sync.Mutex
	rng Rand
}

func NewSimulator(rng Rand) *Simulator {
	return &Simulator{rng: rng}
}

// NextPrice draws a variance uniformly from [lowPct, highPct] and applies it
// to previous. The result is rounded to the cent and never below MinPrice.
func (s *Simulator) NextPrice(previous Price, lowPct, highPct float64) Price {
	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()

	variancePct := lowPct + u*(highPct-lowPct)
	factor := decimal.NewFromFloat(variancePct).Div(hundred).Add(decimal.NewFromInt(1))
	return fromDecimalCents(decimal.NewFromInt(previous.Cents()).Mul(factor))
}
