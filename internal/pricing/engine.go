package pricing

import "github.com/shopspring/decimal"

var (
	undercutFactor = decimal.RequireFromString("0.95")
	marginFloor    = decimal.RequireFromString("0.90")
)

// ComputeOptimalPrice undercuts the competitor average by 5% but never goes
// below 90% of the current price. It returns nil when there are no
// competitor prices to work from.
func ComputeOptimalPrice(current Price, competitorPrices []Price) *Price {
	if len(competitorPrices) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, p := range competitorPrices {
		sum = sum.Add(decimal.NewFromInt(p.Cents()))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(competitorPrices))))

	optimal := decimal.Max(mean.Mul(undercutFactor), decimal.NewFromInt(current.Cents()).Mul(marginFloor))
	p := fromDecimalCents(optimal)
	return &p
}

// ClassifyStatus buckets the gap between current and optimal price:
// under 2% is Competitive, under 5% is ConsiderAdjustment, anything else is
// AdjustmentNeeded. Exactly 2% and 5% land in the upper bucket.
func ClassifyStatus(current Price, optimal *Price) Status {
	if optimal == nil || current <= 0 {
		return StatusUnknown
	}
	diff := current.Cents() - optimal.Cents()
	if diff < 0 {
		diff = -diff
	}
	// diff/current*100 < n  <=>  diff*100 < n*current, kept in integers.
	switch scaled := diff * 100; {
	case scaled < 2*current.Cents():
		return StatusCompetitive
	case scaled < 5*current.Cents():
		return StatusConsiderAdjustment
	default:
		return StatusAdjustmentNeeded
	}
}
