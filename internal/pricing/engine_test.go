package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeOptimalPrice(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		competitors []string
		want        string
	}{
		{"undercuts average", "100.00", []string{"90.00", "95.00", "110.00"}, "93.42"},
		{"single competitor", "100.00", []string{"101.00"}, "95.95"},
		{"margin floor wins", "100.00", []string{"50.00", "60.00"}, "90.00"},
		{"tiny prices stay positive", "0.01", []string{"0.01"}, "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := make([]Price, 0, len(tt.competitors))
			for _, s := range tt.competitors {
				prices = append(prices, MustParsePrice(s))
			}
			got := ComputeOptimalPrice(MustParsePrice(tt.current), prices)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestComputeOptimalPriceLargeQuotes(t *testing.T) {
	got := ComputeOptimalPrice(MaxPrice, []Price{MaxPrice, MaxPrice, MaxPrice})
	require.NotNil(t, got)
	assert.Equal(t, "94999999.99", got.String())

	// Sums beyond int64 still follow the formula and are capped at MaxPrice.
	huge := Price(5e18)
	got = ComputeOptimalPrice(MustParsePrice("1.00"), []Price{huge, huge})
	require.NotNil(t, got)
	assert.Equal(t, MaxPrice, *got)
}

func TestComputeOptimalPriceNoCompetitors(t *testing.T) {
	for _, cur := range []string{"0.01", "100.00", "99999.99"} {
		assert.Nil(t, ComputeOptimalPrice(MustParsePrice(cur), nil))
		assert.Nil(t, ComputeOptimalPrice(MustParsePrice(cur), []Price{}))
	}
}

func TestComputeOptimalPriceMatchesFormula(t *testing.T) {
	rng := NewRand(7)
	for i := 0; i < 500; i++ {
		current := Price(1 + rng.Int64N(500000))
		n := 1 + rng.IntN(3)
		prices := make([]Price, n)
		sum := decimal.Zero
		for j := range prices {
			prices[j] = Price(1 + rng.Int64N(500000))
			sum = sum.Add(prices[j].Decimal())
		}
		mean := sum.Div(decimal.NewFromInt(int64(n)))
		want := decimal.Max(
			mean.Mul(decimal.RequireFromString("0.95")),
			current.Decimal().Mul(decimal.RequireFromString("0.90")),
		).Round(2)

		got := ComputeOptimalPrice(current, prices)
		require.NotNil(t, got)
		assert.True(t, want.Equal(got.Decimal()), "current=%s prices=%v want=%s got=%s", current, prices, want, got)
		assert.GreaterOrEqual(t, *got, MinPrice)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name    string
		current string
		optimal *Price
		want    Status
	}{
		{"no optimal price", "100.00", nil, StatusUnknown},
		{"equal", "100.00", ptr(MustParsePrice("100.00")), StatusCompetitive},
		{"just under 2%", "100.00", ptr(MustParsePrice("98.01")), StatusCompetitive},
		{"exactly 2% below", "100.00", ptr(MustParsePrice("98.00")), StatusConsiderAdjustment},
		{"exactly 2% above", "100.00", ptr(MustParsePrice("102.00")), StatusConsiderAdjustment},
		{"just under 5%", "100.00", ptr(MustParsePrice("95.01")), StatusConsiderAdjustment},
		{"exactly 5%", "100.00", ptr(MustParsePrice("95.00")), StatusAdjustmentNeeded},
		{"far off", "100.00", ptr(MustParsePrice("93.42")), StatusAdjustmentNeeded},
		{"4.05% gap", "100.00", ptr(MustParsePrice("95.95")), StatusConsiderAdjustment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(MustParsePrice(tt.current), tt.optimal))
		})
	}
}

func TestEngineScenarios(t *testing.T) {
	current := MustParsePrice("100.00")

	optimal := ComputeOptimalPrice(current, []Price{MustParsePrice("90.00"), MustParsePrice("95.00"), MustParsePrice("110.00")})
	assert.Equal(t, "93.42", optimal.String())
	assert.Equal(t, StatusAdjustmentNeeded, ClassifyStatus(current, optimal))

	optimal = ComputeOptimalPrice(current, nil)
	assert.Nil(t, optimal)
	assert.Equal(t, StatusUnknown, ClassifyStatus(current, optimal))

	optimal = ComputeOptimalPrice(current, []Price{MustParsePrice("101.00")})
	assert.Equal(t, "95.95", optimal.String())
	assert.Equal(t, StatusConsiderAdjustment, ClassifyStatus(current, optimal))
}
