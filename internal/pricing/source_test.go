package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompetitor(t *testing.T) {
	for _, c := range Competitors() {
		got, err := ParseCompetitor(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompetitor("ebay")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseCompetitor("Amazon")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompetitorsIsACopy(t *testing.T) {
	cs := Competitors()
	cs[0] = "ebay"
	assert.Equal(t, Amazon, Competitors()[0])
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("your-price")
	require.NoError(t, err)
	assert.Equal(t, SourceYourPrice, src)

	src, err = ParseSource("walmart")
	require.NoError(t, err)
	assert.Equal(t, SourceFor(Walmart), src)

	_, err = ParseSource("your")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Consider Adjustment")
	require.NoError(t, err)
	assert.Equal(t, StatusConsiderAdjustment, st)

	st, err = ParseStatus("unknown")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, st)

	_, err = ParseStatus("Great")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConstructorsRejectInvalidInput(t *testing.T) {
	now := time.Now()
	_, err := NewCompetitorQuote(1, "ebay", MustParsePrice("1"), now)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewCompetitorQuote(1, Amazon, 0, now)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewCompetitorQuote(1, Amazon, MustParsePrice("1"), time.Time{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewPricePoint(1, "your", MustParsePrice("1"), now)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewPricePoint(1, SourceYourPrice, -5, now)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, NewProduct{Name: "x", SKU: "y", Category: "z"}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, NewProduct{SKU: "y", Category: "z", Price: 100}.Validate(), ErrInvalidInput)
	assert.NoError(t, NewProduct{Name: "x", SKU: "y", Category: "z", Price: 100}.Validate())
}
