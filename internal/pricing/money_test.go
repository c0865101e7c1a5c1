package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice("229.99")
	require.NoError(t, err)
	assert.EqualValues(t, 22999, p.Cents())
	assert.Equal(t, "229.99", p.String())

	p, err = ParsePrice("10.005")
	require.NoError(t, err)
	assert.Equal(t, "10.01", p.String())

	p, err = ParsePrice("99999999.99")
	require.NoError(t, err)
	assert.Equal(t, MaxPrice, p)

	for _, bad := range []string{"", "abc", "0", "-1.00", "0.004", "100000000.00", "92233720368547758.08", "184467440737095516.17", "1e20"} {
		_, err := ParsePrice(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestNewPrice(t *testing.T) {
	p, err := NewPrice(decimal.RequireFromString("5"))
	require.NoError(t, err)
	assert.Equal(t, "5.00", p.String())
}

func TestPriceJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		P Price  `json:"p"`
		O *Price `json:"o"`
	}{P: MustParsePrice("93.42")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"93.42","o":null}`, string(out))

	var in struct {
		A Price `json:"a"`
		B Price `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.30","b":7.5}`), &in))
	assert.EqualValues(t, 1230, in.A)
	assert.EqualValues(t, 750, in.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"-1"}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &in))
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"a":"184467440737095516.17"}`), &in), ErrInvalidInput)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"a":1e20}`), &in), ErrInvalidInput)
}

func TestPriceRange(t *testing.T) {
	assert.True(t, MinPrice.Valid())
	assert.True(t, MaxPrice.Valid())
	assert.False(t, Price(0).Valid())
	assert.False(t, (MaxPrice + 1).Valid())

	assert.Equal(t, MaxPrice, fromDecimalCents(decimal.RequireFromString("1e30")))
	assert.Equal(t, MinPrice, fromDecimalCents(decimal.RequireFromString("-1e30")))
}
