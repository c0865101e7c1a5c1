package pricing

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Price is an amount of money in minor units (cents).
type Price int64

const (
	// MinPrice is the floor applied to every computed price.
	MinPrice Price = 1
	// MaxPrice is the largest storable price, the NUMERIC(10,2) limit
	// 99999999.99. Computed prices are capped at it.
	MaxPrice Price = 99_999_999_99
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(int64(MaxPrice))
)

// NewPrice converts a decimal amount to cents, rounding half away from zero.
// Amounts outside [MinPrice, MaxPrice] are rejected.
func NewPrice(d decimal.Decimal) (Price, error) {
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return 0, invalidf("price must be positive, got %s", d.String())
	}
	if cents.GreaterThan(maxCents) {
		return 0, invalidf("price must not exceed %s, got %s", MaxPrice, d.String())
	}
	return Price(cents.IntPart()), nil
}

// ParsePrice parses a decimal string such as "229.99".
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, invalidf("malformed price %q", s)
	}
	return NewPrice(d)
}

// MustParsePrice is ParsePrice for literals known to be valid.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// fromDecimalCents rounds a computed cent amount and clamps it to
// [MinPrice, MaxPrice].
func fromDecimalCents(cents decimal.Decimal) Price {
	cents = cents.Round(0)
	switch {
	case cents.LessThan(decimal.NewFromInt(int64(MinPrice))):
		return MinPrice
	case cents.GreaterThan(maxCents):
		return MaxPrice
	}
	return Price(cents.IntPart())
}

func (p Price) Cents() int64 { return int64(p) }

func (p Price) Decimal() decimal.Decimal { return decimal.New(int64(p), -2) }

func (p Price) String() string { return p.Decimal().StringFixed(2) }

// Valid reports whether p lies within [MinPrice, MaxPrice].
func (p Price) Valid() bool { return p >= MinPrice && p <= MaxPrice }

// MarshalJSON writes the price as a quoted two-decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare decimal numbers. Zero is allowed
// so chart placeholders round-trip; positivity is checked by constructors.
func (p *Price) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return errors.Wrapf(ErrInvalidInput, "malformed price %s", string(data))
	}
	if d.IsNegative() {
		return invalidf("price must not be negative, got %s", d.String())
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) {
		return invalidf("price must not exceed %s, got %s", MaxPrice, d.String())
	}
	*p = Price(cents.IntPart())
	return nil
}
