package pricing

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a referenced product does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks values rejected at construction: non-positive
	// prices, unknown competitors or sources, zero dates.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned by a store when a conditional update lost a race
	// with a concurrent price change.
	ErrConflict = errors.New("conflict")
)

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
