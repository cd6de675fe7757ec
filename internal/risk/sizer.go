package risk

import (
	"errors"
	"fmt"

	"ict-trading-bot/internal/venue"
)

// Sizing errors
var (
	// ErrInvalidStopDistance means the caller passed a non-positive stop
	// distance. This is a contract violation, not a market condition, so
	// sizing fails fast instead of silently clamping.
	ErrInvalidStopDistance = errors.New("stop distance must be positive")
	// ErrInvalidSymbolSpec means the venue returned unusable contract
	// parameters (zero point or tick value).
	ErrInvalidSymbolSpec = errors.New("invalid symbol specification")
)

// LotBounds clamps every computed position size.
type LotBounds struct {
	Min float64
	Max float64
}

// SizePosition converts account equity, the per-trade risk fraction and
// the stop distance in points into a lot size, clamped to the configured
// bounds. The result is always within [Min, Max] and never negative.
func SizePosition(equity, riskFraction, stopPoints float64, spec *venue.SymbolSpec, bounds LotBounds) (float64, error) {
	if stopPoints <= 0 {
		return 0, fmt.Errorf("sizing %s: %w", spec.Symbol, ErrInvalidStopDistance)
	}
	if spec.Point <= 0 || spec.TickValue <= 0 {
		return 0, fmt.Errorf("sizing %s: point=%v tick_value=%v: %w",
			spec.Symbol, spec.Point, spec.TickValue, ErrInvalidSymbolSpec)
	}

	riskAmount := equity * riskFraction
	lot := riskAmount / (stopPoints * spec.Point * spec.TickValue)

	if lot > bounds.Max {
		lot = bounds.Max
	}
	if lot < bounds.Min {
		lot = bounds.Min
	}
	return lot, nil
}
