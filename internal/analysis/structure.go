package analysis

import "ict-trading-bot/internal/venue"

// BreakDirection is the direction of a detected break of structure.
type BreakDirection string

const (
	BullishBreak BreakDirection = "BULLISH"
	BearishBreak BreakDirection = "BEARISH"
)

// PriceRange is an inclusive low/high price zone. Low <= High always
// holds for ranges produced by this package.
type PriceRange struct {
	Low  float64
	High float64
}

// Contains reports whether price sits inside the zone, bounds included.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Low && price <= r.High
}

// StructureConfig holds the tunable thresholds for market-structure
// detection.
type StructureConfig struct {
	// ImpulseFactor is the body-to-prior-range ratio a candle must exceed
	// to qualify as displacement.
	ImpulseFactor float64
	// BreakScan is how many of the most recent candles are checked for a
	// structural break.
	BreakScan int
	// EnvelopeSize is how many candles preceding the break scan form the
	// swing high/low envelope.
	EnvelopeSize int
	// DisplacementLookback is the size of the trailing block scanned for
	// a displacement candle.
	DisplacementLookback int
}

// DefaultStructureConfig returns the production thresholds.
func DefaultStructureConfig() StructureConfig {
	return StructureConfig{
		ImpulseFactor:        1.2,
		BreakScan:            3,
		EnvelopeSize:         9,
		DisplacementLookback: 10,
	}
}

// StructureEvent bundles the structure facts derived from one window.
type StructureEvent struct {
	Direction         BreakDirection
	DisplacementIndex int
	OrderBlock        *PriceRange
	FVG               *PriceRange
}

// Analyzer detects break-of-structure, displacement, order-block and
// fair-value-gap patterns over a candle window. All methods are pure: they
// never mutate the window and signal absence by a false/nil result, never
// by an error.
type Analyzer struct {
	cfg StructureConfig
}

// NewAnalyzer creates an analyzer; zero-valued config fields fall back to
// the defaults.
func NewAnalyzer(cfg StructureConfig) *Analyzer {
	def := DefaultStructureConfig()
	if cfg.ImpulseFactor <= 0 {
		cfg.ImpulseFactor = def.ImpulseFactor
	}
	if cfg.BreakScan <= 0 {
		cfg.BreakScan = def.BreakScan
	}
	if cfg.EnvelopeSize <= 0 {
		cfg.EnvelopeSize = def.EnvelopeSize
	}
	if cfg.DisplacementLookback <= 0 {
		cfg.DisplacementLookback = def.DisplacementLookback
	}
	return &Analyzer{cfg: cfg}
}

// DetectBreakOfStructure checks whether any of the last few candles broke
// the swing high/low envelope built from the candles before them. A close
// or wick beyond the envelope counts; the bullish check takes precedence
// within the same candle.
func (a *Analyzer) DetectBreakOfStructure(window []venue.Candle) (BreakDirection, bool) {
	need := a.cfg.BreakScan + a.cfg.EnvelopeSize
	if len(window) < need {
		return "", false
	}

	n := len(window)
	prevHigh, prevLow := HighLowEnvelope(window[n-need : n-a.cfg.BreakScan])

	for _, c := range window[n-a.cfg.BreakScan:] {
		if c.Close > prevHigh || c.High > prevHigh {
			return BullishBreak, true
		}
		if c.Close < prevLow || c.Low < prevLow {
			return BearishBreak, true
		}
	}
	return "", false
}

// FindDisplacement scans the trailing lookback block, excluding the very
// last candle, for the first candle whose body exceeds the impulse factor
// times the prior candle's range. It returns the window index of that
// candle.
func (a *Analyzer) FindDisplacement(window []venue.Candle) (int, bool) {
	n := len(window)
	if n < a.cfg.DisplacementLookback+1 {
		return 0, false
	}

	for i := n - a.cfg.DisplacementLookback; i < n-1; i++ {
		if i < 1 {
			continue
		}
		prevRange := window[i-1].High - window[i-1].Low
		if window[i].Body() > prevRange*a.cfg.ImpulseFactor {
			return i, true
		}
	}
	return 0, false
}

// FindOrderBlock walks backward from the displacement candle looking for
// the last candle of opposite polarity: a bearish candle for a bullish
// break, a bullish candle for a bearish break.
func (a *Analyzer) FindOrderBlock(window []venue.Candle, dispIndex int, direction BreakDirection) *PriceRange {
	if dispIndex > len(window) {
		return nil
	}

	for i := dispIndex - 1; i >= 1; i-- {
		c := window[i]
		if direction == BullishBreak && c.Bearish() {
			return &PriceRange{Low: c.Low, High: c.High}
		}
		if direction == BearishBreak && c.Bullish() {
			return &PriceRange{Low: c.Low, High: c.High}
		}
	}
	return nil
}

// FindFVG checks for a fair value gap between the candle two positions
// before the displacement and the displacement candle itself.
func (a *Analyzer) FindFVG(window []venue.Candle, dispIndex int, direction BreakDirection) *PriceRange {
	if dispIndex < 2 || dispIndex >= len(window) {
		return nil
	}

	c1 := window[dispIndex-2]
	c3 := window[dispIndex]

	if direction == BullishBreak && c3.Low > c1.High {
		return &PriceRange{Low: c1.High, High: c3.Low}
	}
	if direction == BearishBreak && c3.High < c1.Low {
		return &PriceRange{Low: c3.High, High: c1.Low}
	}
	return nil
}

// Analyze runs the full structure pipeline and returns a StructureEvent,
// or false when no break or no displacement exists in the window.
func (a *Analyzer) Analyze(window []venue.Candle) (StructureEvent, bool) {
	direction, ok := a.DetectBreakOfStructure(window)
	if !ok {
		return StructureEvent{}, false
	}

	dispIndex, ok := a.FindDisplacement(window)
	if !ok {
		return StructureEvent{}, false
	}

	return StructureEvent{
		Direction:         direction,
		DisplacementIndex: dispIndex,
		OrderBlock:        a.FindOrderBlock(window, dispIndex, direction),
		FVG:               a.FindFVG(window, dispIndex, direction),
	}, true
}
