package strategy

import (
	"github.com/rs/zerolog"

	"ict-trading-bot/internal/analysis"
	"ict-trading-bot/internal/venue"
)

// EntryType distinguishes retracement entries from direct break entries.
type EntryType string

const (
	EntryMitigation EntryType = "MITIGATION"
	EntryMomentum   EntryType = "MOMENTUM"
)

// PatternType is the structure pattern that produced the signal.
type PatternType string

const (
	PatternOrderBlock PatternType = "OB"
	PatternFVG        PatternType = "FVG"
	PatternMomentum   PatternType = "MOMENTUM"
)

// Signal is a single directional trade signal. It is an immutable value
// produced at most once per cycle per symbol; signals are never merged or
// queued. FVG is only set for FVG mitigation signals so the inversion
// filter can be a total function over the variant.
type Signal struct {
	Direction venue.Direction
	EntryType EntryType
	Pattern   PatternType
	FVG       *analysis.PriceRange
}

// MinSignalCandles is the window floor for a full signal decision. The
// break detection itself needs far fewer candles, but displacement and the
// EMA-based filters downstream want real history behind them.
const MinSignalCandles = 100

// Generator composes structure analysis into trade signals.
type Generator struct {
	analyzer *analysis.Analyzer
	logger   zerolog.Logger
}

// NewGenerator creates a signal generator on top of the given structure
// analyzer.
func NewGenerator(analyzer *analysis.Analyzer, logger zerolog.Logger) *Generator {
	return &Generator{
		analyzer: analyzer,
		logger:   logger.With().Str("component", "signal").Logger(),
	}
}

// Generate runs the entry model over the window and returns a signal, or
// nil when the market shows no qualifying setup. Insufficient data is not
// an error; it simply yields no signal.
//
// Entry precedence against the last close: order-block mitigation wins,
// then FVG mitigation, then a momentum entry if allowed.
func (g *Generator) Generate(symbol string, window []venue.Candle, allowMomentum bool) *Signal {
	log := g.logger.With().Str("symbol", symbol).Logger()

	if len(window) < MinSignalCandles {
		log.Debug().Int("candles", len(window)).Msg("not enough candles for signal")
		return nil
	}

	direction, ok := g.analyzer.DetectBreakOfStructure(window)
	if !ok {
		log.Debug().Msg("no break of structure")
		return nil
	}

	dispIndex, ok := g.analyzer.FindDisplacement(window)
	if !ok {
		log.Debug().Msg("no displacement")
		return nil
	}

	orderBlock := g.analyzer.FindOrderBlock(window, dispIndex, direction)
	fvg := g.analyzer.FindFVG(window, dispIndex, direction)
	lastClose := window[len(window)-1].Close

	side := venue.Buy
	if direction == analysis.BearishBreak {
		side = venue.Sell
	}

	log.Debug().
		Str("break", string(direction)).
		Int("displacement_index", dispIndex).
		Float64("last_close", lastClose).
		Msg("structure detected")

	if orderBlock != nil && orderBlock.Contains(lastClose) {
		return &Signal{Direction: side, EntryType: EntryMitigation, Pattern: PatternOrderBlock}
	}

	if fvg != nil && fvg.Contains(lastClose) {
		return &Signal{Direction: side, EntryType: EntryMitigation, Pattern: PatternFVG, FVG: fvg}
	}

	if allowMomentum {
		return &Signal{Direction: side, EntryType: EntryMomentum, Pattern: PatternMomentum}
	}

	return nil
}
