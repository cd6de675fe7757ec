package strategy

import (
	"github.com/rs/zerolog"

	"ict-trading-bot/internal/analysis"
	"ict-trading-bot/internal/venue"
)

// Suppression reasons surfaced to the operator when a signal is discarded.
// These are fixed constants; per-occurrence detail (which timeframe, why
// the data was short) goes to the log, not the reason.
const (
	ReasonTrendFilter = "trend filter failed"
	ReasonHTFMismatch = "HTF bias mismatch"
	ReasonSweepFailed = "liquidity sweep failed"
	ReasonFVGInverted = "FVG inverted against entry"
)

// FilterConfig holds the thresholds for the auxiliary signal filters.
type FilterConfig struct {
	TrendEnabled   bool
	TrendEMAPeriod int // default 200

	HTFEnabled   bool
	HTFEMAPeriod int // default 50

	SweepEnabled  bool
	SweepLookback int // candles in which the pierce-and-reclaim must occur
	SessionLength int // candles per session for the prior high/low

	InversionEnabled bool
}

// DefaultFilterConfig enables every filter with the standard periods.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		TrendEnabled:     true,
		TrendEMAPeriod:   200,
		HTFEnabled:       true,
		HTFEMAPeriod:     50,
		SweepEnabled:     true,
		SweepLookback:    12,
		SessionLength:    48,
		InversionEnabled: true,
	}
}

// HTFWindow is a higher-timeframe candle window used for bias checks.
type HTFWindow struct {
	Timeframe string
	Candles   []venue.Candle
}

// Filters applies the auxiliary checks a signal must pass before any
// sizing or order action. The generator itself only reports pattern-level
// signals; these checks belong to the caller.
type Filters struct {
	cfg    FilterConfig
	logger zerolog.Logger
}

// NewFilters creates a filter set; zero-valued periods fall back to the
// defaults.
func NewFilters(cfg FilterConfig, logger zerolog.Logger) *Filters {
	def := DefaultFilterConfig()
	if cfg.TrendEMAPeriod <= 0 {
		cfg.TrendEMAPeriod = def.TrendEMAPeriod
	}
	if cfg.HTFEMAPeriod <= 0 {
		cfg.HTFEMAPeriod = def.HTFEMAPeriod
	}
	if cfg.SweepLookback <= 0 {
		cfg.SweepLookback = def.SweepLookback
	}
	if cfg.SessionLength <= 0 {
		cfg.SessionLength = def.SessionLength
	}
	return &Filters{
		cfg:    cfg,
		logger: logger.With().Str("component", "filters").Logger(),
	}
}

// Apply runs every enabled filter in order and returns false with the
// first failure reason. A passing signal returns (true, ""). Reasons are
// always one of the Reason constants.
func (f *Filters) Apply(sig *Signal, window []venue.Candle, htf []HTFWindow) (bool, string) {
	if f.cfg.TrendEnabled {
		if ok, reason := f.checkTrend(sig, window); !ok {
			return false, reason
		}
	}
	if f.cfg.HTFEnabled {
		if ok, reason := f.checkHTFBias(sig, htf); !ok {
			return false, reason
		}
	}
	if f.cfg.SweepEnabled {
		if ok, reason := f.checkLiquiditySweep(sig, window); !ok {
			return false, reason
		}
	}
	if f.cfg.InversionEnabled {
		if ok, reason := f.checkInvertedFVG(sig, window); !ok {
			return false, reason
		}
	}
	return true, ""
}

// checkTrend rejects counter-trend signals against the long EMA of the
// signal timeframe.
func (f *Filters) checkTrend(sig *Signal, window []venue.Candle) (bool, string) {
	if len(window) == 0 {
		return false, ReasonTrendFilter
	}

	ema := analysis.CalculateEMA(window, f.cfg.TrendEMAPeriod)
	lastClose := window[len(window)-1].Close

	if sig.Direction == venue.Buy && lastClose < ema {
		return false, ReasonTrendFilter
	}
	if sig.Direction == venue.Sell && lastClose > ema {
		return false, ReasonTrendFilter
	}
	return true, ""
}

// checkHTFBias requires every higher-timeframe window to agree with the
// signal direction relative to its EMA.
func (f *Filters) checkHTFBias(sig *Signal, htf []HTFWindow) (bool, string) {
	for _, w := range htf {
		if len(w.Candles) == 0 {
			f.logger.Debug().Str("timeframe", w.Timeframe).Msg("no higher-timeframe data, failing closed")
			return false, ReasonHTFMismatch
		}

		ema := analysis.CalculateEMA(w.Candles, f.cfg.HTFEMAPeriod)
		lastClose := w.Candles[len(w.Candles)-1].Close

		if sig.Direction == venue.Buy && lastClose < ema {
			f.logger.Debug().Str("timeframe", w.Timeframe).Msg("bearish higher-timeframe bias against buy")
			return false, ReasonHTFMismatch
		}
		if sig.Direction == venue.Sell && lastClose > ema {
			f.logger.Debug().Str("timeframe", w.Timeframe).Msg("bullish higher-timeframe bias against sell")
			return false, ReasonHTFMismatch
		}
	}
	return true, ""
}

// checkLiquiditySweep requires that, within the lookback, price pierced
// the prior session's low (for buys) or high (for sells) and closed back
// inside it. The prior session is the block of candles immediately before
// the lookback region.
func (f *Filters) checkLiquiditySweep(sig *Signal, window []venue.Candle) (bool, string) {
	need := f.cfg.SessionLength + f.cfg.SweepLookback
	if len(window) < need {
		f.logger.Debug().Int("candles", len(window)).Int("need", need).Msg("too little history for the sweep check, failing closed")
		return false, ReasonSweepFailed
	}

	n := len(window)
	priorHigh, priorLow := analysis.HighLowEnvelope(window[n-need : n-f.cfg.SweepLookback])

	for _, c := range window[n-f.cfg.SweepLookback:] {
		if sig.Direction == venue.Buy && c.Low < priorLow && c.Close > priorLow {
			return true, ""
		}
		if sig.Direction == venue.Sell && c.High > priorHigh && c.Close < priorHigh {
			return true, ""
		}
	}
	return false, ReasonSweepFailed
}

// checkInvertedFVG rejects an FVG mitigation signal once price has closed
// through the far side of the gap: a bullish gap whose low has given way
// is inverted and no longer supports the entry. Closes inside the gap or
// past the near boundary keep the signal alive. Order-block and momentum
// signals are exempt.
func (f *Filters) checkInvertedFVG(sig *Signal, window []venue.Candle) (bool, string) {
	if sig.Pattern != PatternFVG || sig.FVG == nil {
		return true, ""
	}
	if len(window) == 0 {
		return false, ReasonFVGInverted
	}

	lastClose := window[len(window)-1].Close

	if sig.Direction == venue.Buy && lastClose <= sig.FVG.Low {
		return false, ReasonFVGInverted
	}
	if sig.Direction == venue.Sell && lastClose >= sig.FVG.High {
		return false, ReasonFVGInverted
	}
	return true, ""
}
