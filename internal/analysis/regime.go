package analysis

import (
	"math"

	"ict-trading-bot/internal/venue"
)

// Regime labels the short-term market character used to gate trade-taking.
type Regime string

const (
	TrendUp       Regime = "TREND_UP"
	TrendDown     Regime = "TREND_DOWN"
	Ranging       Regime = "RANGING"
	Volatile      Regime = "VOLATILE"
	Consolidation Regime = "CONSOLIDATION"
)

// SessionHours restricts trading to candle hours in [Start, End).
type SessionHours struct {
	Start int
	End   int
}

// RegimeConfig holds the classifier thresholds. Pip thresholds are
// expressed against PipSize so the classifier works for any symbol
// pricing convention.
type RegimeConfig struct {
	PipSize              float64 // price units per pip
	FastPeriod           int     // fast EMA span
	SlowPeriod           int     // slow EMA span
	ATRPeriod            int     // range-ATR span
	TrendPips            float64 // EMA separation needed for a trend label
	TrendPipsMomentum    float64 // looser separation when momentum entries are allowed
	MomentumATRPips      float64 // ATR floor for the ranging-to-trend momentum override
	ConsolidationATRPips float64 // below this the market is dead
	VolatileATRPips      float64 // above this a ranging market is volatile
	MinCandles           int     // classification floor
}

// DefaultRegimeConfig returns thresholds tuned for 5-digit FX pricing.
func DefaultRegimeConfig() RegimeConfig {
	return RegimeConfig{
		PipSize:              0.0001,
		FastPeriod:           20,
		SlowPeriod:           50,
		ATRPeriod:            14,
		TrendPips:            0.5,
		TrendPipsMomentum:    0.2,
		MomentumATRPips:      8,
		ConsolidationATRPips: 4,
		VolatileATRPips:      12,
	}
}

// Classifier derives a regime label from a candle window. Derived per
// call, never persisted.
type Classifier struct {
	cfg RegimeConfig
}

// NewClassifier creates a classifier; zero-valued config fields fall back
// to the defaults.
func NewClassifier(cfg RegimeConfig) *Classifier {
	def := DefaultRegimeConfig()
	if cfg.PipSize <= 0 {
		cfg.PipSize = def.PipSize
	}
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = def.FastPeriod
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = def.SlowPeriod
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.TrendPips <= 0 {
		cfg.TrendPips = def.TrendPips
	}
	if cfg.TrendPipsMomentum <= 0 {
		cfg.TrendPipsMomentum = def.TrendPipsMomentum
	}
	if cfg.MomentumATRPips <= 0 {
		cfg.MomentumATRPips = def.MomentumATRPips
	}
	if cfg.ConsolidationATRPips <= 0 {
		cfg.ConsolidationATRPips = def.ConsolidationATRPips
	}
	if cfg.VolatileATRPips <= 0 {
		cfg.VolatileATRPips = def.VolatileATRPips
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = 50
	}
	return &Classifier{cfg: cfg}
}

// Classify labels the market regime for the window. Windows shorter than
// the floor are RANGING, and a latest candle outside the session hours is
// CONSOLIDATION regardless of anything else.
func (c *Classifier) Classify(window []venue.Candle, allowMomentum bool, session *SessionHours) Regime {
	if len(window) < c.cfg.MinCandles {
		return Ranging
	}

	// Session gate has absolute priority
	if session != nil {
		hour := window[len(window)-1].Time.Hour()
		if hour < session.Start || hour >= session.End {
			return Consolidation
		}
	}

	fast := CalculateEMASeries(window, c.cfg.FastPeriod)
	slow := CalculateEMASeries(window, c.cfg.SlowPeriod)

	fastNow := fast[len(fast)-1]
	fastPrev := fast[len(fast)-2]
	slowNow := slow[len(slow)-1]

	slope := fastNow - fastPrev
	separationPips := math.Abs(fastNow-slowNow) / c.cfg.PipSize

	threshold := c.cfg.TrendPips
	if allowMomentum {
		threshold = c.cfg.TrendPipsMomentum
	}

	trend := Ranging
	switch {
	case fastNow > slowNow && slope > 0 && separationPips > threshold:
		trend = TrendUp
	case fastNow < slowNow && slope < 0 && separationPips > threshold:
		trend = TrendDown
	}

	atrPips := CalculateRangeATR(window, c.cfg.ATRPeriod) / c.cfg.PipSize

	// Momentum override: a ranging market with enough range still trades
	// in the direction the EMAs imply.
	if allowMomentum && trend == Ranging && atrPips > c.cfg.MomentumATRPips {
		if fastNow > slowNow {
			trend = TrendUp
		} else {
			trend = TrendDown
		}
	}

	// Volatility overlay
	switch {
	case atrPips < c.cfg.ConsolidationATRPips:
		return Consolidation
	case atrPips > c.cfg.VolatileATRPips && trend == Ranging:
		return Volatile
	default:
		return trend
	}
}
