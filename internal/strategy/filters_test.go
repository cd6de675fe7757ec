package strategy

import (
	"testing"

	"github.com/rs/zerolog"

	"ict-trading-bot/internal/analysis"
	"ict-trading-bot/internal/venue"
)

// risingWindow builds n candles whose closes rise by drift per candle.
func risingWindow(n int, base, drift float64) []venue.Candle {
	window := make([]venue.Candle, n)
	for i := range window {
		close := base + drift*float64(i)
		window[i] = mkCandle(close-drift, close+0.0005, close-0.0015, close)
	}
	return window
}

func newFilters(cfg FilterConfig) *Filters {
	return NewFilters(cfg, zerolog.Nop())
}

func TestTrendFilter(t *testing.T) {
	f := newFilters(FilterConfig{TrendEnabled: true})
	window := risingWindow(120, 1.0, 0.0003)

	if ok, reason := f.Apply(&Signal{Direction: venue.Buy}, window, nil); !ok {
		t.Errorf("buy with trend rejected: %s", reason)
	}

	ok, reason := f.Apply(&Signal{Direction: venue.Sell}, window, nil)
	if ok {
		t.Error("counter-trend sell passed the trend filter")
	}
	if reason != ReasonTrendFilter {
		t.Errorf("reason = %q, want %q", reason, ReasonTrendFilter)
	}
}

func TestHTFBiasFilter(t *testing.T) {
	f := newFilters(FilterConfig{HTFEnabled: true})
	up := risingWindow(120, 1.0, 0.0003)
	down := risingWindow(120, 1.1, -0.0003)

	t.Run("aligned bias passes", func(t *testing.T) {
		htf := []HTFWindow{{Timeframe: "H1", Candles: up}}
		if ok, reason := f.Apply(&Signal{Direction: venue.Buy}, up, htf); !ok {
			t.Errorf("aligned buy rejected: %s", reason)
		}
	})

	t.Run("opposing bias fails", func(t *testing.T) {
		htf := []HTFWindow{{Timeframe: "H1", Candles: down}}
		ok, reason := f.Apply(&Signal{Direction: venue.Buy}, up, htf)
		if ok {
			t.Error("buy against a bearish H1 passed")
		}
		if reason != ReasonHTFMismatch {
			t.Errorf("reason = %q, want the bare %q", reason, ReasonHTFMismatch)
		}
	})

	t.Run("missing data fails closed", func(t *testing.T) {
		htf := []HTFWindow{{Timeframe: "H1"}}
		ok, reason := f.Apply(&Signal{Direction: venue.Buy}, up, htf)
		if ok {
			t.Error("empty higher-timeframe window passed")
		}
		if reason != ReasonHTFMismatch {
			t.Errorf("reason = %q, want the bare %q", reason, ReasonHTFMismatch)
		}
	})
}

func TestLiquiditySweepFilter(t *testing.T) {
	f := newFilters(FilterConfig{SweepEnabled: true})

	// 48 session candles around 1.0 followed by a 12-candle lookback.
	base := flatWindow(60, 1.0)

	t.Run("pierce and reclaim passes", func(t *testing.T) {
		window := append([]venue.Candle(nil), base...)
		window[55] = mkCandle(1.0, 1.0005, 0.998, 1.0002) // sweeps the prior low, closes back inside
		if ok, reason := f.Apply(&Signal{Direction: venue.Buy}, window, nil); !ok {
			t.Errorf("swept low rejected: %s", reason)
		}
	})

	t.Run("no sweep fails", func(t *testing.T) {
		ok, reason := f.Apply(&Signal{Direction: venue.Buy}, base, nil)
		if ok {
			t.Error("unswept market passed")
		}
		if reason != ReasonSweepFailed {
			t.Errorf("reason = %q, want %q", reason, ReasonSweepFailed)
		}
	})

	t.Run("insufficient history fails closed", func(t *testing.T) {
		ok, reason := f.Apply(&Signal{Direction: venue.Buy}, base[:30], nil)
		if ok {
			t.Error("short window passed the sweep filter")
		}
		if reason != ReasonSweepFailed {
			t.Errorf("reason = %q, want the bare %q", reason, ReasonSweepFailed)
		}
	})

	t.Run("sell needs the prior high swept", func(t *testing.T) {
		window := append([]venue.Candle(nil), base...)
		window[57] = mkCandle(1.0, 1.002, 0.9995, 0.9998) // pierces the prior high, closes back under
		if ok, reason := f.Apply(&Signal{Direction: venue.Sell}, window, nil); !ok {
			t.Errorf("swept high rejected: %s", reason)
		}
	})
}

func TestInvertedFVGFilter(t *testing.T) {
	f := newFilters(FilterConfig{InversionEnabled: true})
	gap := &analysis.PriceRange{Low: 1.0, High: 1.002}

	tests := []struct {
		name      string
		sig       *Signal
		lastClose float64
		wantOK    bool
	}{
		{"buy inside the gap proceeds", &Signal{Direction: venue.Buy, Pattern: PatternFVG, FVG: gap}, 1.001, true},
		{"buy above the gap proceeds", &Signal{Direction: venue.Buy, Pattern: PatternFVG, FVG: gap}, 1.003, true},
		{"buy through the gap low rejects", &Signal{Direction: venue.Buy, Pattern: PatternFVG, FVG: gap}, 0.999, false},
		{"sell inside the gap proceeds", &Signal{Direction: venue.Sell, Pattern: PatternFVG, FVG: gap}, 1.001, true},
		{"sell below the gap proceeds", &Signal{Direction: venue.Sell, Pattern: PatternFVG, FVG: gap}, 0.999, true},
		{"sell through the gap high rejects", &Signal{Direction: venue.Sell, Pattern: PatternFVG, FVG: gap}, 1.003, false},
		{"order block signals are exempt", &Signal{Direction: venue.Buy, Pattern: PatternOrderBlock}, 0.999, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := flatWindow(10, 1.0)
			last := &window[len(window)-1]
			last.Close = tt.lastClose
			if tt.lastClose > last.High {
				last.High = tt.lastClose
			}
			if tt.lastClose < last.Low {
				last.Low = tt.lastClose
			}

			ok, reason := f.Apply(tt.sig, window, nil)
			if ok != tt.wantOK {
				t.Errorf("Apply() = (%v, %q), want ok=%v", ok, reason, tt.wantOK)
			}
			if !ok && reason != ReasonFVGInverted {
				t.Errorf("reason = %q, want %q", reason, ReasonFVGInverted)
			}
		})
	}
}

// A gap-retracement entry must be able to clear the full default filter
// chain: the sweep candle at index 110 pierces the prior envelope low, the
// last close sits inside the still-valid gap, and the bias windows agree.
func TestFVGSignalClearsDefaultFilters(t *testing.T) {
	window := fvgSetup()

	sig := newGenerator().Generate("EURUSD", window, false)
	if sig == nil || sig.Pattern != PatternFVG {
		t.Fatalf("signal = %+v, want an FVG mitigation signal", sig)
	}

	f := newFilters(DefaultFilterConfig())
	htf := []HTFWindow{{Timeframe: "H1", Candles: risingWindow(120, 1.0, 0.0003)}}

	if ok, reason := f.Apply(sig, window, htf); !ok {
		t.Errorf("FVG mitigation signal rejected by the default filters: %s", reason)
	}
}
