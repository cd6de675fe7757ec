package analysis

import (
	"testing"
	"time"

	"ict-trading-bot/internal/venue"
)

// seriesWindow builds n candles whose closes move by drift per candle and
// whose high/low straddle the close by halfRange on each side. Candle
// times advance one minute per candle from start.
func seriesWindow(n int, start time.Time, base, drift, halfRange float64) []venue.Candle {
	window := make([]venue.Candle, n)
	for i := range window {
		close := base + drift*float64(i)
		window[i] = venue.Candle{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  close - drift,
			High:  close + halfRange,
			Low:   close - halfRange,
			Close: close,
		}
	}
	return window
}

func TestClassifyShortWindow(t *testing.T) {
	c := NewClassifier(RegimeConfig{})
	window := seriesWindow(20, time.Now(), 1.0, 0, 0.0004)

	if got := c.Classify(window, false, nil); got != Ranging {
		t.Errorf("Classify(short window) = %q, want %q", got, Ranging)
	}
}

func TestClassifySessionGate(t *testing.T) {
	c := NewClassifier(RegimeConfig{})
	session := &SessionHours{Start: 8, End: 17}

	// Strongly trending candles, but the last one prints at 22:00.
	start := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)
	window := seriesWindow(60, start, 1.0, 0.0003, 0.0004)

	if got := c.Classify(window, false, session); got != Consolidation {
		t.Errorf("Classify(off-session) = %q, want %q", got, Consolidation)
	}

	// The same window inside the session trends normally.
	inSession := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window = seriesWindow(60, inSession, 1.0, 0.0003, 0.0004)
	if got := c.Classify(window, false, session); got != TrendUp {
		t.Errorf("Classify(in-session) = %q, want %q", got, TrendUp)
	}
}

func TestClassifyTrends(t *testing.T) {
	c := NewClassifier(RegimeConfig{})
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		drift float64
		want  Regime
	}{
		{"uptrend", 0.0003, TrendUp},
		{"downtrend", -0.0003, TrendDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := seriesWindow(60, start, 1.0, tt.drift, 0.0004)
			if got := c.Classify(window, false, nil); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyVolatilityOverlays(t *testing.T) {
	c := NewClassifier(RegimeConfig{})
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("dead market is consolidation", func(t *testing.T) {
		window := seriesWindow(60, start, 1.0, 0, 0.0001)
		if got := c.Classify(window, false, nil); got != Consolidation {
			t.Errorf("Classify() = %q, want %q", got, Consolidation)
		}
	})

	t.Run("wide directionless market is volatile", func(t *testing.T) {
		window := seriesWindow(60, start, 1.0, 0, 0.00075)
		if got := c.Classify(window, false, nil); got != Volatile {
			t.Errorf("Classify() = %q, want %q", got, Volatile)
		}
	})
}

func TestClassifyMomentumOverride(t *testing.T) {
	c := NewClassifier(RegimeConfig{})
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	// Barely drifting but with real range: not a trend by EMA separation,
	// yet enough movement for a momentum entry.
	window := seriesWindow(60, start, 1.0, 0.0000005, 0.0005)

	if got := c.Classify(window, true, nil); got != TrendUp {
		t.Errorf("Classify(momentum allowed) = %q, want %q", got, TrendUp)
	}
	if got := c.Classify(window, false, nil); got != Ranging {
		t.Errorf("Classify(momentum disallowed) = %q, want %q", got, Ranging)
	}
}
