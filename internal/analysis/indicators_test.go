package analysis

import (
	"math"
	"testing"

	"ict-trading-bot/internal/venue"
)

func TestCalculateEMASeries(t *testing.T) {
	t.Run("constant closes stay constant", func(t *testing.T) {
		window := flatWindow(30, 1.0)
		series := CalculateEMASeries(window, 10)
		if len(series) != 30 {
			t.Fatalf("series length = %d, want 30", len(series))
		}
		for i, v := range series {
			if math.Abs(v-1.0005) > 1e-12 {
				t.Fatalf("series[%d] = %v, want 1.0005", i, v)
			}
		}
	})

	t.Run("seeded with first close", func(t *testing.T) {
		window := []venue.Candle{
			mkCandle(1.0, 1.1, 0.9, 1.0),
			mkCandle(1.0, 1.3, 1.0, 1.2),
		}
		series := CalculateEMASeries(window, 9)
		if series[0] != 1.0 {
			t.Errorf("series[0] = %v, want the first close", series[0])
		}
		// multiplier 0.2: 1.2*0.2 + 1.0*0.8
		if math.Abs(series[1]-1.04) > 1e-12 {
			t.Errorf("series[1] = %v, want 1.04", series[1])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if series := CalculateEMASeries(nil, 10); series != nil {
			t.Errorf("CalculateEMASeries(nil) = %v, want nil", series)
		}
	})
}

func TestCalculateRangeATR(t *testing.T) {
	window := flatWindow(20, 1.0) // every candle spans 0.002

	if got := CalculateRangeATR(window, 14); math.Abs(got-0.002) > 1e-12 {
		t.Errorf("CalculateRangeATR() = %v, want 0.002", got)
	}
	if got := CalculateRangeATR(window[:5], 14); got != 0 {
		t.Errorf("CalculateRangeATR(short) = %v, want 0", got)
	}
}

func TestHighLowEnvelope(t *testing.T) {
	window := flatWindow(10, 1.0)
	window[3] = mkCandle(1.0, 1.02, 0.999, 1.01)
	window[7] = mkCandle(1.0, 1.001, 0.97, 0.98)

	high, low := HighLowEnvelope(window)
	if high != 1.02 || low != 0.97 {
		t.Errorf("HighLowEnvelope() = (%v, %v), want (1.02, 0.97)", high, low)
	}
}
