package analysis

import "ict-trading-bot/internal/venue"

// CalculateEMASeries calculates the full exponential moving average series
// over candle closes. The series is seeded with the first close and uses
// the standard 2/(period+1) smoothing factor, so ema[i] only depends on
// closes up to index i.
func CalculateEMASeries(candles []venue.Candle, period int) []float64 {
	if len(candles) == 0 || period <= 0 {
		return nil
	}

	multiplier := 2.0 / float64(period+1)
	series := make([]float64, len(candles))
	series[0] = candles[0].Close

	for i := 1; i < len(candles); i++ {
		series[i] = candles[i].Close*multiplier + series[i-1]*(1-multiplier)
	}

	return series
}

// CalculateEMA returns the latest value of the EMA series.
func CalculateEMA(candles []venue.Candle, period int) float64 {
	series := CalculateEMASeries(candles, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// CalculateRangeATR calculates the average candle range (high minus low)
// over the trailing period. This is the simple range variant used by the
// regime classifier, not the true-range ATR.
func CalculateRangeATR(candles []venue.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].High - candles[i].Low
	}

	return sum / float64(period)
}

// HighLowEnvelope returns the highest high and lowest low over the given
// candle slice.
func HighLowEnvelope(candles []venue.Candle) (high, low float64) {
	if len(candles) == 0 {
		return 0, 0
	}

	high = candles[0].High
	low = candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
