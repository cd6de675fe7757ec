package backtest

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ict-trading-bot/internal/analysis"
	"ict-trading-bot/internal/strategy"
	"ict-trading-bot/internal/venue"
)

func quietCandles(n int) []venue.Candle {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]venue.Candle, n)
	for i := range candles {
		candles[i] = venue.Candle{
			Time:  start.Add(time.Duration(i) * 5 * time.Minute),
			Open:  1.0,
			High:  1.001,
			Low:   0.999,
			Close: 1.0005,
		}
	}
	return candles
}

func newBacktest() *Backtest {
	generator := strategy.NewGenerator(analysis.NewAnalyzer(analysis.StructureConfig{}), zerolog.Nop())
	classifier := analysis.NewClassifier(analysis.RegimeConfig{})
	return New(generator, classifier, zerolog.Nop())
}

func TestRunInsufficientData(t *testing.T) {
	b := newBacktest()
	_, err := b.Run(quietCandles(50), Config{
		Symbol:         "EURUSD",
		SLPoints:       200,
		TPPoints:       200,
		Point:          0.00001,
		RiskPerTrade:   0.01,
		InitialBalance: 10000,
	})
	if err == nil {
		t.Fatal("Run() = nil error on an undersized window")
	}
}

func TestRunQuietMarketNoTrades(t *testing.T) {
	b := newBacktest()
	result, err := b.Run(quietCandles(150), Config{
		Symbol:         "EURUSD",
		SLPoints:       200,
		TPPoints:       200,
		Point:          0.00001,
		RiskPerTrade:   0.01,
		InitialBalance: 10000,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Errorf("trades = %d, want none in a quiet market", len(result.Trades))
	}
	if result.FinalBalance != 10000 {
		t.Errorf("final balance = %v, want untouched 10000", result.FinalBalance)
	}
	if result.WinRate() != 0 {
		t.Errorf("win rate = %v, want 0 with no trades", result.WinRate())
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	b := newBacktest()
	_, err := b.Run(quietCandles(150), Config{
		Symbol:         "EURUSD",
		SLPoints:       0,
		Point:          0.00001,
		InitialBalance: 10000,
	})
	if err == nil {
		t.Fatal("Run() accepted a zero stop distance")
	}
}
