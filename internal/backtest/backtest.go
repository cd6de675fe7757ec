// Package backtest replays historical candles through the live signal
// pipeline. Exits are fixed stop/target brackets, and results are booked
// as risk multiples so the replay does not depend on venue sizing rules.
package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ict-trading-bot/internal/analysis"
	"ict-trading-bot/internal/strategy"
	"ict-trading-bot/internal/venue"
)

// Config holds the replay parameters.
type Config struct {
	Symbol         string
	WindowSize     int     // candles fed to the strategy per bar
	SLPoints       float64 // stop distance in points
	TPPoints       float64 // target distance in points
	Point          float64 // price units per point
	RiskPerTrade   float64 // fraction of balance risked per trade
	InitialBalance float64
	AllowMomentum  bool
	Session        *analysis.SessionHours
}

// Trade is one completed round trip in the replay.
type Trade struct {
	Direction  venue.Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Profit     float64
	Reason     string // stop, target or end
}

// Result summarizes a replay run.
type Result struct {
	Symbol         string
	InitialBalance float64
	FinalBalance   float64
	Trades         []Trade
	Wins           int
	Losses         int
	MaxDrawdown    float64 // fraction of peak balance
}

// WinRate returns the fraction of closed trades that hit the target.
func (r *Result) WinRate() float64 {
	total := r.Wins + r.Losses
	if total == 0 {
		return 0
	}
	return float64(r.Wins) / float64(total)
}

type openPosition struct {
	direction  venue.Direction
	entryTime  time.Time
	entryPrice float64
	stopLoss   float64
	takeProfit float64
	riskAmount float64
}

// Backtest drives the signal pipeline over a historical window.
type Backtest struct {
	generator  *strategy.Generator
	classifier *analysis.Classifier
	logger     zerolog.Logger
}

// New creates a replay engine around the given pipeline components.
func New(generator *strategy.Generator, classifier *analysis.Classifier, logger zerolog.Logger) *Backtest {
	return &Backtest{
		generator:  generator,
		classifier: classifier,
		logger:     logger.With().Str("component", "backtest").Logger(),
	}
}

// Run replays candles oldest-first and returns the aggregate result. At
// most one position is open at a time; entries fill at the next candle's
// open, and a candle that touches both bracket sides books the stop.
func (b *Backtest) Run(candles []venue.Candle, cfg Config) (*Result, error) {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = strategy.MinSignalCandles
	}
	if len(candles) <= cfg.WindowSize {
		return nil, fmt.Errorf("need more than %d candles, got %d", cfg.WindowSize, len(candles))
	}
	if cfg.SLPoints <= 0 || cfg.Point <= 0 {
		return nil, fmt.Errorf("stop distance and point size must be positive")
	}

	result := &Result{
		Symbol:         cfg.Symbol,
		InitialBalance: cfg.InitialBalance,
		FinalBalance:   cfg.InitialBalance,
	}
	rewardRatio := cfg.TPPoints / cfg.SLPoints
	peak := cfg.InitialBalance

	var pos *openPosition
	for i := cfg.WindowSize; i < len(candles); i++ {
		candle := candles[i]

		if pos != nil {
			if trade, closed := b.tryExit(pos, candle, rewardRatio); closed {
				result.book(trade)
				pos = nil
			}
		}

		if pos != nil || i+1 >= len(candles) {
			continue
		}

		window := candles[i-cfg.WindowSize+1 : i+1]
		regime := b.classifier.Classify(window, cfg.AllowMomentum, cfg.Session)
		if regime == analysis.Consolidation || regime == analysis.Ranging {
			continue
		}

		sig := b.generator.Generate(cfg.Symbol, window, cfg.AllowMomentum)
		if sig == nil {
			continue
		}
		if (regime == analysis.TrendUp && sig.Direction == venue.Sell) ||
			(regime == analysis.TrendDown && sig.Direction == venue.Buy) {
			continue
		}

		entry := candles[i+1].Open
		stop := entry - cfg.SLPoints*cfg.Point
		target := entry + cfg.TPPoints*cfg.Point
		if sig.Direction == venue.Sell {
			stop = entry + cfg.SLPoints*cfg.Point
			target = entry - cfg.TPPoints*cfg.Point
		}

		pos = &openPosition{
			direction:  sig.Direction,
			entryTime:  candles[i+1].Time,
			entryPrice: entry,
			stopLoss:   stop,
			takeProfit: target,
			riskAmount: result.FinalBalance * cfg.RiskPerTrade,
		}
	}

	if pos != nil {
		last := candles[len(candles)-1]
		profit := markToMarket(pos, last.Close, rewardRatio)
		result.book(Trade{
			Direction:  pos.direction,
			EntryTime:  pos.entryTime,
			ExitTime:   last.Time,
			EntryPrice: pos.entryPrice,
			ExitPrice:  last.Close,
			Profit:     profit,
			Reason:     "end",
		})
	}

	balance := cfg.InitialBalance
	for i := range result.Trades {
		balance += result.Trades[i].Profit
		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			if dd := (peak - balance) / peak; dd > result.MaxDrawdown {
				result.MaxDrawdown = dd
			}
		}
	}

	b.logger.Info().
		Str("symbol", cfg.Symbol).
		Int("trades", len(result.Trades)).
		Int("wins", result.Wins).
		Int("losses", result.Losses).
		Float64("final_balance", result.FinalBalance).
		Float64("max_drawdown", result.MaxDrawdown).
		Msg("replay complete")
	return result, nil
}

// tryExit checks one candle against the bracket. The stop is checked
// first: when a candle spans both levels the pessimistic fill wins.
func (b *Backtest) tryExit(pos *openPosition, candle venue.Candle, rewardRatio float64) (Trade, bool) {
	stopHit := candle.Low <= pos.stopLoss
	targetHit := candle.High >= pos.takeProfit
	if pos.direction == venue.Sell {
		stopHit = candle.High >= pos.stopLoss
		targetHit = candle.Low <= pos.takeProfit
	}

	switch {
	case stopHit:
		return Trade{
			Direction:  pos.direction,
			EntryTime:  pos.entryTime,
			ExitTime:   candle.Time,
			EntryPrice: pos.entryPrice,
			ExitPrice:  pos.stopLoss,
			Profit:     -pos.riskAmount,
			Reason:     "stop",
		}, true
	case targetHit:
		return Trade{
			Direction:  pos.direction,
			EntryTime:  pos.entryTime,
			ExitTime:   candle.Time,
			EntryPrice: pos.entryPrice,
			ExitPrice:  pos.takeProfit,
			Profit:     pos.riskAmount * rewardRatio,
			Reason:     "target",
		}, true
	}
	return Trade{}, false
}

// markToMarket values a still-open position at the given price as a
// fraction of the risk amount.
func markToMarket(pos *openPosition, price, rewardRatio float64) float64 {
	stopDistance := pos.entryPrice - pos.stopLoss
	if pos.direction == venue.Sell {
		stopDistance = pos.stopLoss - pos.entryPrice
	}
	if stopDistance <= 0 {
		return 0
	}

	move := price - pos.entryPrice
	if pos.direction == venue.Sell {
		move = pos.entryPrice - price
	}
	return pos.riskAmount * (move / stopDistance)
}

func (r *Result) book(t Trade) {
	r.Trades = append(r.Trades, t)
	r.FinalBalance += t.Profit
	switch {
	case t.Profit > 0:
		r.Wins++
	case t.Profit < 0:
		r.Losses++
	}
}
