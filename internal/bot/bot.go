// Package bot runs the evaluation loop: one pass over every configured
// symbol per interval, from market analysis through order placement and
// open-trade management.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ict-trading-bot/config"
	"ict-trading-bot/internal/analysis"
	"ict-trading-bot/internal/journal"
	"ict-trading-bot/internal/lifecycle"
	"ict-trading-bot/internal/metrics"
	"ict-trading-bot/internal/notify"
	"ict-trading-bot/internal/risk"
	"ict-trading-bot/internal/strategy"
	"ict-trading-bot/internal/venue"
)

// Venue is the slice of the gateway the engine drives.
type Venue interface {
	Tick(symbol string) (*venue.Tick, error)
	Candles(symbol, timeframe string, count int) ([]venue.Candle, error)
	SymbolInfo(symbol string) (*venue.SymbolSpec, error)
	AccountInfo() (*venue.AccountInfo, error)
	Positions(symbol string) ([]venue.Position, error)
	PositionByTicket(ticket int64) (*venue.Position, error)
	OrderSend(req *venue.OrderRequest) (*venue.OrderResult, error)
	DealHistory(from, to time.Time) ([]venue.Deal, error)
	Shutdown() error
}

// openTrade keeps the prices recorded at entry so the lifecycle manager
// can compute thresholds without trusting mutable venue state.
type openTrade struct {
	ticket     int64
	symbol     string
	entryPrice float64
	stopLoss   float64
	takeProfit float64
}

// DealCursor tracks the highest deal ticket already journaled, so closed
// trades are recorded exactly once across cycles.
type DealCursor struct {
	last int64
}

// Advance reports whether ticket is new and moves the cursor past it.
func (c *DealCursor) Advance(ticket int64) bool {
	if ticket <= c.last {
		return false
	}
	c.last = ticket
	return true
}

// Bot owns the per-interval evaluation cycle.
type Bot struct {
	cfg        *config.Config
	venue      Venue
	generator  *strategy.Generator
	filters    *strategy.Filters
	classifier *analysis.Classifier
	session    *analysis.SessionHours
	guard      *risk.DrawdownGuard
	manager    *lifecycle.Manager
	recorder   journal.Recorder
	notifier   notify.Notifier
	logger     zerolog.Logger

	mu     sync.Mutex
	open   map[int64]*openTrade
	cursor DealCursor
}

// New wires the engine from configuration. The venue is expected to be
// the resilient gateway; the engine itself never retries.
func New(cfg *config.Config, v Venue, notifier notify.Notifier, recorder journal.Recorder, logger zerolog.Logger) *Bot {
	analyzer := analysis.NewAnalyzer(analysis.StructureConfig{
		ImpulseFactor: cfg.Strategy.ImpulseFactor,
	})

	classifier := analysis.NewClassifier(analysis.RegimeConfig{
		PipSize:              cfg.Strategy.PipSize,
		TrendPips:            cfg.Strategy.TrendPips,
		TrendPipsMomentum:    cfg.Strategy.TrendPipsMomentum,
		MomentumATRPips:      cfg.Strategy.MomentumATRPips,
		ConsolidationATRPips: cfg.Strategy.ConsolidationATRPips,
		VolatileATRPips:      cfg.Strategy.VolatileATRPips,
	})

	filters := strategy.NewFilters(strategy.FilterConfig{
		TrendEnabled:     cfg.Strategy.TrendFilterEnabled,
		TrendEMAPeriod:   cfg.Strategy.TrendEMAPeriod,
		HTFEnabled:       cfg.Strategy.HTFFilterEnabled,
		HTFEMAPeriod:     cfg.Strategy.HTFEMAPeriod,
		SweepEnabled:     cfg.Strategy.SweepFilterEnabled,
		SweepLookback:    cfg.Strategy.SweepLookback,
		SessionLength:    cfg.Strategy.SweepSessionLength,
		InversionEnabled: cfg.Strategy.InversionFilterOn,
	}, logger)

	guard := risk.NewDrawdownGuard(cfg.Risk.DailyDrawdownLimit, notifier, logger)

	manager := lifecycle.NewManager(v, notifier, recorder, lifecycle.Config{
		BreakevenFraction: cfg.Risk.BreakevenFraction,
		PartialFraction:   cfg.Risk.PartialFraction,
		PartialTrigger:    cfg.Risk.PartialTrigger,
		Deviation:         cfg.Trading.Deviation,
		Magic:             cfg.Trading.Magic,
	}, logger)

	var session *analysis.SessionHours
	if cfg.Strategy.SessionStartHour < cfg.Strategy.SessionEndHour {
		session = &analysis.SessionHours{
			Start: cfg.Strategy.SessionStartHour,
			End:   cfg.Strategy.SessionEndHour,
		}
	}

	return &Bot{
		cfg:        cfg,
		venue:      v,
		generator:  strategy.NewGenerator(analyzer, logger),
		filters:    filters,
		classifier: classifier,
		session:    session,
		guard:      guard,
		manager:    manager,
		recorder:   recorder,
		notifier:   notifier,
		logger:     logger.With().Str("component", "bot").Logger(),
	}
}

// Run blocks until ctx is cancelled, evaluating every symbol once per
// configured interval. The venue connection is released on exit.
func (b *Bot) Run(ctx context.Context) error {
	interval := time.Duration(b.cfg.Trading.CheckIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	b.logger.Info().
		Strs("symbols", b.cfg.Trading.Symbols).
		Str("timeframe", b.cfg.Trading.Timeframe).
		Dur("interval", interval).
		Bool("dry_run", b.cfg.Trading.DryRun).
		Msg("starting evaluation loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.cycle()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("shutting down")
			if err := b.venue.Shutdown(); err != nil {
				b.logger.Error().Err(err).Msg("venue shutdown failed")
			}
			return ctx.Err()
		case <-ticker.C:
			b.cycle()
		}
	}
}

// cycle runs one full evaluation pass. Symbols are evaluated
// sequentially and isolated from each other: a panic while evaluating
// one never skips the rest.
func (b *Bot) cycle() {
	metrics.Cycles.Inc()

	acct, err := b.venue.AccountInfo()
	if err != nil {
		b.logger.Error().Err(err).Msg("account info unavailable, skipping cycle")
		return
	}
	metrics.Equity.Set(acct.Equity)

	halted := b.guard.Check(acct.Equity)
	if peak := b.guard.Peak(); peak > 0 {
		metrics.DrawdownPct.Set((acct.Equity - peak) / peak * 100)
	}

	b.syncClosedTrades()
	b.manageOpenTrades()

	if halted {
		b.logger.Warn().Float64("equity", acct.Equity).Msg("daily drawdown limit reached, new entries suspended")
		return
	}

	for _, symbol := range b.cfg.Trading.Symbols {
		b.evaluateSymbol(symbol, acct.Equity)
	}
}

// evaluateSymbol runs the full pipeline for one symbol: signal
// generation, regime gate, confirmation filters, exposure check, sizing
// and order placement.
func (b *Bot) evaluateSymbol(symbol string, equity float64) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("symbol", symbol).Interface("panic", r).Msg("recovered from panic during evaluation")
		}
	}()

	window, err := b.venue.Candles(symbol, b.cfg.Trading.Timeframe, b.cfg.Trading.CandleCount)
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("candle fetch failed")
		return
	}

	regime := b.classifier.Classify(window, b.cfg.Strategy.AllowMomentum, b.session)

	sig := b.generator.Generate(symbol, window, b.cfg.Strategy.AllowMomentum)
	if sig == nil {
		metrics.Signals.WithLabelValues(symbol, "none").Inc()
		return
	}

	if regimeBlocksEntry(regime) {
		b.suppress(symbol, sig, "regime unsuitable")
		return
	}

	if (regime == analysis.TrendUp && sig.Direction == venue.Sell) ||
		(regime == analysis.TrendDown && sig.Direction == venue.Buy) {
		b.suppress(symbol, sig, "regime mismatch")
		return
	}

	htf := b.fetchHigherTimeframes(symbol)
	if ok, reason := b.filters.Apply(sig, window, htf); !ok {
		b.suppress(symbol, sig, reason)
		return
	}

	positions, err := b.venue.Positions(symbol)
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("position check failed")
		return
	}
	if len(positions) > 0 {
		b.logger.Debug().Str("symbol", symbol).Int("open", len(positions)).Msg("position already open, skipping entry")
		b.suppress(symbol, sig, "position already open")
		return
	}

	b.placeOrder(symbol, sig, equity)
}

// regimeBlocksEntry reports whether the regime label rules out new
// entries. Directionless low-conviction regimes are blocked; volatile
// markets still trade, since the displacement legs the entry model hunts
// inflate the range ATR by themselves.
func regimeBlocksEntry(r analysis.Regime) bool {
	return r == analysis.Consolidation || r == analysis.Ranging
}

// fetchHigherTimeframes collects bias windows for the confirmation
// filters. A failed fetch drops that timeframe rather than the cycle.
func (b *Bot) fetchHigherTimeframes(symbol string) []strategy.HTFWindow {
	var htf []strategy.HTFWindow
	for _, tf := range b.cfg.Trading.HigherTimeframes {
		candles, err := b.venue.Candles(symbol, tf, b.cfg.Trading.CandleCount)
		if err != nil {
			b.logger.Warn().Err(err).Str("symbol", symbol).Str("timeframe", tf).Msg("higher timeframe fetch failed")
			continue
		}
		htf = append(htf, strategy.HTFWindow{Timeframe: tf, Candles: candles})
	}
	return htf
}

// placeOrder sizes and submits a market order for the signal, then
// registers the resulting position for lifecycle management.
func (b *Bot) placeOrder(symbol string, sig *strategy.Signal, equity float64) {
	tick, err := b.venue.Tick(symbol)
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("tick fetch failed")
		return
	}

	if limit, ok := b.cfg.Trading.MaxSpread[symbol]; ok && tick.Spread() > limit {
		b.logger.Info().
			Str("symbol", symbol).
			Float64("spread", tick.Spread()).
			Float64("max", limit).
			Msg("spread too wide, skipping entry")
		b.suppress(symbol, sig, "spread too wide")
		return
	}

	spec, err := b.venue.SymbolInfo(symbol)
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("symbol info fetch failed")
		return
	}

	lots, err := risk.SizePosition(equity, b.cfg.Risk.RiskPerTrade, b.cfg.Trading.SLPoints, spec, risk.LotBounds{
		Min: b.cfg.Risk.LotMin,
		Max: b.cfg.Risk.LotMax,
	})
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("position sizing failed")
		return
	}

	price := tick.Ask
	stopLoss := price - b.cfg.Trading.SLPoints*spec.Point
	takeProfit := price + b.cfg.Trading.TPPoints*spec.Point
	if sig.Direction == venue.Sell {
		price = tick.Bid
		stopLoss = price + b.cfg.Trading.SLPoints*spec.Point
		takeProfit = price - b.cfg.Trading.TPPoints*spec.Point
	}

	if b.cfg.Trading.DryRun {
		b.logger.Info().
			Str("symbol", symbol).
			Str("direction", string(sig.Direction)).
			Str("entry_type", string(sig.EntryType)).
			Float64("lots", lots).
			Float64("price", price).
			Msg("dry run, order not sent")
		metrics.Signals.WithLabelValues(symbol, "dry_run").Inc()
		return
	}

	tag := "ict-" + uuid.NewString()[:8]
	result, err := b.venue.OrderSend(&venue.OrderRequest{
		Action:     venue.ActionDeal,
		Symbol:     symbol,
		Direction:  sig.Direction,
		Volume:     lots,
		Price:      price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Deviation:  b.cfg.Trading.Deviation,
		Magic:      b.cfg.Trading.Magic,
		Comment:    tag,
	})
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("order placement failed")
		return
	}

	ticket := result.Order
	if ticket == 0 {
		ticket = result.Deal
	}

	b.mu.Lock()
	if b.open == nil {
		b.open = make(map[int64]*openTrade)
	}
	b.open[ticket] = &openTrade{
		ticket:     ticket,
		symbol:     symbol,
		entryPrice: result.Price,
		stopLoss:   stopLoss,
		takeProfit: takeProfit,
	}
	b.mu.Unlock()

	b.logger.Info().
		Str("symbol", symbol).
		Str("direction", string(sig.Direction)).
		Str("entry_type", string(sig.EntryType)).
		Str("pattern", string(sig.Pattern)).
		Int64("ticket", ticket).
		Float64("lots", lots).
		Float64("price", result.Price).
		Float64("stop_loss", stopLoss).
		Float64("take_profit", takeProfit).
		Str("tag", tag).
		Msg("order placed")

	b.notifier.Notify(
		fmt.Sprintf("Trade opened: %s %s", sig.Direction, symbol),
		fmt.Sprintf("%s %s %.2f lots at %.5f (SL %.5f, TP %.5f, %s/%s, ticket %d)",
			sig.Direction, symbol, lots, result.Price, stopLoss, takeProfit, sig.EntryType, sig.Pattern, ticket))

	rec := journal.NewRecord(journal.EventOpen, symbol, ticket)
	rec.Direction = string(sig.Direction)
	rec.Volume = lots
	rec.Price = result.Price
	rec.StopLoss = stopLoss
	rec.TakeProfit = takeProfit
	rec.Note = fmt.Sprintf("%s %s %s", sig.EntryType, sig.Pattern, tag)
	if err := b.recorder.Append(rec); err != nil {
		b.logger.Error().Err(err).Msg("failed to journal trade open")
	}

	metrics.Orders.WithLabelValues(symbol, string(sig.Direction)).Inc()
	metrics.Signals.WithLabelValues(symbol, "acted").Inc()
}

// manageOpenTrades runs one lifecycle pass over every tracked position.
func (b *Bot) manageOpenTrades() {
	b.mu.Lock()
	trades := make([]*openTrade, 0, len(b.open))
	for _, t := range b.open {
		trades = append(trades, t)
	}
	b.mu.Unlock()

	for _, t := range trades {
		if err := b.manager.ManageTrade(t.ticket, t.entryPrice, t.takeProfit, t.stopLoss); err != nil {
			b.logger.Error().Err(err).Int64("ticket", t.ticket).Msg("lifecycle pass failed")
		}
	}
}

// syncClosedTrades journals closing deals since the start of the day.
// The cursor guarantees each deal is recorded once even though the
// history window overlaps between cycles.
func (b *Bot) syncClosedTrades() {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	deals, err := b.venue.DealHistory(from, now)
	if err != nil {
		b.logger.Error().Err(err).Msg("deal history fetch failed")
		return
	}

	for _, deal := range deals {
		if !b.cursor.Advance(deal.Ticket) {
			continue
		}
		if deal.Entry != venue.DealEntryOut {
			continue
		}

		b.mu.Lock()
		delete(b.open, deal.PositionID)
		b.mu.Unlock()

		b.logger.Info().
			Str("symbol", deal.Symbol).
			Int64("position", deal.PositionID).
			Float64("profit", deal.Profit).
			Msg("trade closed")

		rec := journal.NewRecord(journal.EventClose, deal.Symbol, deal.PositionID)
		rec.Volume = deal.Volume
		rec.Price = deal.Price
		rec.Profit = deal.Profit
		if err := b.recorder.Append(rec); err != nil {
			b.logger.Error().Err(err).Msg("failed to journal trade close")
		}
	}
}

// suppress records a signal that was generated but not acted on.
func (b *Bot) suppress(symbol string, sig *strategy.Signal, reason string) {
	b.logger.Info().
		Str("symbol", symbol).
		Str("direction", string(sig.Direction)).
		Str("reason", reason).
		Msg("signal suppressed")
	metrics.Signals.WithLabelValues(symbol, "suppressed").Inc()
	metrics.Suppressions.WithLabelValues(reason).Inc()
}
