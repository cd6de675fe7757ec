package lifecycle

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"ict-trading-bot/internal/journal"
	"ict-trading-bot/internal/notify"
	"ict-trading-bot/internal/venue"
)

// Venue is the slice of the gateway the lifecycle manager needs.
type Venue interface {
	Tick(symbol string) (*venue.Tick, error)
	SymbolInfo(symbol string) (*venue.SymbolSpec, error)
	PositionByTicket(ticket int64) (*venue.Position, error)
	OrderSend(req *venue.OrderRequest) (*venue.OrderResult, error)
}

// Config holds the lifecycle thresholds.
type Config struct {
	// BreakevenFraction of the TP distance at which the stop moves to
	// entry.
	BreakevenFraction float64
	// PartialFraction of the remaining volume closed at the partial
	// threshold.
	PartialFraction float64
	// PartialTrigger is the fraction of the TP distance at which partial
	// profit is taken.
	PartialTrigger float64
	Deviation      int
	Magic          int64
}

// DefaultConfig returns the production lifecycle thresholds.
func DefaultConfig() Config {
	return Config{
		BreakevenFraction: 0.5,
		PartialFraction:   0.5,
		PartialTrigger:    0.8,
		Deviation:         10,
		Magic:             234000,
	}
}

// Manager walks an open position through its life: moving the stop to
// breakeven once enough of the TP distance is covered, and taking partial
// profit near the target. It holds no authoritative copy of venue state;
// every call re-fetches the position before deciding a mutation.
type Manager struct {
	venue    Venue
	notifier notify.Notifier
	recorder journal.Recorder
	logger   zerolog.Logger
	cfg      Config
}

// NewManager creates a lifecycle manager.
func NewManager(v Venue, notifier notify.Notifier, recorder journal.Recorder, cfg Config, logger zerolog.Logger) *Manager {
	if cfg.PartialTrigger <= 0 {
		cfg.PartialTrigger = 0.8
	}
	return &Manager{
		venue:    v,
		notifier: notifier,
		recorder: recorder,
		logger:   logger.With().Str("component", "lifecycle").Logger(),
		cfg:      cfg,
	}
}

// ManageTrade runs one lifecycle pass for the position identified by
// ticket, using the entry, take-profit and stop recorded when the trade
// was opened. A position that is no longer open is not an error.
//
// The breakeven move is idempotent: once the stop sits at the entry price
// no further modification is submitted. The partial close deliberately is
// not one-shot; as long as price holds beyond the trigger, each cycle
// trims the remaining volume again.
func (m *Manager) ManageTrade(ticket int64, entryPrice, takeProfit, stopLoss float64) error {
	pos, err := m.venue.PositionByTicket(ticket)
	if err != nil {
		return fmt.Errorf("fetching position %d: %w", ticket, err)
	}
	if pos == nil {
		return nil
	}

	tick, err := m.venue.Tick(pos.Symbol)
	if err != nil {
		return fmt.Errorf("fetching tick for %s: %w", pos.Symbol, err)
	}

	spec, err := m.venue.SymbolInfo(pos.Symbol)
	if err != nil {
		return fmt.Errorf("fetching symbol info for %s: %w", pos.Symbol, err)
	}

	// Positions close at the opposite side of the book.
	price := tick.Bid
	if pos.Direction == venue.Sell {
		price = tick.Ask
	}

	tpDistance := math.Abs(takeProfit - entryPrice)

	if err := m.maybeMoveToBreakeven(pos, price, entryPrice, takeProfit, tpDistance, spec); err != nil {
		return err
	}

	return m.maybeTakePartial(pos, price, entryPrice, tpDistance, spec)
}

// maybeMoveToBreakeven moves the stop to the entry price once price has
// covered the breakeven fraction of the TP distance.
func (m *Manager) maybeMoveToBreakeven(pos *venue.Position, price, entryPrice, takeProfit, tpDistance float64, spec *venue.SymbolSpec) error {
	threshold := entryPrice + tpDistance*m.cfg.BreakevenFraction
	reached := price >= threshold
	if pos.Direction == venue.Sell {
		threshold = entryPrice - tpDistance*m.cfg.BreakevenFraction
		reached = price <= threshold
	}

	if !reached || atPrice(pos.StopLoss, entryPrice, spec.Point) {
		return nil
	}

	result, err := m.venue.OrderSend(&venue.OrderRequest{
		Action:     venue.ActionModify,
		Symbol:     pos.Symbol,
		Position:   pos.Ticket,
		StopLoss:   entryPrice,
		TakeProfit: takeProfit,
		Deviation:  m.cfg.Deviation,
		Magic:      m.cfg.Magic,
	})
	if err != nil {
		return fmt.Errorf("moving stop to breakeven for %d: %w", pos.Ticket, err)
	}

	m.logger.Info().
		Str("symbol", pos.Symbol).
		Int64("ticket", pos.Ticket).
		Float64("stop_loss", entryPrice).
		Msg("stop moved to breakeven")
	m.notifier.Notify(
		fmt.Sprintf("Stop moved to breakeven: %s", pos.Symbol),
		fmt.Sprintf("Ticket %d stop moved to entry price %.5f (result %d)", pos.Ticket, entryPrice, result.RetCode))

	rec := journal.NewRecord(journal.EventUpdate, pos.Symbol, pos.Ticket)
	rec.Direction = string(pos.Direction)
	rec.Volume = pos.Volume
	rec.Price = price
	rec.StopLoss = entryPrice
	rec.TakeProfit = takeProfit
	rec.Note = "breakeven"
	if err := m.recorder.Append(rec); err != nil {
		m.logger.Error().Err(err).Msg("failed to journal breakeven move")
	}
	return nil
}

// maybeTakePartial reduces the position once price has covered the
// partial trigger fraction of the TP distance.
func (m *Manager) maybeTakePartial(pos *venue.Position, price, entryPrice, tpDistance float64, spec *venue.SymbolSpec) error {
	threshold := entryPrice + tpDistance*m.cfg.PartialTrigger
	reached := price >= threshold
	if pos.Direction == venue.Sell {
		threshold = entryPrice - tpDistance*m.cfg.PartialTrigger
		reached = price <= threshold
	}

	if !reached || pos.Volume <= 0 {
		return nil
	}

	closeVolume := roundToStep(pos.Volume*m.cfg.PartialFraction, spec.VolumeStep)
	if closeVolume > pos.Volume {
		closeVolume = pos.Volume
	}
	if closeVolume <= 0 {
		m.logger.Debug().
			Str("symbol", pos.Symbol).
			Int64("ticket", pos.Ticket).
			Float64("volume", pos.Volume).
			Msg("partial volume rounds to zero, skipping")
		return nil
	}

	result, err := m.venue.OrderSend(&venue.OrderRequest{
		Action:     venue.ActionDeal,
		Symbol:     pos.Symbol,
		Direction:  pos.Direction.Opposite(),
		Volume:     closeVolume,
		Price:      price,
		Position:   pos.Ticket,
		ReduceOnly: true,
		Deviation:  m.cfg.Deviation,
		Magic:      m.cfg.Magic,
		Comment:    "partial close",
	})
	if err != nil {
		return fmt.Errorf("partial close for %d: %w", pos.Ticket, err)
	}

	remaining := pos.Volume - closeVolume
	m.logger.Info().
		Str("symbol", pos.Symbol).
		Int64("ticket", pos.Ticket).
		Float64("closed", closeVolume).
		Float64("remaining", remaining).
		Float64("price", price).
		Msg("partial close executed")
	m.notifier.Notify(
		fmt.Sprintf("Partial close: %s", pos.Symbol),
		fmt.Sprintf("Ticket %d closed %.2f lots at %.5f, %.2f remaining (deal %d)",
			pos.Ticket, closeVolume, price, remaining, result.Deal))

	rec := journal.NewRecord(journal.EventUpdate, pos.Symbol, pos.Ticket)
	rec.Direction = string(pos.Direction)
	rec.Volume = remaining
	rec.Price = price
	rec.Note = fmt.Sprintf("partial close %.2f", closeVolume)
	if err := m.recorder.Append(rec); err != nil {
		m.logger.Error().Err(err).Msg("failed to journal partial close")
	}
	return nil
}

// atPrice compares two prices within half a point.
func atPrice(a, b, point float64) bool {
	eps := point / 2
	if eps <= 0 {
		eps = 1e-9
	}
	return math.Abs(a-b) < eps
}

// roundToStep rounds volume down to the venue's volume step. A zero step
// falls back to two decimals.
func roundToStep(volume, step float64) float64 {
	if step <= 0 {
		return math.Floor(volume*100+1e-9) / 100
	}
	return math.Floor(volume/step+1e-9) * step
}
