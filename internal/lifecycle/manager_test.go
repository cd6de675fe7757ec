package lifecycle

import (
	"testing"

	"github.com/rs/zerolog"

	"ict-trading-bot/internal/journal"
	"ict-trading-bot/internal/notify"
	"ict-trading-bot/internal/venue"
)

// fakeVenue scripts one position and records every order request.
type fakeVenue struct {
	pos  *venue.Position
	bid  float64
	ask  float64
	sent []*venue.OrderRequest
}

func (f *fakeVenue) Tick(string) (*venue.Tick, error) {
	return &venue.Tick{Bid: f.bid, Ask: f.ask}, nil
}

func (f *fakeVenue) SymbolInfo(symbol string) (*venue.SymbolSpec, error) {
	return &venue.SymbolSpec{
		Symbol:     symbol,
		Point:      0.00001,
		TickValue:  1,
		VolumeMin:  0.01,
		VolumeMax:  100,
		VolumeStep: 0.01,
	}, nil
}

func (f *fakeVenue) PositionByTicket(int64) (*venue.Position, error) {
	return f.pos, nil
}

func (f *fakeVenue) OrderSend(req *venue.OrderRequest) (*venue.OrderResult, error) {
	f.sent = append(f.sent, req)
	if req.Action == venue.ActionModify {
		f.pos.StopLoss = req.StopLoss
	}
	return &venue.OrderResult{RetCode: venue.RetCodeDone, Order: 1, Deal: 2, Price: req.Price, Volume: req.Volume}, nil
}

func buyPosition() *venue.Position {
	return &venue.Position{
		Ticket:     77,
		Symbol:     "EURUSD",
		Direction:  venue.Buy,
		Volume:     1.0,
		EntryPrice: 1.0,
		StopLoss:   0.998,
		TakeProfit: 1.01,
	}
}

func newTestManager(v Venue) *Manager {
	return NewManager(v, notify.Noop{}, journal.Noop{}, DefaultConfig(), zerolog.Nop())
}

func TestManageTradeBelowThresholds(t *testing.T) {
	f := &fakeVenue{pos: buyPosition(), bid: 1.002, ask: 1.0002}
	m := newTestManager(f)

	if err := m.ManageTrade(77, 1.0, 1.01, 0.998); err != nil {
		t.Fatalf("ManageTrade() error: %v", err)
	}
	if len(f.sent) != 0 {
		t.Errorf("orders sent = %d, want none below the breakeven threshold", len(f.sent))
	}
}

func TestManageTradeBreakevenOnce(t *testing.T) {
	// Bid 1.006 covers more than half the 0.01 TP distance.
	f := &fakeVenue{pos: buyPosition(), bid: 1.006, ask: 1.0062}
	m := newTestManager(f)

	if err := m.ManageTrade(77, 1.0, 1.01, 0.998); err != nil {
		t.Fatalf("first pass error: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("orders sent = %d, want 1 stop modification", len(f.sent))
	}
	req := f.sent[0]
	if req.Action != venue.ActionModify {
		t.Errorf("action = %q, want %q", req.Action, venue.ActionModify)
	}
	if req.StopLoss != 1.0 {
		t.Errorf("stop loss = %v, want the entry price", req.StopLoss)
	}
	if f.pos.StopLoss != 1.0 {
		t.Fatalf("fake venue did not apply the modification")
	}

	// Second pass with the stop already at entry: nothing to do.
	if err := m.ManageTrade(77, 1.0, 1.01, 0.998); err != nil {
		t.Fatalf("second pass error: %v", err)
	}
	if len(f.sent) != 1 {
		t.Errorf("orders sent = %d after second pass, want still 1", len(f.sent))
	}
}

func TestManageTradePartialClose(t *testing.T) {
	// Price past 80% of the TP distance; stop already sits at entry.
	pos := buyPosition()
	pos.StopLoss = 1.0
	f := &fakeVenue{pos: pos, bid: 1.009, ask: 1.0092}
	m := newTestManager(f)

	if err := m.ManageTrade(77, 1.0, 1.01, 0.998); err != nil {
		t.Fatalf("ManageTrade() error: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("orders sent = %d, want 1 partial close", len(f.sent))
	}

	req := f.sent[0]
	if req.Action != venue.ActionDeal {
		t.Errorf("action = %q, want %q", req.Action, venue.ActionDeal)
	}
	if req.Direction != venue.Sell {
		t.Errorf("direction = %q, closing a buy needs a sell", req.Direction)
	}
	if !req.ReduceOnly {
		t.Error("partial close must be reduce-only")
	}
	if req.Volume != 0.5 {
		t.Errorf("volume = %v, want half of 1.0", req.Volume)
	}
}

func TestManageTradePartialSkipsDust(t *testing.T) {
	// Half of 0.01 lots rounds below the volume step.
	pos := buyPosition()
	pos.StopLoss = 1.0
	pos.Volume = 0.01
	f := &fakeVenue{pos: pos, bid: 1.009, ask: 1.0092}
	m := newTestManager(f)

	if err := m.ManageTrade(77, 1.0, 1.01, 0.998); err != nil {
		t.Fatalf("ManageTrade() error: %v", err)
	}
	if len(f.sent) != 0 {
		t.Errorf("orders sent = %d, want none for dust volume", len(f.sent))
	}
}

func TestManageTradeSellSide(t *testing.T) {
	pos := &venue.Position{
		Ticket:     78,
		Symbol:     "EURUSD",
		Direction:  venue.Sell,
		Volume:     1.0,
		EntryPrice: 1.0,
		StopLoss:   1.002,
		TakeProfit: 0.99,
	}
	// Ask 0.994 covers 60% of the TP distance downward.
	f := &fakeVenue{pos: pos, bid: 0.9938, ask: 0.994}
	m := newTestManager(f)

	if err := m.ManageTrade(78, 1.0, 0.99, 1.002); err != nil {
		t.Fatalf("ManageTrade() error: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("orders sent = %d, want 1 stop modification", len(f.sent))
	}
	if f.sent[0].StopLoss != 1.0 {
		t.Errorf("stop loss = %v, want the entry price", f.sent[0].StopLoss)
	}
}

func TestManageTradeClosedPosition(t *testing.T) {
	f := &fakeVenue{pos: nil, bid: 1.0, ask: 1.0002}
	m := newTestManager(f)

	if err := m.ManageTrade(77, 1.0, 1.01, 0.998); err != nil {
		t.Fatalf("ManageTrade() on a closed position: %v", err)
	}
	if len(f.sent) != 0 {
		t.Errorf("orders sent = %d for a closed position", len(f.sent))
	}
}
