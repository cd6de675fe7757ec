package venue

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ict-trading-bot/internal/metrics"
)

// Gateway errors
var (
	// ErrVenueUnavailable means a venue call kept failing at the transport
	// level until the retry budget was exhausted.
	ErrVenueUnavailable = errors.New("venue unavailable")
	// ErrOrderRejected means the venue answered an order request with a
	// non-success result code. Rejections are never retried.
	ErrOrderRejected = errors.New("order rejected by venue")
)

// Notifier receives escalation alerts for failed venue calls. Failures to
// deliver a notification must never propagate back into trading logic.
type Notifier interface {
	Notify(subject, body string)
}

// Gateway wraps a venue client with bounded retry, fixed backoff and
// failure escalation. Every external call the engine makes goes through
// here. The sleep function is injectable so tests run without waiting.
type Gateway struct {
	client        Client
	notifier      Notifier
	maxRetries    int
	retryInterval time.Duration
	sleep         func(time.Duration)
	logger        zerolog.Logger
}

// NewGateway creates a resilient gateway around the given client.
func NewGateway(client Client, notifier Notifier, maxRetries int, retryInterval time.Duration, logger zerolog.Logger) *Gateway {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Gateway{
		client:        client,
		notifier:      notifier,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		sleep:         time.Sleep,
		logger:        logger.With().Str("component", "gateway").Logger(),
	}
}

// SetSleep replaces the backoff sleep function. Tests use this to avoid
// real waiting.
func (g *Gateway) SetSleep(fn func(time.Duration)) {
	if fn != nil {
		g.sleep = fn
	}
}

// attempt runs fn up to maxRetries times, escalating every failure. It
// returns nil as soon as fn succeeds.
func (g *Gateway) attempt(call, subject string, fn func() error) error {
	var lastErr error
	for try := 1; try <= g.maxRetries; try++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		msg := fmt.Sprintf("%s failed (attempt %d/%d): %v", call, try, g.maxRetries, lastErr)
		g.logger.Warn().Str("call", call).Int("attempt", try).Err(lastErr).Msg("venue call failed")
		metrics.VenueRetries.WithLabelValues(call).Inc()
		if g.notifier != nil {
			g.notifier.Notify(subject, msg)
		}
		g.sleep(g.retryInterval)
	}
	return fmt.Errorf("%s failed after %d retries: %w", call, g.maxRetries, ErrVenueUnavailable)
}

// Tick fetches the current quote, retrying transport failures.
func (g *Gateway) Tick(symbol string) (*Tick, error) {
	var tick *Tick
	err := g.attempt("tick "+symbol, "Venue API Tick Error", func() error {
		t, err := g.client.Tick(symbol)
		if err != nil {
			return err
		}
		if t == nil {
			return errors.New("empty tick response")
		}
		tick = t
		return nil
	})
	return tick, err
}

// Candles fetches a candle window, retrying transport failures and empty
// responses.
func (g *Gateway) Candles(symbol, timeframe string, count int) ([]Candle, error) {
	var candles []Candle
	err := g.attempt(fmt.Sprintf("candles %s %s", symbol, timeframe), "Venue API Candle Error", func() error {
		cs, err := g.client.Candles(symbol, timeframe, count)
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			return errors.New("no candle data")
		}
		candles = cs
		return nil
	})
	return candles, err
}

// SymbolInfo fetches contract parameters, retrying transport failures.
func (g *Gateway) SymbolInfo(symbol string) (*SymbolSpec, error) {
	var spec *SymbolSpec
	err := g.attempt("symbol info "+symbol, "Venue API Symbol Info Error", func() error {
		s, err := g.client.SymbolInfo(symbol)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.New("empty symbol info response")
		}
		spec = s
		return nil
	})
	return spec, err
}

// AccountInfo fetches the account snapshot, retrying transport failures.
func (g *Gateway) AccountInfo() (*AccountInfo, error) {
	var info *AccountInfo
	err := g.attempt("account info", "Venue API Account Error", func() error {
		i, err := g.client.AccountInfo()
		if err != nil {
			return err
		}
		if i == nil {
			return errors.New("empty account response")
		}
		info = i
		return nil
	})
	return info, err
}

// Positions lists open positions for a symbol. An empty list is a valid
// result; only transport failures are retried.
func (g *Gateway) Positions(symbol string) ([]Position, error) {
	var positions []Position
	err := g.attempt("positions "+symbol, "Venue API Positions Error", func() error {
		ps, err := g.client.Positions(symbol)
		if err != nil {
			return err
		}
		positions = ps
		return nil
	})
	return positions, err
}

// PositionByTicket fetches one open position. A nil position with nil
// error means the ticket is no longer open.
func (g *Gateway) PositionByTicket(ticket int64) (*Position, error) {
	var position *Position
	err := g.attempt(fmt.Sprintf("position %d", ticket), "Venue API Position Error", func() error {
		p, err := g.client.PositionByTicket(ticket)
		if err != nil {
			return err
		}
		position = p
		return nil
	})
	return position, err
}

// OrderSend submits a trade request. Only transport-level failures are
// retried; a venue rejection is terminal because resubmitting the same
// request risks duplicate execution.
func (g *Gateway) OrderSend(req *OrderRequest) (*OrderResult, error) {
	var result *OrderResult
	err := g.attempt("order send "+req.Symbol, "Venue API Order Error", func() error {
		r, err := g.client.OrderSend(req)
		if err != nil {
			return err
		}
		if r == nil {
			return errors.New("empty order response")
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Success() {
		msg := fmt.Sprintf("order for %s rejected: retcode=%d comment=%q", req.Symbol, result.RetCode, result.Comment)
		g.logger.Error().Str("symbol", req.Symbol).Int("retcode", int(result.RetCode)).Str("comment", result.Comment).Msg("order rejected")
		if g.notifier != nil {
			g.notifier.Notify("Venue Order Rejected", msg)
		}
		return result, fmt.Errorf("%s: %w", msg, ErrOrderRejected)
	}
	return result, nil
}

// DealHistory fetches executed deals. Unlike the other calls it degrades
// to an empty result after exhausting retries so history processing never
// takes the cycle down.
func (g *Gateway) DealHistory(from, to time.Time) ([]Deal, error) {
	var deals []Deal
	err := g.attempt("deal history", "Venue API Deals History Error", func() error {
		ds, err := g.client.DealHistory(from, to)
		if err != nil {
			return err
		}
		deals = ds
		return nil
	})
	if err != nil {
		g.logger.Warn().Msg("deal history unavailable, returning empty result")
		return nil, nil
	}
	return deals, nil
}

// Shutdown releases the venue connection.
func (g *Gateway) Shutdown() error {
	return g.client.Shutdown()
}
