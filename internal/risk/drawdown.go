package risk

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Notifier receives the single daily drawdown alert.
type Notifier interface {
	Notify(subject, body string)
}

// DrawdownGuard tracks the intraday equity peak and trips a circuit
// breaker once equity falls a configured fraction below it. The guard is
// an explicit state object owned by its caller; it is not safe for
// concurrent use and is intended to be touched only from the evaluation
// loop.
type DrawdownGuard struct {
	limit    float64
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time

	date       string
	peakEquity float64
	alertSent  bool
}

// NewDrawdownGuard creates a guard that halts trading when intraday
// drawdown reaches the given fraction (0.05 = 5%).
func NewDrawdownGuard(limit float64, notifier Notifier, logger zerolog.Logger) *DrawdownGuard {
	return &DrawdownGuard{
		limit:    limit,
		notifier: notifier,
		logger:   logger.With().Str("component", "drawdown").Logger(),
		now:      time.Now,
	}
}

// SetClock replaces the time source. Tests use this to control date
// rollover.
func (g *DrawdownGuard) SetClock(fn func() time.Time) {
	if fn != nil {
		g.now = fn
	}
}

// Peak returns the equity peak observed so far today.
func (g *DrawdownGuard) Peak() float64 { return g.peakEquity }

// Check records an equity observation and reports whether trading must
// halt for the remainder of the date. The peak is monotonically
// non-decreasing within a date and resets on the first observation of a
// new date. Exactly one alert is emitted per breached date.
func (g *DrawdownGuard) Check(equity float64) bool {
	now := g.now()
	date := now.Format("2006-01-02")

	if date != g.date {
		g.date = date
		g.peakEquity = equity
		g.alertSent = false
	}

	if equity > g.peakEquity {
		g.peakEquity = equity
	}

	drawdown := 0.0
	if g.peakEquity > 0 {
		drawdown = (equity - g.peakEquity) / g.peakEquity
	}

	breached := drawdown <= -g.limit

	g.logger.Info().
		Float64("equity", equity).
		Float64("peak", g.peakEquity).
		Str("drawdown", fmt.Sprintf("%.2f%%", drawdown*100)).
		Float64("limit_pct", g.limit*100).
		Msg("drawdown check")

	if breached && !g.alertSent {
		g.alertSent = true
		g.logger.Error().Msg("daily drawdown limit hit, trading disabled for today")
		if g.notifier != nil {
			g.notifier.Notify("DAILY DRAWDOWN LIMIT HIT", fmt.Sprintf(
				"Daily drawdown limit exceeded.\n\nDate: %s\nCurrent equity: %.2f\nPeak equity today: %.2f\nDrawdown: %.2f%% (limit: -%.2f%%)\n\nTrading has been disabled for today.",
				date, equity, g.peakEquity, drawdown*100, g.limit*100))
		}
	}

	return breached
}
