// Package metrics exposes the engine's Prometheus metrics:
//   - bot_cycles_total                      evaluation cycles completed
//   - bot_signals_total{symbol,outcome}     signals by outcome (acted|suppressed|none)
//   - bot_suppressions_total{reason}        suppressed signals by reason
//   - bot_orders_total{symbol,side}         orders placed
//   - bot_venue_retries_total{call}         venue call retries
//   - bot_equity                            last observed account equity
//   - bot_drawdown_pct                      intraday drawdown from peak, percent
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_cycles_total",
		Help: "Evaluation cycles completed",
	})

	Signals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_signals_total",
		Help: "Signals by outcome",
	}, []string{"symbol", "outcome"})

	Suppressions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_suppressions_total",
		Help: "Suppressed signals by reason",
	}, []string{"reason"})

	Orders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_orders_total",
		Help: "Orders placed",
	}, []string{"symbol", "side"})

	VenueRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_venue_retries_total",
		Help: "Venue call retries",
	}, []string{"call"})

	Equity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_equity",
		Help: "Last observed account equity",
	})

	DrawdownPct = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_drawdown_pct",
		Help: "Intraday drawdown from peak, percent",
	})
)

func init() {
	prometheus.MustRegister(Cycles, Signals, Suppressions, Orders, VenueRetries, Equity, DrawdownPct)
}

// Serve starts the /metrics listener on addr. It blocks, so callers run
// it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
