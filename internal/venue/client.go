package venue

import "time"

// Client defines the synchronous request/response boundary to the trading
// venue. Every call either returns a complete result or an error; there is
// no streaming surface.
type Client interface {
	Tick(symbol string) (*Tick, error)
	Candles(symbol, timeframe string, count int) ([]Candle, error)
	SymbolInfo(symbol string) (*SymbolSpec, error)
	AccountInfo() (*AccountInfo, error)
	Positions(symbol string) ([]Position, error)
	PositionByTicket(ticket int64) (*Position, error)
	OrderSend(req *OrderRequest) (*OrderResult, error)
	DealHistory(from, to time.Time) ([]Deal, error)
	Shutdown() error
}

// Ensure both implementations satisfy the client interface
var _ Client = (*BridgeClient)(nil)
var _ Client = (*MockClient)(nil)
