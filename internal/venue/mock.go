package venue

import (
	"sync"
	"time"
)

// MockClient is a scriptable in-memory venue used by tests and dry runs.
// Each method delegates to an optional func field; unset fields return
// benign zero-value responses.
type MockClient struct {
	mu sync.Mutex

	TickFunc             func(symbol string) (*Tick, error)
	CandlesFunc          func(symbol, timeframe string, count int) ([]Candle, error)
	SymbolInfoFunc       func(symbol string) (*SymbolSpec, error)
	AccountInfoFunc      func() (*AccountInfo, error)
	PositionsFunc        func(symbol string) ([]Position, error)
	PositionByTicketFunc func(ticket int64) (*Position, error)
	OrderSendFunc        func(req *OrderRequest) (*OrderResult, error)
	DealHistoryFunc      func(from, to time.Time) ([]Deal, error)

	// SentOrders records every request passed to OrderSend.
	SentOrders     []*OrderRequest
	ShutdownCalled bool
}

// NewMockClient creates an empty mock venue.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Tick(symbol string) (*Tick, error) {
	if m.TickFunc != nil {
		return m.TickFunc(symbol)
	}
	return &Tick{Time: time.Now(), Bid: 1.0, Ask: 1.0001}, nil
}

func (m *MockClient) Candles(symbol, timeframe string, count int) ([]Candle, error) {
	if m.CandlesFunc != nil {
		return m.CandlesFunc(symbol, timeframe, count)
	}
	return nil, nil
}

func (m *MockClient) SymbolInfo(symbol string) (*SymbolSpec, error) {
	if m.SymbolInfoFunc != nil {
		return m.SymbolInfoFunc(symbol)
	}
	return &SymbolSpec{
		Symbol:       symbol,
		Digits:       5,
		Point:        0.00001,
		TickValue:    1.0,
		ContractSize: 100000,
		VolumeMin:    0.01,
		VolumeMax:    100,
		VolumeStep:   0.01,
	}, nil
}

func (m *MockClient) AccountInfo() (*AccountInfo, error) {
	if m.AccountInfoFunc != nil {
		return m.AccountInfoFunc()
	}
	return &AccountInfo{Balance: 10000, Equity: 10000, Currency: "USD"}, nil
}

func (m *MockClient) Positions(symbol string) ([]Position, error) {
	if m.PositionsFunc != nil {
		return m.PositionsFunc(symbol)
	}
	return nil, nil
}

func (m *MockClient) PositionByTicket(ticket int64) (*Position, error) {
	if m.PositionByTicketFunc != nil {
		return m.PositionByTicketFunc(ticket)
	}
	return nil, nil
}

func (m *MockClient) OrderSend(req *OrderRequest) (*OrderResult, error) {
	m.mu.Lock()
	m.SentOrders = append(m.SentOrders, req)
	m.mu.Unlock()

	if m.OrderSendFunc != nil {
		return m.OrderSendFunc(req)
	}
	return &OrderResult{RetCode: RetCodeDone, Order: 1, Deal: 1, Volume: req.Volume, Price: req.Price}, nil
}

func (m *MockClient) DealHistory(from, to time.Time) ([]Deal, error) {
	if m.DealHistoryFunc != nil {
		return m.DealHistoryFunc(from, to)
	}
	return nil, nil
}

func (m *MockClient) Shutdown() error {
	m.ShutdownCalled = true
	return nil
}
