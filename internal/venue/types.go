package venue

import "time"

// Direction is the side of a trade or position.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Opposite returns the closing side for a position opened in this direction.
func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

// Candle represents a single OHLC candle. Candle windows returned by the
// venue are strictly time-ascending.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Body returns the absolute candle body size.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Tick is the current bid/ask quote for a symbol.
type Tick struct {
	Time time.Time `json:"time"`
	Bid  float64   `json:"bid"`
	Ask  float64   `json:"ask"`
}

// Spread returns the current bid/ask spread in price units.
func (t Tick) Spread() float64 { return t.Ask - t.Bid }

// SymbolSpec describes venue-side contract parameters for a symbol.
type SymbolSpec struct {
	Symbol       string  `json:"symbol"`
	Digits       int     `json:"digits"`
	Point        float64 `json:"point"`
	TickValue    float64 `json:"tick_value"`
	ContractSize float64 `json:"contract_size"`
	VolumeMin    float64 `json:"volume_min"`
	VolumeMax    float64 `json:"volume_max"`
	VolumeStep   float64 `json:"volume_step"`
}

// AccountInfo is a snapshot of the trading account.
type AccountInfo struct {
	Login    int64   `json:"login"`
	Balance  float64 `json:"balance"`
	Equity   float64 `json:"equity"`
	Margin   float64 `json:"margin"`
	Currency string  `json:"currency"`
}

// Position mirrors venue-side state of an open position. It is a read-only
// snapshot; callers re-fetch before deciding any mutation.
type Position struct {
	Ticket       int64     `json:"ticket"`
	Symbol       string    `json:"symbol"`
	Direction    Direction `json:"direction"`
	Volume       float64   `json:"volume"`
	EntryPrice   float64   `json:"entry_price"`
	CurrentPrice float64   `json:"current_price"`
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit   float64   `json:"take_profit"`
	Profit       float64   `json:"profit"`
	OpenedAt     time.Time `json:"opened_at"`
}

// DealEntry marks whether a deal opened or closed a position.
type DealEntry string

const (
	DealEntryIn  DealEntry = "IN"
	DealEntryOut DealEntry = "OUT"
)

// Deal is a single executed deal from venue history.
type Deal struct {
	Ticket     int64     `json:"ticket"`
	PositionID int64     `json:"position_id"`
	Symbol     string    `json:"symbol"`
	Entry      DealEntry `json:"entry"`
	Volume     float64   `json:"volume"`
	Price      float64   `json:"price"`
	Profit     float64   `json:"profit"`
	Time       time.Time `json:"time"`
}

// OrderAction selects the kind of trade request.
type OrderAction string

const (
	// ActionDeal opens or (partially) closes a position at market.
	ActionDeal OrderAction = "DEAL"
	// ActionModify changes the stop-loss / take-profit of an open position.
	ActionModify OrderAction = "SLTP"
)

// OrderRequest is the order contract produced to the venue.
type OrderRequest struct {
	Action     OrderAction `json:"action"`
	Symbol     string      `json:"symbol"`
	Direction  Direction   `json:"direction"`
	Volume     float64     `json:"volume"`
	Price      float64     `json:"price"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	// Position is the ticket being modified or reduced; zero for a new entry.
	Position   int64  `json:"position,omitempty"`
	ReduceOnly bool   `json:"reduce_only,omitempty"`
	Deviation  int    `json:"deviation"`
	Magic      int64  `json:"magic"`
	Comment    string `json:"comment"`
}

// RetCode is the venue result code for an order request.
type RetCode int

const (
	RetCodeDone    RetCode = 10009
	RetCodeRequote RetCode = 10004
	RetCodeReject  RetCode = 10006
	RetCodeNoMoney RetCode = 10019
)

// OrderResult is the venue response to an order request.
type OrderResult struct {
	RetCode RetCode `json:"retcode"`
	Order   int64   `json:"order"`
	Deal    int64   `json:"deal"`
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment"`
}

// Success reports whether the venue fully executed the request.
func (r *OrderResult) Success() bool { return r != nil && r.RetCode == RetCodeDone }
