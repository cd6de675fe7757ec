package venue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BridgeClient talks to an MT5 terminal through its local HTTP bridge.
// The bridge exposes the terminal's synchronous API as JSON endpoints.
type BridgeClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewBridgeClient creates a client for the given bridge base URL.
func NewBridgeClient(baseURL, authToken string) *BridgeClient {
	return &BridgeClient{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *BridgeClient) get(path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge error %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

func (c *BridgeClient) post(path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge error %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

// Connect initializes the terminal session behind the bridge. It must
// succeed before any other call is useful.
func (c *BridgeClient) Connect(login, password, server string) error {
	payload := struct {
		Login    string `json:"login"`
		Password string `json:"password"`
		Server   string `json:"server"`
	}{Login: login, Password: password, Server: server}

	var ack struct {
		OK bool `json:"ok"`
	}
	if err := c.post("/connect", payload, &ack); err != nil {
		return err
	}
	if !ack.OK {
		return fmt.Errorf("bridge refused terminal login for server %s", server)
	}
	return nil
}

// Tick fetches the current bid/ask quote for a symbol.
func (c *BridgeClient) Tick(symbol string) (*Tick, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var tick Tick
	if err := c.get("/tick", params, &tick); err != nil {
		return nil, err
	}
	return &tick, nil
}

// Candles fetches the most recent count candles for a symbol and timeframe,
// oldest first.
func (c *BridgeClient) Candles(symbol, timeframe string, count int) ([]Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("timeframe", timeframe)
	params.Set("count", strconv.Itoa(count))

	var candles []Candle
	if err := c.get("/candles", params, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// SymbolInfo fetches contract parameters for a symbol.
func (c *BridgeClient) SymbolInfo(symbol string) (*SymbolSpec, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var spec SymbolSpec
	if err := c.get("/symbol", params, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// AccountInfo fetches the current account snapshot.
func (c *BridgeClient) AccountInfo() (*AccountInfo, error) {
	var info AccountInfo
	if err := c.get("/account", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Positions lists open positions, optionally filtered by symbol.
func (c *BridgeClient) Positions(symbol string) ([]Position, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	var positions []Position
	if err := c.get("/positions", params, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// PositionByTicket fetches a single open position. A nil position with a
// nil error means the ticket is no longer open.
func (c *BridgeClient) PositionByTicket(ticket int64) (*Position, error) {
	positions, err := c.Positions("")
	if err != nil {
		return nil, err
	}
	for i := range positions {
		if positions[i].Ticket == ticket {
			return &positions[i], nil
		}
	}
	return nil, nil
}

// OrderSend submits a trade request and returns the venue result.
func (c *BridgeClient) OrderSend(req *OrderRequest) (*OrderResult, error) {
	var result OrderResult
	if err := c.post("/order", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DealHistory fetches executed deals between from and to.
func (c *BridgeClient) DealHistory(from, to time.Time) ([]Deal, error) {
	params := url.Values{}
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	var deals []Deal
	if err := c.get("/deals", params, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// Shutdown releases the bridge session.
func (c *BridgeClient) Shutdown() error {
	var ack struct {
		OK bool `json:"ok"`
	}
	return c.post("/shutdown", struct{}{}, &ack)
}
