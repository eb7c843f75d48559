// Package fetch provides the MEXC spot exchange client. Request signing,
// timeouts and response parsing live here; callers only see typed results or
// a distinguishable error.
package fetch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avexo/spotbot/shared"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the MEXC spot REST API base url.
	BaseURL = "https://api.mexc.com"

	pingPath        = "/api/v3/ping"
	serverTimePath  = "/api/v3/time"
	tickerPricePath = "/api/v3/ticker/price"
	klinesPath      = "/api/v3/klines"
	accountPath     = "/api/v3/account"
	orderPath       = "/api/v3/order"
)

// MEXCConfig represents the configuration for the MEXC client.
type MEXCConfig struct {
	// APIKey is the MEXC API key.
	APIKey string
	// SecretKey is the MEXC API secret used to sign requests.
	SecretKey string
	// BaseURL is the API base url.
	BaseURL string
}

// Validate asserts the config sane inputs.
func (cfg *MEXCConfig) Validate() error {
	var errs error

	if cfg.APIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("mexc api key cannot be an empty string"))
	}
	if cfg.SecretKey == "" {
		errs = errors.Join(errs, fmt.Errorf("mexc secret key cannot be an empty string"))
	}
	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("mexc base url cannot be an empty string"))
	}

	return errs
}

// MEXCClient represents the MEXC spot exchange API client.
type MEXCClient struct {
	cfg   *MEXCConfig
	httpc http.Client
	buf   *bytes.Buffer
}

// Ensure the MEXCClient implements the ExchangeClient interface.
var _ shared.ExchangeClient = (*MEXCClient)(nil)

// NewMEXCClient instantiates a new MEXC client.
func NewMEXCClient(cfg *MEXCConfig) (*MEXCClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating mexc config: %w", err)
	}

	return &MEXCClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 10},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}, nil
}

// formURL creates full urls including parameters for the api.
func (c *MEXCClient) formURL(path string, params string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	if params != "" {
		c.buf.WriteString("?")
		c.buf.WriteString(params)
	}
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// sign generates the hex encoded HMAC-SHA256 signature of the provided query
// payload.
func (c *MEXCClient) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// do sends a request to the MEXC API and returns the response body. Signed
// requests get a millisecond timestamp and signature appended to their query
// parameters.
func (c *MEXCClient) do(ctx context.Context, method string, path string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("signature", c.sign(params.Encode()))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.formURL(path, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s request: %w", method, path, err)
	}

	req.Header.Set("X-MEXC-APIKEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending %s %s request: %w", method, path, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response body: %w", path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, string(body))
	}

	return body, nil
}

// Ping checks connectivity to the exchange.
func (c *MEXCClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, pingPath, nil, false)
	if err != nil {
		return fmt.Errorf("pinging exchange: %w", err)
	}

	return nil
}

// ServerTime fetches the current exchange server time.
func (c *MEXCClient) ServerTime(ctx context.Context) (time.Time, error) {
	body, err := c.do(ctx, http.MethodGet, serverTimePath, nil, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetching server time: %w", err)
	}

	serverTime := gjson.GetBytes(body, "serverTime")
	if !serverTime.Exists() {
		return time.Time{}, fmt.Errorf("server time missing from response: %s", string(body))
	}

	return time.UnixMilli(serverTime.Int()), nil
}

// AccountInfo fetches the account trading status, asserting the provided
// credentials are valid.
func (c *MEXCClient) AccountInfo(ctx context.Context) (bool, error) {
	body, err := c.do(ctx, http.MethodGet, accountPath, nil, true)
	if err != nil {
		return false, fmt.Errorf("fetching account info: %w", err)
	}

	if !gjson.GetBytes(body, "balances").Exists() {
		return false, fmt.Errorf("account balances missing from response: %s", string(body))
	}

	return gjson.GetBytes(body, "canTrade").Bool(), nil
}

// TickerPrice fetches the current market price of the provided symbol.
func (c *MEXCClient) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	body, err := c.do(ctx, http.MethodGet, tickerPricePath, params, false)
	if err != nil {
		return 0, fmt.Errorf("fetching ticker price for %s: %w: %w", symbol, shared.ErrDataUnavailable, err)
	}

	price := gjson.GetBytes(body, "price")
	if !price.Exists() {
		return 0, fmt.Errorf("price missing from ticker response for %s: %w", symbol, shared.ErrDataUnavailable)
	}

	// A non-numeric price parses to zero; neither is a tradeable quote.
	value := price.Float()
	if value <= 0 {
		return 0, fmt.Errorf("malformed ticker price %q for %s: %w", price.String(), symbol,
			shared.ErrDataUnavailable)
	}

	return value, nil
}

// Klines fetches recent candlestick history for the provided symbol, ordered
// by ascending date.
func (c *MEXCClient) Klines(ctx context.Context, symbol string, interval string, limit int) ([]shared.Candlestick, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("interval", interval)
	params.Add("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, http.MethodGet, klinesPath, params, false)
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s: %w: %w", symbol, shared.ErrDataUnavailable, err)
	}

	rows := gjson.ParseBytes(body).Array()
	candles := make([]shared.Candlestick, 0, len(rows))

	for idx := range rows {
		// MEXC kline rows are arrays of the form:
		// [openTime, open, high, low, close, volume, closeTime, quoteVolume]
		fields := rows[idx].Array()
		if len(fields) < 6 {
			return nil, fmt.Errorf("malformed kline row for %s: %s: %w", symbol,
				rows[idx].Raw, shared.ErrDataUnavailable)
		}

		candles = append(candles, shared.Candlestick{
			Date:   time.UnixMilli(fields[0].Int()),
			Open:   fields[1].Float(),
			High:   fields[2].Float(),
			Low:    fields[3].Float(),
			Close:  fields[4].Float(),
			Volume: fields[5].Float(),
		})
	}

	return candles, nil
}

// PlaceMarketOrder submits a market order and returns the order id assigned
// by the exchange. A response without an order id is a rejection.
func (c *MEXCClient) PlaceMarketOrder(ctx context.Context, symbol string, side shared.Side, quantity decimal.Decimal) (string, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("side", side.String())
	params.Add("type", "MARKET")
	params.Add("quantity", quantity.String())

	body, err := c.do(ctx, http.MethodPost, orderPath, params, true)
	if err != nil {
		return "", fmt.Errorf("placing %s market order for %s: %w: %w", side.String(), symbol,
			shared.ErrOrderRejected, err)
	}

	orderID := gjson.GetBytes(body, "orderId")
	if !orderID.Exists() {
		return "", fmt.Errorf("order id missing from response for %s: %s: %w", symbol,
			string(body), shared.ErrOrderRejected)
	}

	return orderID.String(), nil
}
