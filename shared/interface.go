package shared

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExchangeClient defines the requirements for interacting with a spot market
// exchange.
type ExchangeClient interface {
	// TickerPrice fetches the current market price of the provided symbol.
	TickerPrice(ctx context.Context, symbol string) (float64, error)
	// Klines fetches recent candlestick history for the provided symbol,
	// ordered by ascending date.
	Klines(ctx context.Context, symbol string, interval string, limit int) ([]Candlestick, error)
	// PlaceMarketOrder submits a market order and returns the order id
	// assigned by the exchange.
	PlaceMarketOrder(ctx context.Context, symbol string, side Side, quantity decimal.Decimal) (string, error)
}
