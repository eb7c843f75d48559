package shared

import "time"

// Candlestick represents a unit candlestick (kline) for a market. Candle
// sequences returned by the exchange are ordered by strictly ascending date
// and are never mutated once retrieved.
type Candlestick struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Date   time.Time
}
