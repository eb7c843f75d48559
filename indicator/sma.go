package indicator

import (
	"errors"

	"github.com/avexo/spotbot/shared"
)

// ErrInsufficientData indicates the provided candle history is shorter than
// the window required by an indicator.
var ErrInsufficientData = errors.New("insufficient candle data")

// SMA computes the simple moving average of the closing prices of the last
// period candles.
func SMA(candles []shared.Candlestick, period int) (float64, error) {
	if period < 1 {
		return 0, errors.New("sma period must be positive")
	}
	if len(candles) < period {
		return 0, ErrInsufficientData
	}

	var sum float64
	for idx := len(candles) - period; idx < len(candles); idx++ {
		sum += candles[idx].Close
	}

	return sum / float64(period), nil
}
