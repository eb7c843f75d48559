package indicator

import (
	"errors"

	"github.com/avexo/spotbot/shared"
)

// RSI computes the relative strength index over the last period+1 closing
// prices, forming period consecutive deltas. Positive deltas contribute to
// the average gain, non-positive deltas contribute their magnitude to the
// average loss. The result is always within [0, 100]; a window with no
// losses yields exactly 100.
func RSI(candles []shared.Candlestick, period int) (float64, error) {
	if period < 1 {
		return 0, errors.New("rsi period must be positive")
	}
	if len(candles) < period+1 {
		return 0, ErrInsufficientData
	}

	var gains, losses float64
	window := candles[len(candles)-(period+1):]
	for idx := 1; idx < len(window); idx++ {
		delta := window[idx].Close - window[idx-1].Close
		switch {
		case delta > 0:
			gains += delta
		default:
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}
