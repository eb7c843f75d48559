package strategy

import (
	"testing"

	"github.com/avexo/spotbot/shared"
	"github.com/peterldowns/testy/assert"
)

// candlesFromCloses builds a candle sequence from the provided closing prices.
func candlesFromCloses(closes []float64) []shared.Candlestick {
	candles := make([]shared.Candlestick, len(closes))
	for idx := range closes {
		candles[idx] = shared.Candlestick{Close: closes[idx]}
	}

	return candles
}

func TestMACrossoverConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MACrossoverConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     MACrossoverConfig{ShortPeriod: 10, LongPeriod: 20},
			wantErr: false,
		},
		{
			name:    "short period not positive",
			cfg:     MACrossoverConfig{ShortPeriod: 0, LongPeriod: 20},
			wantErr: true,
		},
		{
			name:    "long period not positive",
			cfg:     MACrossoverConfig{ShortPeriod: 1, LongPeriod: 0},
			wantErr: true,
		},
		{
			name:    "short period not less than long period",
			cfg:     MACrossoverConfig{ShortPeriod: 20, LongPeriod: 20},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMACrossover(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMACrossoverEvaluate(t *testing.T) {
	strat, err := NewMACrossover(&MACrossoverConfig{ShortPeriod: 2, LongPeriod: 4})
	assert.NoError(t, err)

	// A decline followed by a recovery. With short=2 and long=4 the short
	// average first crosses above the long average at the seventh close:
	// prev short 6.5 <= prev long 7.0 and short 8 > long 7.25.
	closes := []float64{10, 9, 8, 7, 6, 7, 9, 12}
	candles := candlesFromCloses(closes)

	// Ensure no signal fires before the crossover point and the buy fires
	// exactly once, at the first crossover.
	var buyAt int
	state := shared.Flat
	for n := 1; n <= len(candles); n++ {
		signal := strat.Evaluate(candles[:n], state)
		switch signal {
		case shared.Buy:
			assert.Equal(t, buyAt, 0)
			buyAt = n
			state = shared.Long
		case shared.Sell:
			t.Fatalf("unexpected sell at %d candles", n)
		}
	}
	assert.Equal(t, buyAt, 7)

	// Ensure the buy is suppressed while already long.
	assert.Equal(t, strat.Evaluate(candles[:7], shared.Long), shared.Hold)

	// Ensure evaluation is pure: identical inputs yield identical signals.
	assert.Equal(t, strat.Evaluate(candles[:7], shared.Flat), shared.Buy)
	assert.Equal(t, strat.Evaluate(candles[:7], shared.Flat), shared.Buy)

	// Ensure a strictly ascending history never produces a crossover signal.
	ascending := make([]float64, 20)
	for idx := range ascending {
		ascending[idx] = float64(idx + 1)
	}
	candles = candlesFromCloses(ascending)
	for n := 1; n <= len(candles); n++ {
		assert.Equal(t, strat.Evaluate(candles[:n], shared.Flat), shared.Hold)
	}

	// A rally followed by a decline, mirroring the buy case: the short
	// average crosses below the long average at the seventh close.
	closes = []float64{10, 11, 12, 13, 14, 13, 11, 8}
	candles = candlesFromCloses(closes)

	// Ensure the bearish crossover emits a sell only while long.
	assert.Equal(t, strat.Evaluate(candles[:6], shared.Long), shared.Hold)
	assert.Equal(t, strat.Evaluate(candles[:7], shared.Long), shared.Sell)
	assert.Equal(t, strat.Evaluate(candles[:7], shared.Flat), shared.Hold)

	// Ensure histories shorter than the long period hold.
	assert.Equal(t, strat.Evaluate(candles[:3], shared.Flat), shared.Hold)
}
