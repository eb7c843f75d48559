package strategy

import (
	"errors"
	"fmt"

	"github.com/avexo/spotbot/indicator"
	"github.com/avexo/spotbot/shared"
)

// MACrossoverConfig represents the configuration for the moving average
// crossover strategy.
type MACrossoverConfig struct {
	// ShortPeriod is the window of the short moving average.
	ShortPeriod int
	// LongPeriod is the window of the long moving average.
	LongPeriod int
}

// Validate asserts the config sane inputs.
func (cfg *MACrossoverConfig) Validate() error {
	var errs error

	if cfg.ShortPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("short period must be positive, got %d", cfg.ShortPeriod))
	}
	if cfg.LongPeriod < 1 {
		errs = errors.Join(errs, fmt.Errorf("long period must be positive, got %d", cfg.LongPeriod))
	}
	if cfg.ShortPeriod >= cfg.LongPeriod {
		errs = errors.Join(errs, fmt.Errorf("short period (%d) must be less than long period (%d)",
			cfg.ShortPeriod, cfg.LongPeriod))
	}

	return errs
}

// MACrossover generates signals from short/long simple moving average
// crossovers. The crossover is detected one step back against the current
// step, with the previous averages computed over the history excluding the
// most recent candle.
type MACrossover struct {
	cfg *MACrossoverConfig
}

// Ensure the MACrossover strategy implements the Strategy interface.
var _ Strategy = (*MACrossover)(nil)

// NewMACrossover initializes a new moving average crossover strategy.
func NewMACrossover(cfg *MACrossoverConfig) (*MACrossover, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating ma crossover config: %w", err)
	}

	return &MACrossover{cfg: cfg}, nil
}

// Name returns the name of the strategy.
func (m *MACrossover) Name() string {
	return "MA"
}

// Evaluate maps the provided candle history and current position state to a
// trade signal.
func (m *MACrossover) Evaluate(candles []shared.Candlestick, state shared.PositionState) shared.Signal {
	if len(candles) < m.cfg.LongPeriod {
		return shared.Hold
	}

	shortMA, errShort := indicator.SMA(candles, m.cfg.ShortPeriod)
	longMA, errLong := indicator.SMA(candles, m.cfg.LongPeriod)

	prev := candles[:len(candles)-1]
	prevShortMA, errPrevShort := indicator.SMA(prev, m.cfg.ShortPeriod)
	prevLongMA, errPrevLong := indicator.SMA(prev, m.cfg.LongPeriod)

	if errShort != nil || errLong != nil || errPrevShort != nil || errPrevLong != nil {
		return shared.Hold
	}

	switch {
	case prevShortMA <= prevLongMA && shortMA > longMA:
		// Bullish crossover, only actionable when not already long.
		if state != shared.Long {
			return shared.Buy
		}
	case prevShortMA >= prevLongMA && shortMA < longMA:
		// Bearish crossover, only actionable when long.
		if state == shared.Long {
			return shared.Sell
		}
	}

	return shared.Hold
}
