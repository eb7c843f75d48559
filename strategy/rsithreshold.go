package strategy

import (
	"errors"
	"fmt"

	"github.com/avexo/spotbot/indicator"
	"github.com/avexo/spotbot/shared"
)

// RSIThresholdConfig represents the configuration for the RSI threshold
// strategy.
type RSIThresholdConfig struct {
	// Period is the RSI lookback window.
	Period int
	// Oversold is the RSI level below which the market is considered
	// oversold.
	Oversold float64
	// Overbought is the RSI level above which the market is considered
	// overbought.
	Overbought float64
}

// Validate asserts the config sane inputs.
func (cfg *RSIThresholdConfig) Validate() error {
	var errs error

	if cfg.Period < 1 {
		errs = errors.Join(errs, fmt.Errorf("rsi period must be positive, got %d", cfg.Period))
	}
	if cfg.Oversold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("oversold level must be positive, got %v", cfg.Oversold))
	}
	if cfg.Oversold >= cfg.Overbought {
		errs = errors.Join(errs, fmt.Errorf("oversold level (%v) must be less than overbought level (%v)",
			cfg.Oversold, cfg.Overbought))
	}
	if cfg.Overbought >= 100 {
		errs = errors.Join(errs, fmt.Errorf("overbought level must be below 100, got %v", cfg.Overbought))
	}

	return errs
}

// RSIThreshold generates signals when the relative strength index breaches
// the configured oversold or overbought levels.
type RSIThreshold struct {
	cfg *RSIThresholdConfig
}

// Ensure the RSIThreshold strategy implements the Strategy interface.
var _ Strategy = (*RSIThreshold)(nil)

// NewRSIThreshold initializes a new RSI threshold strategy.
func NewRSIThreshold(cfg *RSIThresholdConfig) (*RSIThreshold, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating rsi threshold config: %w", err)
	}

	return &RSIThreshold{cfg: cfg}, nil
}

// Name returns the name of the strategy.
func (r *RSIThreshold) Name() string {
	return "RSI"
}

// Evaluate maps the provided candle history and current position state to a
// trade signal.
func (r *RSIThreshold) Evaluate(candles []shared.Candlestick, state shared.PositionState) shared.Signal {
	rsi, err := indicator.RSI(candles, r.cfg.Period)
	if err != nil {
		return shared.Hold
	}

	switch {
	case rsi < r.cfg.Oversold && state != shared.Long:
		return shared.Buy
	case rsi > r.cfg.Overbought && state == shared.Long:
		return shared.Sell
	}

	return shared.Hold
}
