// Package strategy provides pluggable trade signal generation. Strategies are
// pure functions of the provided candle history and position state, they
// never read or mutate position state owned elsewhere.
package strategy

import (
	"github.com/avexo/spotbot/shared"
)

// Strategy defines the requirements for generating trade signals.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() string
	// Evaluate maps the provided candle history and current position state
	// to a trade signal.
	Evaluate(candles []shared.Candlestick, state shared.PositionState) shared.Signal
}
