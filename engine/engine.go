// Package engine drives the trading cycle: fetch price, apply the risk
// overlay, fetch candles, evaluate the strategy and execute orders. Cycles
// run strictly sequentially on a fixed interval; recoverable errors skip the
// remainder of the cycle and the next scheduled poll is the retry.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avexo/spotbot/position"
	"github.com/avexo/spotbot/risk"
	"github.com/avexo/spotbot/shared"
	"github.com/avexo/spotbot/strategy"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// quantityPrecision is the fixed decimal precision for order quantities.
const quantityPrecision = 6

// Config represents the configuration for the trading engine.
type Config struct {
	// Symbol is the traded market symbol.
	Symbol string
	// CandleInterval is the kline interval used for signal evaluation.
	CandleInterval string
	// CandleLimit is the number of klines fetched per cycle.
	CandleLimit int
	// TradeAmount is the quote asset amount committed per trade.
	TradeAmount float64
	// CheckInterval is the fixed polling interval between cycles.
	CheckInterval time.Duration
	// ExchangeClient represents the market exchange client.
	ExchangeClient shared.ExchangeClient
	// Strategy generates trade signals from candle history.
	Strategy strategy.Strategy
	// RiskManager applies the stop loss and take profit overlay.
	RiskManager *risk.Manager
	// PersistClosedTrade journals the provided closed trade. Optional, a nil
	// func disables journaling.
	PersistClosedTrade func(ctx context.Context, record *position.Record) error
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Symbol == "" {
		errs = errors.Join(errs, fmt.Errorf("symbol cannot be an empty string"))
	}
	if cfg.CandleInterval == "" {
		errs = errors.Join(errs, fmt.Errorf("candle interval cannot be an empty string"))
	}
	if cfg.CandleLimit < 1 {
		errs = errors.Join(errs, fmt.Errorf("candle limit must be positive, got %d", cfg.CandleLimit))
	}
	if cfg.TradeAmount <= 0 {
		errs = errors.Join(errs, fmt.Errorf("trade amount must be positive, got %v", cfg.TradeAmount))
	}
	if cfg.CheckInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("check interval must be positive, got %v", cfg.CheckInterval))
	}
	if cfg.ExchangeClient == nil {
		errs = errors.Join(errs, fmt.Errorf("exchange client cannot be nil"))
	}
	if cfg.Strategy == nil {
		errs = errors.Join(errs, fmt.Errorf("strategy cannot be nil"))
	}
	if cfg.RiskManager == nil {
		errs = errors.Join(errs, fmt.Errorf("risk manager cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Engine orchestrates trading cycles for a single market.
type Engine struct {
	cfg          *Config
	tracker      *position.Tracker
	openTrade    *position.Record
	jobScheduler *gocron.Scheduler
}

// NewEngine initializes a new trading engine with a flat position.
func NewEngine(cfg *Config) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating engine config: %w", err)
	}

	return &Engine{
		cfg:          cfg,
		tracker:      position.NewTracker(),
		jobScheduler: gocron.NewScheduler(time.UTC),
	}, nil
}

// Tracker returns the engine's position tracker.
func (e *Engine) Tracker() *position.Tracker {
	return e.tracker
}

// orderQuantity derives the order quantity from the configured trade amount
// and the provided price, rounded to the fixed precision.
func (e *Engine) orderQuantity(price float64) decimal.Decimal {
	return decimal.NewFromFloat(e.cfg.TradeAmount).
		Div(decimal.NewFromFloat(price)).
		Round(quantityPrecision)
}

// executeBuy places a buy market order at the provided price and opens the
// tracked position on confirmation.
func (e *Engine) executeBuy(ctx context.Context, price float64) error {
	if e.tracker.State() == shared.Long {
		return fmt.Errorf("buy signal while %s: %w", e.tracker.State().String(), shared.ErrInvariantViolation)
	}

	quantity := e.orderQuantity(price)
	e.cfg.Logger.Info().Msgf("executing BUY order: %s %s at %v", quantity.String(), e.cfg.Symbol, price)

	orderID, err := e.cfg.ExchangeClient.PlaceMarketOrder(ctx, e.cfg.Symbol, shared.BuySide, quantity)
	if err != nil {
		return err
	}

	err = e.tracker.Open(price)
	if err != nil {
		return err
	}

	record, err := position.NewRecord(e.cfg.Symbol, price)
	if err != nil {
		return err
	}
	e.openTrade = record

	e.cfg.Logger.Info().Msgf("buy order %s confirmed, entry price %v", orderID, price)

	return nil
}

// executeSell places a sell market order at the provided price and closes
// the tracked position on confirmation. The quantity is derived from the
// recorded entry price, mirroring the buy sizing.
func (e *Engine) executeSell(ctx context.Context, price float64, reason shared.ExitReason) error {
	entryPrice, ok := e.tracker.EntryPrice()
	if !ok {
		return fmt.Errorf("sell signal while %s: %w", e.tracker.State().String(), shared.ErrInvariantViolation)
	}

	quantity := e.orderQuantity(entryPrice)
	e.cfg.Logger.Info().Msgf("executing SELL order: %s %s at %v (%s)", quantity.String(),
		e.cfg.Symbol, price, reason.String())

	orderID, err := e.cfg.ExchangeClient.PlaceMarketOrder(ctx, e.cfg.Symbol, shared.SellSide, quantity)
	if err != nil {
		return err
	}

	err = e.tracker.Close()
	if err != nil {
		return err
	}

	record := e.openTrade
	e.openTrade = nil
	if record != nil {
		err = record.Close(price, reason)
		if err != nil {
			return err
		}

		e.cfg.Logger.Info().Msgf("sell order %s confirmed, position closed with P&L: %.2f%%",
			orderID, record.PNLPercent)

		if e.cfg.PersistClosedTrade != nil {
			err = e.cfg.PersistClosedTrade(ctx, record)
			if err != nil {
				e.cfg.Logger.Error().Msgf("journaling closed trade %s: %v", record.ID, err)
			}
		}
	}

	return nil
}

// RunCycle drives a single trading cycle.
func (e *Engine) RunCycle(ctx context.Context) {
	currentPrice, err := e.cfg.ExchangeClient.TickerPrice(ctx, e.cfg.Symbol)
	if err != nil {
		e.cfg.Logger.Warn().Msgf("fetching current price, skipping cycle: %v", err)
		return
	}
	// A non-positive price cannot size an order and would register as a
	// bottomless drop against an open position.
	if currentPrice <= 0 {
		e.cfg.Logger.Warn().Msgf("non-positive price %v for %s, skipping cycle", currentPrice, e.cfg.Symbol)
		return
	}

	// The risk overlay runs ahead of signal evaluation whenever a position
	// is open. A triggered exit ends the cycle.
	if entryPrice, ok := e.tracker.EntryPrice(); ok {
		reason, triggered := e.cfg.RiskManager.Evaluate(e.tracker.State(), entryPrice, currentPrice)
		if triggered {
			e.cfg.Logger.Warn().Msgf("%s at %v, entry %v, forcing exit", reason.String(),
				currentPrice, entryPrice)
			err = e.executeSell(ctx, currentPrice, reason)
			if err != nil {
				e.cfg.Logger.Error().Msgf("executing forced sell: %v", err)
			}
			return
		}
	}

	candles, err := e.cfg.ExchangeClient.Klines(ctx, e.cfg.Symbol, e.cfg.CandleInterval, e.cfg.CandleLimit)
	if err != nil {
		e.cfg.Logger.Warn().Msgf("fetching klines, skipping cycle: %v", err)
		return
	}
	if len(candles) == 0 {
		e.cfg.Logger.Warn().Msgf("no klines returned for %s, skipping cycle", e.cfg.Symbol)
		return
	}

	signal := e.cfg.Strategy.Evaluate(candles, e.tracker.State())
	e.cfg.Logger.Info().Msgf("current price %v, strategy signal: %s", currentPrice, signal.String())

	switch signal {
	case shared.Buy:
		err = e.executeBuy(ctx, currentPrice)
		if err != nil {
			e.cfg.Logger.Error().Msgf("executing buy: %v", err)
		}
	case shared.Sell:
		err = e.executeSell(ctx, currentPrice, shared.SignalReversal)
		if err != nil {
			e.cfg.Logger.Error().Msgf("executing sell: %v", err)
		}
	case shared.Hold:
		// do nothing.
	}
}

// cycle runs a single scheduled cycle. Cancellation is only checked between
// cycles, so an in-flight exchange call is never interrupted: the cycle runs
// on its own context rather than the run context.
func (e *Engine) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	e.RunCycle(context.Background())
}

// Run schedules trading cycles on the fixed check interval and blocks until
// the provided context is cancelled. Cycles never overlap; cancellation is
// checked between cycles.
func (e *Engine) Run(ctx context.Context) error {
	_, err := e.jobScheduler.Every(e.cfg.CheckInterval).SingletonMode().StartImmediately().Do(func() {
		e.cycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling trading cycle: %w", err)
	}

	e.cfg.Logger.Info().Msgf("trading engine started for %s, strategy %s, checking market every %s",
		e.cfg.Symbol, e.cfg.Strategy.Name(), e.cfg.CheckInterval.String())

	e.jobScheduler.StartAsync()
	<-ctx.Done()
	e.jobScheduler.Stop()

	e.cfg.Logger.Info().Msg("trading engine stopped")

	return nil
}
