package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/avexo/spotbot/position"
	"github.com/avexo/spotbot/risk"
	"github.com/avexo/spotbot/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fakeExchange is a scriptable exchange client for engine tests.
type fakeExchange struct {
	price    float64
	priceErr error

	candles    []shared.Candlestick
	candlesErr error

	orderErr     error
	orderCount   int
	lastSide     shared.Side
	lastQuantity decimal.Decimal

	klineCalls int
	priceCalls int
	priceCtx   context.Context
}

func (f *fakeExchange) TickerPrice(ctx context.Context, _ string) (float64, error) {
	f.priceCalls++
	f.priceCtx = ctx
	if f.priceErr != nil {
		return 0, f.priceErr
	}
	return f.price, nil
}

func (f *fakeExchange) Klines(_ context.Context, _ string, _ string, _ int) ([]shared.Candlestick, error) {
	f.klineCalls++
	if f.candlesErr != nil {
		return nil, f.candlesErr
	}
	return f.candles, nil
}

func (f *fakeExchange) PlaceMarketOrder(_ context.Context, _ string, side shared.Side, quantity decimal.Decimal) (string, error) {
	if f.orderErr != nil {
		return "", f.orderErr
	}
	f.orderCount++
	f.lastSide = side
	f.lastQuantity = quantity
	return fmt.Sprintf("order-%d", f.orderCount), nil
}

// Ensure the fake exchange implements the ExchangeClient interface.
var _ shared.ExchangeClient = (*fakeExchange)(nil)

// fixedStrategy always returns the configured signal.
type fixedStrategy struct {
	signal shared.Signal
}

func (s *fixedStrategy) Name() string { return "fixed" }

func (s *fixedStrategy) Evaluate(_ []shared.Candlestick, _ shared.PositionState) shared.Signal {
	return s.signal
}

func newTestEngine(t *testing.T, exchange *fakeExchange, signal shared.Signal) (*Engine, *fixedStrategy) {
	t.Helper()

	riskMgr, err := risk.NewManager(&risk.ManagerConfig{StopLossPct: 2, TakeProfitPct: 3})
	assert.NoError(t, err)

	logger := zerolog.Nop()
	strat := &fixedStrategy{signal: signal}
	eng, err := NewEngine(&Config{
		Symbol:         "BTCUSDT",
		CandleInterval: "5m",
		CandleLimit:    100,
		TradeAmount:    10,
		CheckInterval:  time.Minute,
		ExchangeClient: exchange,
		Strategy:       strat,
		RiskManager:    riskMgr,
		Logger:         &logger,
	})
	assert.NoError(t, err)

	return eng, strat
}

func TestEngineConfigValidate(t *testing.T) {
	// Ensure a zero config is rejected at startup.
	_, err := NewEngine(&Config{})
	assert.Error(t, err)
}

func TestEngineSkipsCycleOnPriceFailure(t *testing.T) {
	exchange := &fakeExchange{priceErr: shared.ErrDataUnavailable}
	eng, _ := newTestEngine(t, exchange, shared.Buy)

	eng.RunCycle(context.Background())

	// Ensure no market data beyond the price fetch was requested and no order
	// was placed, leaving the tracker flat.
	assert.Equal(t, exchange.klineCalls, 0)
	assert.Equal(t, exchange.orderCount, 0)
	assert.Equal(t, eng.Tracker().State(), shared.Flat)
	_, ok := eng.Tracker().EntryPrice()
	assert.False(t, ok)
}

func TestEngineSkipsCycleOnNonPositivePrice(t *testing.T) {
	exchange := &fakeExchange{price: 0, candles: []shared.Candlestick{{Close: 100}}}
	eng, strat := newTestEngine(t, exchange, shared.Buy)

	// Ensure a zero price cannot reach order sizing: the cycle is skipped
	// before the risk overlay and signal evaluation, and no order is placed.
	eng.RunCycle(context.Background())
	assert.Equal(t, exchange.klineCalls, 0)
	assert.Equal(t, exchange.orderCount, 0)
	assert.Equal(t, eng.Tracker().State(), shared.Flat)

	// Open a position at 100, then feed a zero price. Ensure the open position
	// is held rather than force-sold against a bogus quote.
	exchange.price = 100
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)

	strat.signal = shared.Hold
	exchange.price = 0
	orderCount := exchange.orderCount
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)
	assert.Equal(t, exchange.orderCount, orderCount)

	// Negative quotes get the same treatment.
	exchange.price = -1
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)
	assert.Equal(t, exchange.orderCount, orderCount)
}

func TestEngineSkipsCycleOnKlineFailure(t *testing.T) {
	exchange := &fakeExchange{price: 100, candlesErr: shared.ErrDataUnavailable}
	eng, _ := newTestEngine(t, exchange, shared.Buy)

	eng.RunCycle(context.Background())
	assert.Equal(t, exchange.orderCount, 0)
	assert.Equal(t, eng.Tracker().State(), shared.Flat)

	// Ensure an empty candle history also skips the cycle.
	exchange.candlesErr = nil
	exchange.candles = nil
	eng.RunCycle(context.Background())
	assert.Equal(t, exchange.orderCount, 0)
	assert.Equal(t, eng.Tracker().State(), shared.Flat)
}

func TestEngineBuyAndSellCycle(t *testing.T) {
	var journaled []*position.Record

	exchange := &fakeExchange{price: 100, candles: []shared.Candlestick{{Close: 100}}}
	eng, strat := newTestEngine(t, exchange, shared.Buy)
	eng.cfg.PersistClosedTrade = func(_ context.Context, record *position.Record) error {
		journaled = append(journaled, record)
		return nil
	}

	// Ensure a buy signal opens the position with the traded quantity derived
	// from the trade amount and the current price.
	eng.RunCycle(context.Background())
	assert.Equal(t, exchange.orderCount, 1)
	assert.Equal(t, exchange.lastSide, shared.BuySide)
	assert.Equal(t, exchange.lastQuantity.String(), "0.1")
	assert.Equal(t, eng.Tracker().State(), shared.Long)
	entry, ok := eng.Tracker().EntryPrice()
	assert.True(t, ok)
	assert.Equal(t, entry, float64(100))

	// Ensure a sell signal closes the position. The sell quantity mirrors the
	// entry sizing even though the price moved.
	strat.signal = shared.Sell
	exchange.price = 102
	eng.RunCycle(context.Background())
	assert.Equal(t, exchange.orderCount, 2)
	assert.Equal(t, exchange.lastSide, shared.SellSide)
	assert.Equal(t, exchange.lastQuantity.String(), "0.1")
	assert.Equal(t, eng.Tracker().State(), shared.Flat)

	// Ensure the closed trade was journaled with its exit details.
	assert.Equal(t, len(journaled), 1)
	assert.Equal(t, journaled[0].Status, position.Closed)
	assert.Equal(t, journaled[0].EntryPrice, float64(100))
	assert.Equal(t, journaled[0].ExitPrice, float64(102))
	assert.Equal(t, journaled[0].ExitReason, shared.SignalReversal.String())
}

func TestEngineOrderRejectionLeavesStateUnchanged(t *testing.T) {
	exchange := &fakeExchange{
		price:    100,
		candles:  []shared.Candlestick{{Close: 100}},
		orderErr: shared.ErrOrderRejected,
	}
	eng, strat := newTestEngine(t, exchange, shared.Buy)

	// Ensure a rejected buy leaves the tracker flat.
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Flat)

	// Ensure a rejected sell leaves the tracker long.
	exchange.orderErr = nil
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)

	strat.signal = shared.Sell
	exchange.orderErr = shared.ErrOrderRejected
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)
	entry, ok := eng.Tracker().EntryPrice()
	assert.True(t, ok)
	assert.Equal(t, entry, float64(100))
}

func TestEngineRiskOverlayForcesExit(t *testing.T) {
	var journaled []*position.Record

	exchange := &fakeExchange{price: 100, candles: []shared.Candlestick{{Close: 100}}}
	eng, strat := newTestEngine(t, exchange, shared.Buy)
	eng.cfg.PersistClosedTrade = func(_ context.Context, record *position.Record) error {
		journaled = append(journaled, record)
		return nil
	}

	// Open a position at 100.
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)

	// Ensure a price within the thresholds does not force an exit.
	strat.signal = shared.Hold
	exchange.price = 98.1
	klineCalls := exchange.klineCalls
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)
	assert.Equal(t, exchange.klineCalls, klineCalls+1)

	// Ensure breaching the stop loss forces an immediate sell without any
	// further signal evaluation this cycle.
	exchange.price = 97.9
	klineCalls = exchange.klineCalls
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Flat)
	assert.Equal(t, exchange.lastSide, shared.SellSide)
	assert.Equal(t, exchange.klineCalls, klineCalls)
	assert.Equal(t, len(journaled), 1)
	assert.Equal(t, journaled[0].ExitReason, shared.StopLossHit.String())

	// Reopen and ensure breaching the take profit forces an exit too.
	strat.signal = shared.Buy
	exchange.price = 100
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Long)

	exchange.price = 103.1
	eng.RunCycle(context.Background())
	assert.Equal(t, eng.Tracker().State(), shared.Flat)
	assert.Equal(t, len(journaled), 2)
	assert.Equal(t, journaled[1].ExitReason, shared.TakeProfitHit.String())
}

func TestEngineInvariantViolationSkipsExecution(t *testing.T) {
	exchange := &fakeExchange{price: 100, candles: []shared.Candlestick{{Close: 100}}}
	eng, _ := newTestEngine(t, exchange, shared.Sell)

	// Ensure a sell signal while flat is a defensive skip, not a crash or a
	// state mutation.
	eng.RunCycle(context.Background())
	assert.Equal(t, exchange.orderCount, 0)
	assert.Equal(t, eng.Tracker().State(), shared.Flat)
}

func TestEngineCycleOutlivesRunCancellation(t *testing.T) {
	exchange := &fakeExchange{price: 100, candles: []shared.Candlestick{{Close: 100}}}
	eng, _ := newTestEngine(t, exchange, shared.Hold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure exchange calls run on their own context so cancelling the run
	// context cannot abort an in-flight request.
	eng.cycle(ctx)
	assert.Equal(t, exchange.priceCalls, 1)
	assert.NotNil(t, exchange.priceCtx)
	cancel()
	assert.Nil(t, exchange.priceCtx.Err())

	// Ensure cancellation is honored between cycles: once the run context is
	// done, no further exchange calls are made.
	eng.cycle(ctx)
	assert.Equal(t, exchange.priceCalls, 1)
}

func TestEngineRunStopsOnCancellation(t *testing.T) {
	exchange := &fakeExchange{price: 100, candles: []shared.Candlestick{{Close: 100}}}
	eng, _ := newTestEngine(t, exchange, shared.Hold)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- eng.Run(ctx)
	}()

	// Ensure cancelling the context terminates the loop.
	time.Sleep(time.Millisecond * 50)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("engine did not stop after cancellation")
	}
}
