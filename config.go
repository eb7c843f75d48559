package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// Configuration defaults.
	defaultSymbol          = "BTCUSDT"
	defaultStrategy        = "MA"
	defaultShortPeriod     = 10
	defaultLongPeriod      = 20
	defaultRSIPeriod       = 14
	defaultRSIOversold     = 30
	defaultRSIOverbought   = 70
	defaultTradeAmount     = 10
	defaultMaxPositionSize = 1000
	defaultStopLossPct     = 2
	defaultTakeProfitPct   = 3
	defaultCheckInterval   = 60
	defaultCandleInterval  = "5m"
	defaultCandleLimit     = 100
)

// Config is the configuration struct for the trading agent.
type Config struct {
	// APIKey is the MEXC API key.
	APIKey string
	// SecretKey is the MEXC API secret.
	SecretKey string
	// Symbol is the traded market symbol.
	Symbol string
	// Strategy selects the signal strategy, MA or RSI.
	Strategy string
	// ShortPeriod is the short moving average window (MA strategy).
	ShortPeriod int
	// LongPeriod is the long moving average window (MA strategy).
	LongPeriod int
	// RSIPeriod is the RSI lookback window (RSI strategy).
	RSIPeriod int
	// RSIOversold is the RSI buy threshold (RSI strategy).
	RSIOversold float64
	// RSIOverbought is the RSI sell threshold (RSI strategy).
	RSIOverbought float64
	// TradeAmount is the quote asset amount committed per trade.
	TradeAmount float64
	// MaxPositionSize is the maximum quote asset exposure allowed.
	MaxPositionSize float64
	// StopLossPct is the stop loss percentage.
	StopLossPct float64
	// TakeProfitPct is the take profit percentage.
	TakeProfitPct float64
	// CheckInterval is the polling interval in seconds.
	CheckInterval int
	// CandleInterval is the kline interval used for signal evaluation.
	CandleInterval string
	// CandleLimit is the number of klines fetched per cycle.
	CandleLimit int
	// DBEndpoint is the optional trade journal database endpoint. Journaling
	// is disabled when empty.
	DBEndpoint string
	// DBUser is the trade journal database user.
	DBUser string
	// DBPass is the trade journal database user pass.
	DBPass string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.APIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("mexc api key cannot be an empty string"))
	}
	if cfg.SecretKey == "" {
		errs = errors.Join(errs, fmt.Errorf("mexc secret key cannot be an empty string"))
	}
	if cfg.Symbol == "" {
		errs = errors.Join(errs, fmt.Errorf("trading symbol cannot be an empty string"))
	}

	switch cfg.Strategy {
	case "MA", "RSI":
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown strategy selector: %q", cfg.Strategy))
	}

	if cfg.TradeAmount <= 0 {
		errs = errors.Join(errs, fmt.Errorf("trade amount must be positive, got %v", cfg.TradeAmount))
	}
	if cfg.MaxPositionSize <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max position size must be positive, got %v", cfg.MaxPositionSize))
	}
	if cfg.TradeAmount > cfg.MaxPositionSize {
		errs = errors.Join(errs, fmt.Errorf("trade amount (%v) cannot exceed max position size (%v)",
			cfg.TradeAmount, cfg.MaxPositionSize))
	}
	if cfg.StopLossPct <= 0 {
		errs = errors.Join(errs, fmt.Errorf("stop loss percentage must be positive, got %v", cfg.StopLossPct))
	}
	if cfg.TakeProfitPct <= 0 {
		errs = errors.Join(errs, fmt.Errorf("take profit percentage must be positive, got %v", cfg.TakeProfitPct))
	}
	if cfg.CheckInterval < 1 {
		errs = errors.Join(errs, fmt.Errorf("check interval must be at least a second, got %d", cfg.CheckInterval))
	}
	if cfg.CandleInterval == "" {
		errs = errors.Join(errs, fmt.Errorf("candle interval cannot be an empty string"))
	}
	if cfg.CandleLimit < 1 {
		errs = errors.Join(errs, fmt.Errorf("candle limit must be positive, got %d", cfg.CandleLimit))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them
// to avoid reregistration. Environment variables take precedence over the
// provided fallback as flag defaults.
func (cfg *Config) registerFlag(name string, env string, fallback string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(env)
	if defValue == "" {
		defValue = fallback
	}

	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			var err error
			def, err = strconv.Atoi(defValue)
			if err != nil {
				return fmt.Errorf("%s: parsing %q as int: %w", name, defValue, err)
			}
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			var err error
			def, err = strconv.ParseFloat(defValue, 64)
			if err != nil {
				return fmt.Errorf("%s: parsing %q as float: %w", name, defValue, err)
			}
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command
// line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as
	// defaults, falling back to the documented defaults.
	flags := []struct {
		name     string
		env      string
		fallback string
		value    interface{}
		usage    string
	}{
		{"apikey", "MEXC_API_KEY", "", &cfg.APIKey, "the mexc api key"},
		{"secretkey", "MEXC_SECRET_KEY", "", &cfg.SecretKey, "the mexc api secret"},
		{"symbol", "TRADING_SYMBOL", defaultSymbol, &cfg.Symbol, "the traded market symbol"},
		{"strategy", "STRATEGY", defaultStrategy, &cfg.Strategy, "the signal strategy, MA or RSI"},
		{"shortperiod", "SHORT_PERIOD", strconv.Itoa(defaultShortPeriod), &cfg.ShortPeriod, "the short moving average window"},
		{"longperiod", "LONG_PERIOD", strconv.Itoa(defaultLongPeriod), &cfg.LongPeriod, "the long moving average window"},
		{"rsiperiod", "RSI_PERIOD", strconv.Itoa(defaultRSIPeriod), &cfg.RSIPeriod, "the rsi lookback window"},
		{"rsioversold", "RSI_OVERSOLD", strconv.Itoa(defaultRSIOversold), &cfg.RSIOversold, "the rsi buy threshold"},
		{"rsioverbought", "RSI_OVERBOUGHT", strconv.Itoa(defaultRSIOverbought), &cfg.RSIOverbought, "the rsi sell threshold"},
		{"tradeamount", "TRADE_AMOUNT", strconv.Itoa(defaultTradeAmount), &cfg.TradeAmount, "the quote asset amount committed per trade"},
		{"maxpositionsize", "MAX_POSITION_SIZE", strconv.Itoa(defaultMaxPositionSize), &cfg.MaxPositionSize, "the maximum quote asset exposure"},
		{"stoplosspct", "STOP_LOSS_PERCENTAGE", strconv.Itoa(defaultStopLossPct), &cfg.StopLossPct, "the stop loss percentage"},
		{"takeprofitpct", "TAKE_PROFIT_PERCENTAGE", strconv.Itoa(defaultTakeProfitPct), &cfg.TakeProfitPct, "the take profit percentage"},
		{"checkinterval", "CHECK_INTERVAL", strconv.Itoa(defaultCheckInterval), &cfg.CheckInterval, "the polling interval in seconds"},
		{"candleinterval", "CANDLE_INTERVAL", defaultCandleInterval, &cfg.CandleInterval, "the kline interval"},
		{"candlelimit", "CANDLE_LIMIT", strconv.Itoa(defaultCandleLimit), &cfg.CandleLimit, "the number of klines fetched per cycle"},
		{"dbendpoint", "DB_ENDPOINT", "", &cfg.DBEndpoint, "the optional trade journal database endpoint"},
		{"dbuser", "DB_USER", "", &cfg.DBUser, "the trade journal database user"},
		{"dbpass", "DB_PASS", "", &cfg.DBPass, "the trade journal database pass"},
	}

	for idx := range flags {
		err = cfg.registerFlag(flags[idx].name, flags[idx].env, flags[idx].fallback,
			flags[idx].value, flags[idx].usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
