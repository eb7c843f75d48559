package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"time"

	"github.com/avexo/spotbot/database"
	"github.com/avexo/spotbot/engine"
	"github.com/avexo/spotbot/fetch"
	"github.com/avexo/spotbot/position"
	"github.com/avexo/spotbot/risk"
	"github.com/avexo/spotbot/strategy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// handleTermination processes context cancellation signals or interrupt
// signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

// newStrategy builds the configured signal strategy.
func newStrategy(cfg *Config) (strategy.Strategy, error) {
	switch cfg.Strategy {
	case "RSI":
		return strategy.NewRSIThreshold(&strategy.RSIThresholdConfig{
			Period:     cfg.RSIPeriod,
			Oversold:   cfg.RSIOversold,
			Overbought: cfg.RSIOverbought,
		})
	default:
		return strategy.NewMACrossover(&strategy.MACrossoverConfig{
			ShortPeriod: cfg.ShortPeriod,
			LongPeriod:  cfg.LongPeriod,
		})
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		stdlog.Printf("loading config: %v", err)
		return
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger := log.With().Str("service", "spotbot").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := fetch.NewMEXCClient(&fetch.MEXCConfig{
		APIKey:    cfg.APIKey,
		SecretKey: cfg.SecretKey,
		BaseURL:   fetch.BaseURL,
	})
	if err != nil {
		logger.Error().Msgf("creating mexc client: %v", err)
		return
	}

	// Connectivity and credential preflight. A broken exchange connection is
	// an unrecoverable startup error, not a per-cycle skip.
	err = client.Ping(ctx)
	if err != nil {
		logger.Error().Msgf("exchange preflight: %v", err)
		return
	}

	serverTime, err := client.ServerTime(ctx)
	if err != nil {
		logger.Error().Msgf("exchange preflight: %v", err)
		return
	}
	logger.Info().Msgf("exchange reachable, server time %s", serverTime.UTC().Format(time.RFC3339))

	canTrade, err := client.AccountInfo(ctx)
	if err != nil {
		logger.Error().Msgf("validating api credentials: %v", err)
		return
	}
	if !canTrade {
		logger.Error().Msg("account is not permitted to trade")
		return
	}

	strat, err := newStrategy(&cfg)
	if err != nil {
		logger.Error().Msgf("creating strategy: %v", err)
		return
	}

	riskMgr, err := risk.NewManager(&risk.ManagerConfig{
		StopLossPct:   cfg.StopLossPct,
		TakeProfitPct: cfg.TakeProfitPct,
	})
	if err != nil {
		logger.Error().Msgf("creating risk manager: %v", err)
		return
	}

	// The trade journal is optional, enabled by configuring an endpoint.
	var persistClosedTrade func(ctx context.Context, record *position.Record) error
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			logger.Error().Msgf("creating trade journal: %v", err)
			return
		}

		persistClosedTrade = db.PersistClosedTrade
	}

	engineLogger := logger.With().Str("component", "engine").Logger()
	eng, err := engine.NewEngine(&engine.Config{
		Symbol:             cfg.Symbol,
		CandleInterval:     cfg.CandleInterval,
		CandleLimit:        cfg.CandleLimit,
		TradeAmount:        cfg.TradeAmount,
		CheckInterval:      time.Duration(cfg.CheckInterval) * time.Second,
		ExchangeClient:     client,
		Strategy:           strat,
		RiskManager:        riskMgr,
		PersistClosedTrade: persistClosedTrade,
		Logger:             &engineLogger,
	})
	if err != nil {
		logger.Error().Msgf("creating trading engine: %v", err)
		return
	}

	go handleTermination(ctx, cancel)

	err = eng.Run(ctx)
	if err != nil {
		logger.Error().Msgf("running trading engine: %v", err)
	}
}
