package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"ict-trading-bot/config"
	"ict-trading-bot/internal/bot"
	"ict-trading-bot/internal/journal"
	"ict-trading-bot/internal/metrics"
	"ict-trading-bot/internal/notify"
	"ict-trading-bot/internal/secrets"
	"ict-trading-bot/internal/venue"
)

func main() {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Logging)
	logger.Info().Str("config", configPath).Msg("configuration loaded")

	keeper, err := secrets.LoadKeeper(cfg.Venue.KeyFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load credential key")
	}

	notifier := buildNotifier(cfg, keeper, logger)
	recorder := buildRecorder(cfg.Journal, logger)
	defer recorder.Close()

	client, err := buildClient(cfg, keeper, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("venue connection failed")
	}

	gateway := venue.NewGateway(client, notifier,
		cfg.Retry.MaxRetries,
		time.Duration(cfg.Retry.IntervalSec)*time.Second,
		logger)

	if cfg.Metrics.Enabled {
		go func() {
			logger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listener starting")
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				logger.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := bot.New(cfg, gateway, notifier, recorder, logger)
	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("engine stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// buildNotifier assembles the alert chain: every alert is mirrored into
// the log, and delivered by email when notifications are enabled.
func buildNotifier(cfg *config.Config, keeper *secrets.Keeper, logger zerolog.Logger) notify.Notifier {
	if !cfg.Notification.Enabled {
		return notify.NewLogging(nil, logger)
	}

	password, err := keeper.Decrypt(cfg.Notification.PasswordEnc)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to decrypt SMTP password")
	}

	email := notify.NewEmail(notify.SMTPConfig{
		Host:     cfg.Notification.SMTPHost,
		Port:     cfg.Notification.SMTPPort,
		Username: cfg.Notification.Username,
		Password: password,
		From:     cfg.Notification.From,
		FromName: cfg.Notification.FromName,
		To:       cfg.Notification.To,
	}, logger)
	return notify.NewLogging(email, logger)
}

func buildRecorder(cfg config.JournalConfig, logger zerolog.Logger) journal.Recorder {
	switch cfg.Driver {
	case "sqlite":
		rec, err := journal.NewSQLiteRecorder(cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open sqlite journal")
		}
		return rec
	case "csv":
		rec, err := journal.NewCSVRecorder(cfg.Dir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open csv journal")
		}
		return rec
	default:
		logger.Info().Msg("trade journal disabled")
		return journal.Noop{}
	}
}

// buildClient connects to the MT5 bridge, or returns the in-memory mock
// when mock mode is on. Credential decryption failures abort startup;
// trading must never begin with a partially initialized session.
func buildClient(cfg *config.Config, keeper *secrets.Keeper, logger zerolog.Logger) (venue.Client, error) {
	if cfg.Venue.MockMode {
		logger.Warn().Msg("mock venue enabled, no real orders will be placed")
		return venue.NewMockClient(), nil
	}

	client := venue.NewBridgeClient(cfg.Venue.BridgeURL, cfg.Venue.AuthToken)

	if cfg.Venue.LoginEnc != "" {
		login, err := keeper.Decrypt(cfg.Venue.LoginEnc)
		if err != nil {
			return nil, err
		}
		password, err := keeper.Decrypt(cfg.Venue.PasswordEnc)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(login, password, cfg.Venue.Server); err != nil {
			return nil, err
		}
		logger.Info().Str("server", cfg.Venue.Server).Msg("terminal session established")
	}

	return client, nil
}
