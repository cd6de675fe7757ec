package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration. Values come from defaults,
// then an optional YAML file, then environment overrides, in that order.
type Config struct {
	Venue        VenueConfig        `yaml:"venue"`
	Trading      TradingConfig      `yaml:"trading"`
	Risk         RiskConfig         `yaml:"risk"`
	Strategy     StrategyConfig     `yaml:"strategy"`
	Retry        RetryConfig        `yaml:"retry"`
	Notification NotificationConfig `yaml:"notification"`
	Journal      JournalConfig      `yaml:"journal"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// VenueConfig holds the connection to the MT5 bridge. Login and password
// are secretbox ciphertexts (see internal/secrets); the server name is
// plain.
type VenueConfig struct {
	BridgeURL   string `yaml:"bridge_url"`
	AuthToken   string `yaml:"auth_token"`
	KeyFile     string `yaml:"key_file"`
	LoginEnc    string `yaml:"login_enc"`
	PasswordEnc string `yaml:"password_enc"`
	Server      string `yaml:"server"`
	MockMode    bool   `yaml:"mock_mode"` // Use the in-memory mock client instead of the bridge
}

// TradingConfig holds the instrument universe and order parameters.
type TradingConfig struct {
	Symbols          []string           `yaml:"symbols"`
	Timeframe        string             `yaml:"timeframe"`
	HigherTimeframes []string           `yaml:"higher_timeframes"`
	CandleCount      int                `yaml:"candle_count"`
	CheckIntervalSec int                `yaml:"check_interval_sec"`
	SLPoints         float64            `yaml:"sl_points"`
	TPPoints         float64            `yaml:"tp_points"`
	Deviation        int                `yaml:"deviation"`
	Magic            int64              `yaml:"magic"`
	MaxSpread        map[string]float64 `yaml:"max_spread"` // Per-symbol ceiling in price units
	DryRun           bool               `yaml:"dry_run"`    // Evaluate but never send orders
}

// RiskConfig holds sizing, drawdown and lifecycle fractions. These are
// process-wide and read-only during a run.
type RiskConfig struct {
	RiskPerTrade       float64 `yaml:"risk_per_trade"`
	LotMin             float64 `yaml:"lot_min"`
	LotMax             float64 `yaml:"lot_max"`
	RewardRatio        float64 `yaml:"reward_ratio"`
	DailyDrawdownLimit float64 `yaml:"daily_drawdown_limit"`
	BreakevenFraction  float64 `yaml:"breakeven_fraction"`
	PartialFraction    float64 `yaml:"partial_fraction"`
	PartialTrigger     float64 `yaml:"partial_trigger"`
}

// StrategyConfig lifts the analysis thresholds out of the code so tuning
// does not require a rebuild.
type StrategyConfig struct {
	AllowMomentum bool    `yaml:"allow_momentum"`
	ImpulseFactor float64 `yaml:"impulse_factor"`

	SessionStartHour int `yaml:"session_start_hour"`
	SessionEndHour   int `yaml:"session_end_hour"`

	PipSize              float64 `yaml:"pip_size"`
	TrendPips            float64 `yaml:"trend_pips"`
	TrendPipsMomentum    float64 `yaml:"trend_pips_momentum"`
	MomentumATRPips      float64 `yaml:"momentum_atr_pips"`
	ConsolidationATRPips float64 `yaml:"consolidation_atr_pips"`
	VolatileATRPips      float64 `yaml:"volatile_atr_pips"`

	TrendFilterEnabled bool `yaml:"trend_filter_enabled"`
	TrendEMAPeriod     int  `yaml:"trend_ema_period"`
	HTFFilterEnabled   bool `yaml:"htf_filter_enabled"`
	HTFEMAPeriod       int  `yaml:"htf_ema_period"`
	SweepFilterEnabled bool `yaml:"sweep_filter_enabled"`
	SweepLookback      int  `yaml:"sweep_lookback"`
	SweepSessionLength int  `yaml:"sweep_session_length"`
	InversionFilterOn  bool `yaml:"inversion_filter_enabled"`
}

// RetryConfig drives the resilient venue gateway.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries"`
	IntervalSec int `yaml:"interval_sec"`
}

// NotificationConfig holds email alert delivery. The SMTP password is a
// secretbox ciphertext.
type NotificationConfig struct {
	Enabled     bool   `yaml:"enabled"`
	SMTPHost    string `yaml:"smtp_host"`
	SMTPPort    string `yaml:"smtp_port"`
	Username    string `yaml:"username"`
	PasswordEnc string `yaml:"password_enc"`
	From        string `yaml:"from"`
	FromName    string `yaml:"from_name"`
	To          string `yaml:"to"`
}

// JournalConfig selects the append-only trade journal backend.
type JournalConfig struct {
	Driver     string `yaml:"driver"` // csv, sqlite or none
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"` // debug, info, warn, error
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the production defaults, tuned for 5-digit FX symbols
// on 5-minute candles.
func Default() *Config {
	return &Config{
		Venue: VenueConfig{
			BridgeURL: "http://127.0.0.1:8077",
			KeyFile:   "secret.key",
		},
		Trading: TradingConfig{
			Symbols:          []string{"EURUSD", "GBPUSD", "USDJPY", "XAUUSD"},
			Timeframe:        "M5",
			HigherTimeframes: []string{"H1"},
			CandleCount:      200,
			CheckIntervalSec: 30,
			SLPoints:         200,
			TPPoints:         200,
			Deviation:        10,
			Magic:            234000,
			MaxSpread: map[string]float64{
				"EURUSD": 0.0003,
				"GBPUSD": 0.0005,
				"USDJPY": 0.03,
				"XAUUSD": 0.4,
			},
		},
		Risk: RiskConfig{
			RiskPerTrade:       0.01,
			LotMin:             0.01,
			LotMax:             5.0,
			RewardRatio:        1.0,
			DailyDrawdownLimit: 0.05,
			BreakevenFraction:  0.5,
			PartialFraction:    0.5,
			PartialTrigger:     0.8,
		},
		Strategy: StrategyConfig{
			AllowMomentum:        true,
			ImpulseFactor:        1.2,
			SessionStartHour:     8,
			SessionEndHour:       17,
			PipSize:              0.0001,
			TrendPips:            0.5,
			TrendPipsMomentum:    0.2,
			MomentumATRPips:      8,
			ConsolidationATRPips: 4,
			VolatileATRPips:      12,
			TrendFilterEnabled:   true,
			TrendEMAPeriod:       200,
			HTFFilterEnabled:     true,
			HTFEMAPeriod:         50,
			SweepFilterEnabled:   true,
			SweepLookback:        12,
			SweepSessionLength:   48,
			InversionFilterOn:    true,
		},
		Retry: RetryConfig{
			MaxRetries:  5,
			IntervalSec: 10,
		},
		Notification: NotificationConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: "587",
		},
		Journal: JournalConfig{
			Driver:     "csv",
			Dir:        "journal",
			SQLitePath: "journal/trades.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (a
// missing file is fine) and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Trading.TPPoints <= 0 && cfg.Risk.RewardRatio > 0 {
		cfg.Trading.TPPoints = cfg.Trading.SLPoints * cfg.Risk.RewardRatio
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Venue.BridgeURL = getEnvOrDefault("VENUE_BRIDGE_URL", c.Venue.BridgeURL)
	c.Venue.AuthToken = getEnvOrDefault("VENUE_AUTH_TOKEN", c.Venue.AuthToken)
	c.Venue.KeyFile = getEnvOrDefault("VENUE_KEY_FILE", c.Venue.KeyFile)
	c.Venue.LoginEnc = getEnvOrDefault("VENUE_LOGIN_ENC", c.Venue.LoginEnc)
	c.Venue.PasswordEnc = getEnvOrDefault("VENUE_PASSWORD_ENC", c.Venue.PasswordEnc)
	c.Venue.Server = getEnvOrDefault("VENUE_SERVER", c.Venue.Server)
	c.Venue.MockMode = getEnvBool("VENUE_MOCK_MODE", c.Venue.MockMode)

	c.Trading.DryRun = getEnvBool("TRADING_DRY_RUN", c.Trading.DryRun)
	c.Trading.CheckIntervalSec = getEnvInt("TRADING_CHECK_INTERVAL", c.Trading.CheckIntervalSec)

	c.Risk.RiskPerTrade = getEnvFloat("RISK_PER_TRADE", c.Risk.RiskPerTrade)
	c.Risk.DailyDrawdownLimit = getEnvFloat("RISK_DAILY_DRAWDOWN_LIMIT", c.Risk.DailyDrawdownLimit)

	c.Strategy.AllowMomentum = getEnvBool("STRATEGY_ALLOW_MOMENTUM", c.Strategy.AllowMomentum)

	c.Retry.MaxRetries = getEnvInt("RETRY_MAX", c.Retry.MaxRetries)
	c.Retry.IntervalSec = getEnvInt("RETRY_INTERVAL", c.Retry.IntervalSec)

	c.Notification.Enabled = getEnvBool("NOTIFICATIONS_ENABLED", c.Notification.Enabled)
	c.Notification.Username = getEnvOrDefault("ALERT_EMAIL_USERNAME", c.Notification.Username)
	c.Notification.PasswordEnc = getEnvOrDefault("ALERT_EMAIL_PASSWORD_ENC", c.Notification.PasswordEnc)
	c.Notification.From = getEnvOrDefault("ALERT_EMAIL_FROM", c.Notification.From)
	c.Notification.To = getEnvOrDefault("ALERT_EMAIL_TO", c.Notification.To)

	c.Journal.Driver = getEnvOrDefault("JOURNAL_DRIVER", c.Journal.Driver)
	c.Journal.Dir = getEnvOrDefault("JOURNAL_DIR", c.Journal.Dir)

	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Pretty = getEnvBool("LOG_PRETTY", c.Logging.Pretty)

	c.Metrics.Enabled = getEnvBool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Addr = getEnvOrDefault("METRICS_ADDR", c.Metrics.Addr)
}

func (c *Config) validate() error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("no trading symbols configured")
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade >= 1 {
		return fmt.Errorf("risk_per_trade must be in (0, 1), got %v", c.Risk.RiskPerTrade)
	}
	if c.Risk.LotMin <= 0 || c.Risk.LotMax < c.Risk.LotMin {
		return fmt.Errorf("invalid lot bounds [%v, %v]", c.Risk.LotMin, c.Risk.LotMax)
	}
	if c.Risk.DailyDrawdownLimit <= 0 || c.Risk.DailyDrawdownLimit >= 1 {
		return fmt.Errorf("daily_drawdown_limit must be in (0, 1), got %v", c.Risk.DailyDrawdownLimit)
	}
	if c.Trading.SLPoints <= 0 {
		return fmt.Errorf("sl_points must be positive, got %v", c.Trading.SLPoints)
	}
	if c.Retry.MaxRetries <= 0 {
		return fmt.Errorf("retry max_retries must be positive, got %d", c.Retry.MaxRetries)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
