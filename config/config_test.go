package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() with a missing file: %v", err)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("retry max = %d, want default 5", cfg.Retry.MaxRetries)
	}
	if cfg.Risk.DailyDrawdownLimit != 0.05 {
		t.Errorf("drawdown limit = %v, want default 0.05", cfg.Risk.DailyDrawdownLimit)
	}
	if len(cfg.Trading.Symbols) == 0 {
		t.Error("no default symbols")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
trading:
  symbols: [EURUSD]
  sl_points: 150
  tp_points: 0
risk:
  reward_ratio: 2.0
retry:
  max_retries: 3
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("retry max = %d, want 3 from file", cfg.Retry.MaxRetries)
	}
	if len(cfg.Trading.Symbols) != 1 || cfg.Trading.Symbols[0] != "EURUSD" {
		t.Errorf("symbols = %v, want [EURUSD]", cfg.Trading.Symbols)
	}
	// TP left unset derives from the stop distance and reward ratio.
	if cfg.Trading.TPPoints != 300 {
		t.Errorf("tp_points = %v, want 150 * 2.0", cfg.Trading.TPPoints)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RISK_PER_TRADE", "0.02")
	t.Setenv("TRADING_DRY_RUN", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Risk.RiskPerTrade != 0.02 {
		t.Errorf("risk per trade = %v, want env override 0.02", cfg.Risk.RiskPerTrade)
	}
	if !cfg.Trading.DryRun {
		t.Error("dry run env override ignored")
	}
}

func TestLoadValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("risk:\n  risk_per_trade: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted a risk fraction above 1")
	}
}
