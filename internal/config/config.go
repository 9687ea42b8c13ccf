package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, rest, mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Schedule struct {
		AnalysisCron  string `yaml:"analysis_cron"`
		ExitCheckCron string `yaml:"exit_check_cron"`
	} `yaml:"schedule"`
	Analysis struct {
		PeriodDays    int     `yaml:"period_days"`
		SupportPeriod int     `yaml:"support_period"`
		Lookback      int     `yaml:"signal_lookback"`
		MinConditions int     `yaml:"min_conditions"`
		MinReversal   int     `yaml:"min_reversal_conditions"`
		DebounceDays  int     `yaml:"debounce_days"`
		TradeAmount   float64 `yaml:"trade_amount"`
	} `yaml:"analysis"`
	Exit struct {
		StopLossPct   float64 `yaml:"stop_loss_pct"`
		TakeProfitPct float64 `yaml:"take_profit_pct"`
		ExitThreshold float64 `yaml:"exit_threshold"`
	} `yaml:"exit"`
	Thresholds struct {
		BullComposite     float64 `yaml:"bull_composite"`
		BullConfidence    float64 `yaml:"bull_confidence"`
		NeutralComposite  float64 `yaml:"neutral_composite"`
		NeutralConfidence float64 `yaml:"neutral_confidence"`
		BearComposite     float64 `yaml:"bear_composite"`
		BearConfidence    float64 `yaml:"bear_confidence"`
		UnknownComposite  float64 `yaml:"unknown_composite"`
		UnknownConfidence float64 `yaml:"unknown_confidence"`
	} `yaml:"thresholds"`
	Store struct {
		AnalysisFile  string `yaml:"analysis_file"`
		PositionsFile string `yaml:"positions_file"`
		HistoryFile   string `yaml:"history_file"`
		WatchlistFile string `yaml:"watchlist_file"`
	} `yaml:"store"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_ANALYSIS"); v != "" {
		cfg.Schedule.AnalysisCron = v
	}
	if v := os.Getenv("CRON_EXIT_CHECK"); v != "" {
		cfg.Schedule.ExitCheckCron = v
	}
	if v := os.Getenv("TRADE_AMOUNT"); v != "" {
		if amount, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.TradeAmount = amount
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Schedule.AnalysisCron == "" {
		cfg.Schedule.AnalysisCron = "0 0 22 * * 1-5"
	}
	if cfg.Schedule.ExitCheckCron == "" {
		cfg.Schedule.ExitCheckCron = "0 30 22 * * 1-5"
	}
	if cfg.Analysis.PeriodDays == 0 {
		cfg.Analysis.PeriodDays = 180
	}
	if cfg.Analysis.SupportPeriod == 0 {
		cfg.Analysis.SupportPeriod = 60
	}
	if cfg.Analysis.Lookback == 0 {
		cfg.Analysis.Lookback = 60
	}
	if cfg.Analysis.MinConditions == 0 {
		cfg.Analysis.MinConditions = 5
	}
	if cfg.Analysis.MinReversal == 0 {
		cfg.Analysis.MinReversal = 2
	}
	if cfg.Analysis.DebounceDays == 0 {
		cfg.Analysis.DebounceDays = 3
	}
	if cfg.Analysis.TradeAmount == 0 {
		cfg.Analysis.TradeAmount = 100
	}
	if cfg.Exit.StopLossPct == 0 {
		cfg.Exit.StopLossPct = 0.05
	}
	if cfg.Exit.TakeProfitPct == 0 {
		cfg.Exit.TakeProfitPct = 0.20
	}
	if cfg.Exit.ExitThreshold == 0 {
		cfg.Exit.ExitThreshold = 0.8
	}
	if cfg.Thresholds.BullComposite == 0 {
		cfg.Thresholds.BullComposite = 88
		cfg.Thresholds.BullConfidence = 75
	}
	if cfg.Thresholds.NeutralComposite == 0 {
		cfg.Thresholds.NeutralComposite = 90
		cfg.Thresholds.NeutralConfidence = 80
	}
	if cfg.Thresholds.BearComposite == 0 {
		cfg.Thresholds.BearComposite = 95
		cfg.Thresholds.BearConfidence = 85
	}
	if cfg.Thresholds.UnknownComposite == 0 {
		cfg.Thresholds.UnknownComposite = 92
		cfg.Thresholds.UnknownConfidence = 82
	}
	if cfg.Store.AnalysisFile == "" {
		cfg.Store.AnalysisFile = "data/analysis_results.json"
	}
	if cfg.Store.PositionsFile == "" {
		cfg.Store.PositionsFile = "data/positions.json"
	}
	if cfg.Store.HistoryFile == "" {
		cfg.Store.HistoryFile = "data/trade_history.json"
	}
	if cfg.Store.WatchlistFile == "" {
		cfg.Store.WatchlistFile = "data/watchlist.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider must be yahoo, rest or mock, got %q", c.DataSource.Provider)
	}
	if c.Analysis.TradeAmount <= 0 {
		return fmt.Errorf("analysis.trade_amount must be positive")
	}
	if c.Exit.StopLossPct < 0 || c.Exit.StopLossPct >= 1 {
		return fmt.Errorf("exit.stop_loss_pct must be in [0, 1)")
	}
	if c.Exit.TakeProfitPct < 0 {
		return fmt.Errorf("exit.take_profit_pct must not be negative")
	}
	if c.Exit.ExitThreshold <= 0 || c.Exit.ExitThreshold > 1 {
		return fmt.Errorf("exit.exit_threshold must be in (0, 1]")
	}
	return nil
}
