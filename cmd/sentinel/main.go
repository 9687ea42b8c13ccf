package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/config"
	"StockSentinel/internal/job"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/regime"
	"StockSentinel/internal/scheduler"
	"StockSentinel/internal/server"
	sigdetect "StockSentinel/internal/signal"
	"StockSentinel/internal/store"
	"StockSentinel/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockSentinel starting...")

	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	retrying := collector.NewRetryingFetcher(fetcher)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Stores
	analysisStore := store.NewRepository(cfg.Store.AnalysisFile,
		func() model.AnalysisReport { return model.AnalysisReport{} })
	positionsStore := store.NewRepository(cfg.Store.PositionsFile,
		func() []model.Position { return nil })
	historyStore := store.NewRepository(cfg.Store.HistoryFile,
		func() []model.TradeRecord { return nil })
	watchlistStore := store.NewRepository(cfg.Store.WatchlistFile,
		func() model.Watchlist {
			return model.Watchlist{Settings: model.WatchlistSettings{
				PeriodDays:      cfg.Analysis.PeriodDays,
				StopLossPercent: cfg.Exit.StopLossPct * 100,
				TakeProfitPct:   cfg.Exit.TakeProfitPct * 100,
			}}
		})

	// Telegram alerts are optional.
	var tg *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tg = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Println("[INFO] Telegram notifications enabled")
	}

	// Scheduler wires the analysis and exit-check runs.
	sched := &scheduler.Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Analyzer: analyzer.New(retrying, analyzer.Config{
			PeriodDays:    cfg.Analysis.PeriodDays,
			SupportPeriod: cfg.Analysis.SupportPeriod,
			Detector: sigdetect.DetectorConfig{
				Lookback:      cfg.Analysis.Lookback,
				MinConditions: cfg.Analysis.MinConditions,
				MinReversal:   cfg.Analysis.MinReversal,
				DebounceDays:  cfg.Analysis.DebounceDays,
			},
		}),
		Exit: strategy.NewExitEvaluator(strategy.ExitConfig{
			StopLossPct:   cfg.Exit.StopLossPct,
			TakeProfitPct: cfg.Exit.TakeProfitPct,
			ExitThreshold: cfg.Exit.ExitThreshold,
		}),
		Fetcher:    retrying,
		Controller: job.NewController(),
		Recorder:   rec,
		Sentiment:  regime.NewCNNSource(),
		Thresholds: regime.ThresholdTable{
			Bull:    regime.Thresholds{Composite: cfg.Thresholds.BullComposite, Confidence: cfg.Thresholds.BullConfidence},
			Neutral: regime.Thresholds{Composite: cfg.Thresholds.NeutralComposite, Confidence: cfg.Thresholds.NeutralConfidence},
			Bear:    regime.Thresholds{Composite: cfg.Thresholds.BearComposite, Confidence: cfg.Thresholds.BearConfidence},
			Unknown: regime.Thresholds{Composite: cfg.Thresholds.UnknownComposite, Confidence: cfg.Thresholds.UnknownConfidence},
		},
		AnalysisStore:  analysisStore,
		PositionsStore: positionsStore,
		HistoryStore:   historyStore,
		WatchlistStore: watchlistStore,
		TradeAmount:    decimal.NewFromFloat(cfg.Analysis.TradeAmount),
		PeriodDays:     cfg.Analysis.PeriodDays,
	}
	if tg != nil {
		sched.Notifier = tg
	}
	if err := sched.RegisterAll(cfg.Schedule.AnalysisCron, cfg.Schedule.ExitCheckCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// HTTP API
	srv := &server.Server{
		Addr:             cfg.Server.Addr,
		Controller:       sched.Controller,
		TriggerAnalysis:  sched.TriggerAnalysis,
		TriggerExitCheck: sched.TriggerExitCheck,
		AnalysisStore:    analysisStore,
		PositionsStore:   positionsStore,
		HistoryStore:     historyStore,
		WatchlistStore:   watchlistStore,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if tg != nil {
		go tg.StartPolling(ctx, func(command string) string {
			return handleCommand(command, sched, positionsStore)
		})
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing analysis now")
		if err := sched.TriggerAnalysis(); err != nil {
			log.Printf("[WARN] run on start: %v", err)
		}
	}

	log.Println("[INFO] StockSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] StockSentinel stopped")
}

func handleCommand(command string, sched *scheduler.Scheduler, positions *store.Repository[[]model.Position]) string {
	switch command {
	case "/status":
		st := sched.Controller.Status()
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Sprintf("status unavailable: %v", err)
		}
		return "<pre>" + string(data) + "</pre>"
	case "/positions":
		return notifier.FormatPositions(positions.Load())
	case "/run":
		if err := sched.TriggerAnalysis(); err != nil {
			return fmt.Sprintf("cannot start analysis: %v", err)
		}
		return "analysis started"
	case "/check":
		if err := sched.TriggerExitCheck(); err != nil {
			return fmt.Sprintf("cannot start exit check: %v", err)
		}
		return "exit check started"
	case "/help":
		return "/status /positions /run /check"
	default:
		return ""
	}
}
