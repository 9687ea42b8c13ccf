package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/backtest"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/regime"
	"StockSentinel/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	godotenv.Load()

	var (
		symbolsFlag = flag.String("symbols", "", "comma-separated symbols to backtest (required)")
		startFlag   = flag.String("start", "", "start date YYYY-MM-DD (required)")
		endFlag     = flag.String("end", time.Now().Format("2006-01-02"), "end date YYYY-MM-DD")
		refFlag     = flag.String("reference", "SPY", "reference symbol for the trading calendar")
		regimeFlag  = flag.String("regime", "unknown", "pinned sentiment regime: bull, neutral, bear, unknown")
		amountFlag  = flag.Float64("amount", 100, "fixed dollar amount per entry")
		stopFlag    = flag.Float64("stop-loss", 0.05, "stop loss fraction, 0 disables")
		profitFlag  = flag.Float64("take-profit", 0.20, "take profit fraction, 0 disables")
		dbFlag      = flag.String("db", "", "optional sqlite path to record trades")
		proxyFlag   = flag.String("proxy", "", "optional https proxy")
	)
	flag.Parse()

	if *symbolsFlag == "" || *startFlag == "" {
		flag.Usage()
		log.Fatal("[FATAL] -symbols and -start are required")
	}
	start, err := time.Parse("2006-01-02", *startFlag)
	if err != nil {
		log.Fatalf("[FATAL] parse start: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endFlag)
	if err != nil {
		log.Fatalf("[FATAL] parse end: %v", err)
	}
	symbols := strings.Split(*symbolsFlag, ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}

	fetcher := collector.NewRetryingFetcher(collector.NewYahooFetcher(*proxyFlag))
	sim := backtest.New(fetcher, backtest.Config{
		Symbols:         symbols,
		Start:           start,
		End:             end,
		ReferenceSymbol: *refFlag,
		TradeAmount:     decimal.NewFromFloat(*amountFlag),
		Regime:          regime.Regime(*regimeFlag),
		Exit: strategy.ExitConfig{
			StopLossPct:   *stopFlag,
			TakeProfitPct: *profitFlag,
		},
	})

	log.Printf("[INFO] backtesting %d symbols from %s to %s (regime %s)",
		len(symbols), *startFlag, *endFlag, *regimeFlag)
	result, err := sim.Run()
	if err != nil {
		log.Fatalf("[FATAL] backtest: %v", err)
	}

	for _, trade := range result.Trades {
		log.Printf("[INFO] trade %s: %s -> %s, pnl %s (%.2f%%), %v",
			trade.Symbol,
			trade.EntryDate.Format("2006-01-02"), trade.ExitDate.Format("2006-01-02"),
			trade.PnL.StringFixed(2), trade.PnLPercent, trade.ExitReasons)
	}
	for _, pos := range result.Open {
		log.Printf("[INFO] still open %s: entered %s at %s",
			pos.Symbol, pos.EntryDate.Format("2006-01-02"), pos.EntryPrice.StringFixed(2))
	}
	log.Printf("[INFO] report: %s", result.Report.Format())

	if *dbFlag != "" {
		rec, err := recorder.NewSQLiteRecorder(*dbFlag)
		if err != nil {
			log.Fatalf("[FATAL] open recorder: %v", err)
		}
		defer rec.Close()
		for i := range result.Trades {
			if err := rec.RecordTrade(&result.Trades[i]); err != nil {
				log.Printf("[ERROR] record trade: %v", err)
			}
		}
		log.Printf("[INFO] recorded %d trades to %s", len(result.Trades), *dbFlag)
	}
}
