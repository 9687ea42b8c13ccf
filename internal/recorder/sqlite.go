package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockSentinel/internal/model"
)

// SQLiteRecorder persists runs, trades and signals to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			total_stocks    INTEGER,
			analyzed_stocks INTEGER,
			top_symbol      TEXT,
			top_composite   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON analysis_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT,
			entry_date       TEXT,
			exit_date        TEXT,
			entry_price      TEXT,
			exit_price       TEXT,
			shares           TEXT,
			pnl_absolute     TEXT,
			pnl_percent      REAL,
			holding_days     INTEGER,
			entry_composite  REAL,
			entry_confidence REAL,
			exit_reasons     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol)`,

		`CREATE TABLE IF NOT EXISTS daily_signals (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT,
			signal_date  TEXT,
			price        REAL,
			conditions   INTEGER,
			rsi          REAL,
			macd         REAL,
			volume_ratio REAL,
			adx          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON daily_signals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol ON daily_signals(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysisRun(report *model.AnalysisReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	topSymbol := ""
	topComposite := 0.0
	if len(report.Result) > 0 {
		topSymbol = report.Result[0].Symbol
		topComposite = report.Result[0].CompositeScore
	}

	_, err := r.db.Exec(`INSERT INTO analysis_runs
		(timestamp, total_stocks, analyzed_stocks, top_symbol, top_composite)
		VALUES (?,?,?,?,?)`,
		report.Timestamp.Unix(), report.TotalStocks, report.AnalyzedStocks,
		topSymbol, topComposite,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(rec *model.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reasons := ""
	for i, reason := range rec.ExitReasons {
		if i > 0 {
			reasons += "; "
		}
		reasons += reason
	}

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, symbol, entry_date, exit_date, entry_price, exit_price,
		 shares, pnl_absolute, pnl_percent, holding_days,
		 entry_composite, entry_confidence, exit_reasons)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Symbol,
		rec.EntryDate.Format("2006-01-02"), rec.ExitDate.Format("2006-01-02"),
		rec.EntryPrice.String(), rec.ExitPrice.String(), rec.Shares.String(),
		rec.PnL.String(), rec.PnLPercent, rec.HoldingDays,
		rec.EntryCompositeScore, rec.EntryConfidenceScore, reasons,
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(symbol string, evt *model.SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO daily_signals
		(timestamp, symbol, signal_date, price, conditions, rsi, macd, volume_ratio, adx)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), symbol, evt.Date.Format("2006-01-02"), evt.Price,
		len(evt.Conditions), evt.Snapshot.RSI, evt.Snapshot.MACD,
		evt.Snapshot.VolumeRatio, evt.Snapshot.ADX,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
