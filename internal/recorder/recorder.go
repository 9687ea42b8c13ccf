package recorder

import "StockSentinel/internal/model"

// Recorder persists historical data for later inspection.
type Recorder interface {
	RecordAnalysisRun(report *model.AnalysisReport) error
	RecordTrade(rec *model.TradeRecord) error
	RecordSignal(symbol string, evt *model.SignalEvent) error
	Close() error
}
