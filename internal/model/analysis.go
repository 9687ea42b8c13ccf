package model

import "time"

// AnalysisRecord is the per-symbol result of one analysis run.
type AnalysisRecord struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Market       string  `json:"market"`
	CurrentPrice float64 `json:"current_price"`
	RSI          float64 `json:"rsi"`
	MACD         float64 `json:"macd"`
	VolumeRatio  float64 `json:"volume_ratio"`

	SupportPrice      float64 `json:"long_signal_price"`
	SupportConfidence float64 `json:"long_signal_confidence"`
	DistanceToSupport float64 `json:"distance_to_signal"` // percent above the support price

	// LongDays is nil when no bullish signal exists in the window.
	LongDays         *int     `json:"long_days"`
	LatestSignalDate string   `json:"latest_signal_date,omitempty"`
	LatestSignalPrice float64 `json:"latest_signal_price,omitempty"`
	SignalConditions []string `json:"signal_conditions,omitempty"`

	EntryAdvice     Advice   `json:"entry_opportunity"`
	ConfidenceScore float64  `json:"confidence_score"`
	ConfidenceLevel string   `json:"confidence_level"`
	Factors         []string `json:"confidence_factors"`
	CompositeScore  float64  `json:"composite_score"`

	MultiTimeframeScore  float64 `json:"multi_timeframe_score"`
	MultiTimeframeRating string  `json:"multi_timeframe_rating,omitempty"`
	TrendConsistency     float64 `json:"trend_consistency"`

	TrendReversalConfirm float64 `json:"trend_reversal_confirmation"`
	ReversalStrength     float64 `json:"reversal_strength"`
	ReversalReliability  float64 `json:"reversal_reliability"`
	MomentumTurn         float64 `json:"short_term_momentum_turn"`
	StructureReversal    float64 `json:"price_structure_reversal"`
}

// AnalysisReport is the whole-document analysis store shape.
type AnalysisReport struct {
	Result         []AnalysisRecord `json:"result"`
	Timestamp      time.Time        `json:"timestamp"`
	TotalStocks    int              `json:"total_stocks"`
	AnalyzedStocks int              `json:"analyzed_stocks"`
}

// WatchlistSettings are tunables stored alongside the watchlist.
type WatchlistSettings struct {
	PeriodDays      int     `json:"period_days"`
	StopLossPercent float64 `json:"stop_loss_percent"`
	TakeProfitPct   float64 `json:"take_profit_percent"`
}

// Watchlist is the whole-document watchlist store shape.
type Watchlist struct {
	Stocks   []string          `json:"stocks"`
	Settings WatchlistSettings `json:"settings"`
}
