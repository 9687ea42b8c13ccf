package notifier

import (
	"fmt"
	"strings"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/regime"
)

// FormatAnalysisReport formats the top candidates of an analysis run into a
// Telegram message. Only the first topN records are listed.
func FormatAnalysisReport(report *model.AnalysisReport, sentiment regime.Sentiment, topN int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>StockSentinel Daily Analysis</b> | %s\n\n", report.Timestamp.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Analyzed: %d/%d stocks\n", report.AnalyzedStocks, report.TotalStocks))
	b.WriteString(fmt.Sprintf("Sentiment: %.0f (%s) → %s regime\n\n", sentiment.Score, sentiment.Rating, sentiment.Regime))

	if len(report.Result) == 0 {
		b.WriteString("No candidates today.\n")
		return b.String()
	}

	b.WriteString("📈 <b>Top candidates:</b>\n")
	for i, rec := range report.Result {
		if i >= topN {
			break
		}
		b.WriteString(fmt.Sprintf("  %d. %s: composite %.1f, confidence %.0f (%s)\n",
			i+1, rec.Symbol, rec.CompositeScore, rec.ConfidenceScore, rec.EntryAdvice))
		if rec.LongDays != nil {
			b.WriteString(fmt.Sprintf("     signal %dd ago, %.1f%% above support %.2f\n",
				*rec.LongDays, rec.DistanceToSupport, rec.SupportPrice))
		}
	}
	return b.String()
}

// FormatEntryAlert formats a newly opened position.
func FormatEntryAlert(pos *model.Position) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🟢 <b>Opened %s</b>\n", pos.Symbol))
	b.WriteString(fmt.Sprintf("Entry: %s × %s shares\n", pos.EntryPrice.StringFixed(2), pos.Shares.StringFixed(4)))
	b.WriteString(fmt.Sprintf("Composite %.1f | Confidence %.0f\n", pos.EntryCompositeScore, pos.EntryConfidenceScore))
	if len(pos.EntryFactors) > 0 {
		b.WriteString("Factors: " + strings.Join(pos.EntryFactors, ", ") + "\n")
	}
	return b.String()
}

// FormatExitAlert formats a closed trade.
func FormatExitAlert(trade *model.TradeRecord) string {
	icon := "🔴"
	if trade.PnL.IsPositive() {
		icon = "🟢"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Closed %s</b>\n", icon, trade.Symbol))
	b.WriteString(fmt.Sprintf("%s → %s, held %d days\n",
		trade.EntryPrice.StringFixed(2), trade.ExitPrice.StringFixed(2), trade.HoldingDays))
	b.WriteString(fmt.Sprintf("PnL: %s (%+.2f%%)\n", trade.PnL.StringFixed(2), trade.PnLPercent))
	if len(trade.ExitReasons) > 0 {
		b.WriteString("Reasons: " + strings.Join(trade.ExitReasons, "; ") + "\n")
	}
	return b.String()
}

// FormatPositions formats the currently held positions for display.
func FormatPositions(positions []model.Position) string {
	if len(positions) == 0 {
		return "📦 No open positions."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Open positions</b>\n\n")
	for _, pos := range positions {
		days := int(time.Since(pos.EntryDate).Hours() / 24)
		b.WriteString(fmt.Sprintf("%s: %s × %s, %dd held\n",
			pos.Symbol, pos.EntryPrice.StringFixed(2), pos.Shares.StringFixed(4), days))
	}
	return b.String()
}
