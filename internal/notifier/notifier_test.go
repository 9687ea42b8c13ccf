package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
	"StockSentinel/internal/regime"
)

func TestSendPostsToConfiguredChat(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat42", "")
	n.BaseURL = srv.URL
	if err := n.Send("hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "chat42" {
		t.Errorf("chat_id = %q, want chat42", got["chat_id"])
	}
	if got["text"] != "hello" {
		t.Errorf("text = %q, want hello", got["text"])
	}
}

func TestSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat", "")
	n.BaseURL = srv.URL
	if err := n.Send("hello"); err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestFormatAnalysisReportListsTopCandidates(t *testing.T) {
	days := 3
	report := &model.AnalysisReport{
		Timestamp:      time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC),
		TotalStocks:    3,
		AnalyzedStocks: 3,
		Result: []model.AnalysisRecord{
			{Symbol: "AAPL", CompositeScore: 91.5, ConfidenceScore: 84, EntryAdvice: model.AdviceStrongBuy,
				LongDays: &days, DistanceToSupport: 1.2, SupportPrice: 180.5},
			{Symbol: "MSFT", CompositeScore: 70, ConfidenceScore: 60, EntryAdvice: model.AdviceWatch},
			{Symbol: "NVDA", CompositeScore: 40, ConfidenceScore: 30, EntryAdvice: model.AdviceAvoid},
		},
	}
	sentiment := regime.Sentiment{Score: 62, Rating: "greed", Regime: regime.Bull}

	msg := FormatAnalysisReport(report, sentiment, 2)
	if !strings.Contains(msg, "AAPL") || !strings.Contains(msg, "MSFT") {
		t.Errorf("message missing top candidates: %s", msg)
	}
	if strings.Contains(msg, "NVDA") {
		t.Errorf("message includes candidate beyond topN: %s", msg)
	}
	if !strings.Contains(msg, "signal 3d ago") {
		t.Errorf("message missing signal age line: %s", msg)
	}
	if !strings.Contains(msg, "bull regime") {
		t.Errorf("message missing regime: %s", msg)
	}
}

func TestFormatExitAlertIconFollowsPnL(t *testing.T) {
	winner := &model.TradeRecord{
		Symbol:      "AAPL",
		EntryPrice:  decimal.NewFromInt(100),
		ExitPrice:   decimal.NewFromInt(110),
		PnL:         decimal.NewFromInt(10),
		PnLPercent:  10,
		ExitReasons: []string{"take profit"},
	}
	if msg := FormatExitAlert(winner); !strings.Contains(msg, "🟢") {
		t.Errorf("winner alert missing green icon: %s", msg)
	}

	loser := &model.TradeRecord{
		Symbol:     "MSFT",
		EntryPrice: decimal.NewFromInt(100),
		ExitPrice:  decimal.NewFromInt(95),
		PnL:        decimal.NewFromInt(-5),
		PnLPercent: -5,
	}
	if msg := FormatExitAlert(loser); !strings.Contains(msg, "🔴") {
		t.Errorf("loser alert missing red icon: %s", msg)
	}
}

func TestFormatPositionsEmpty(t *testing.T) {
	if msg := FormatPositions(nil); !strings.Contains(msg, "No open positions") {
		t.Errorf("unexpected empty-positions message: %s", msg)
	}
}

func TestFetchUpdatesAdvancesDispatch(t *testing.T) {
	var sent map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":" /status "}}]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
				t.Fatalf("decode reply: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat", "")
	n.BaseURL = srv.URL

	updates, err := n.fetchUpdates(context.Background(), n.Client, 0)
	if err != nil {
		t.Fatalf("fetchUpdates: %v", err)
	}
	if len(updates) != 1 || updates[0].UpdateID != 7 {
		t.Fatalf("updates = %+v", updates)
	}

	// Command text is trimmed before dispatch; the handler reply is sent back.
	n.dispatch(updates[0], func(command string) string {
		if command != "/status" {
			t.Errorf("command = %q, want /status", command)
		}
		return "running"
	})
	if sent["text"] != "running" {
		t.Errorf("reply text = %q, want running", sent["text"])
	}
}

func TestFetchUpdatesRejectedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"result":[]}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat", "")
	n.BaseURL = srv.URL
	if _, err := n.fetchUpdates(context.Background(), n.Client, 0); err == nil {
		t.Fatal("expected error on rejected getUpdates payload")
	}
}
