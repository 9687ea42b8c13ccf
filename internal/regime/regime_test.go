package regime

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Regime
	}{
		{0, Bear},
		{44.9, Bear},
		{45, Neutral},
		{54.9, Neutral},
		{55, Bull},
		{100, Bull},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestThresholdsForRegime(t *testing.T) {
	table := DefaultThresholds()
	tests := []struct {
		regime Regime
		want   Thresholds
	}{
		{Bull, Thresholds{Composite: 88, Confidence: 75}},
		{Neutral, Thresholds{Composite: 90, Confidence: 80}},
		{Bear, Thresholds{Composite: 95, Confidence: 85}},
		{Unknown, Thresholds{Composite: 92, Confidence: 82}},
		{Regime("garbage"), Thresholds{Composite: 92, Confidence: 82}},
	}
	for _, tt := range tests {
		if got := table.For(tt.regime); got != tt.want {
			t.Errorf("For(%v) = %+v, want %+v", tt.regime, got, tt.want)
		}
	}
}

func TestCNNSourceParsesScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fear_and_greed":{"score":62.5,"rating":"greed"}}`))
	}))
	defer srv.Close()

	src := NewCNNSource()
	src.URL = srv.URL
	sent, err := src.Current()
	if err != nil {
		t.Fatal(err)
	}
	if sent.Score != 62.5 {
		t.Errorf("score = %v, want 62.5", sent.Score)
	}
	if sent.Regime != Bull {
		t.Errorf("regime = %v, want bull", sent.Regime)
	}
}

func TestCurrentOrUnknownFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewCNNSource()
	src.URL = srv.URL
	sent := CurrentOrUnknown(src)
	if sent.Regime != Unknown {
		t.Errorf("regime = %v, want unknown on fetch failure", sent.Regime)
	}
}

func TestStaticSource(t *testing.T) {
	sent, err := StaticSource{Regime: Bear}.Current()
	if err != nil {
		t.Fatal(err)
	}
	if sent.Regime != Bear {
		t.Errorf("regime = %v, want bear", sent.Regime)
	}
}
