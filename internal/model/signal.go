package model

import "time"

// SignalSnapshot captures the indicator state at the row a signal fired.
type SignalSnapshot struct {
	RSI                  float64 `json:"rsi"`
	MACD                 float64 `json:"macd"`
	VolumeRatio          float64 `json:"volume_ratio"`
	K                    float64 `json:"k"`
	D                    float64 `json:"d"`
	SAR                  float64 `json:"sar"`
	OBV                  float64 `json:"obv"`
	ADX                  float64 `json:"adx"`
	TrendReversalConfirm float64 `json:"trend_reversal_confirmation"`
	ReversalStrength     float64 `json:"reversal_strength"`
	ReversalReliability  float64 `json:"reversal_reliability"`
	MomentumTurn         float64 `json:"short_term_momentum_turn"`
	StructureReversal    float64 `json:"price_structure_reversal"`
}

// SignalEvent is a discrete bullish entry signal detected on one trading day.
type SignalEvent struct {
	Date       time.Time      `json:"date"`
	Price      float64        `json:"price"`
	Conditions []string       `json:"conditions"`
	Snapshot   SignalSnapshot `json:"snapshot"`
}

// SupportEstimate is the robust dip-buy price with its confidence.
type SupportEstimate struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"` // 0-100
}

// Advice is the 4-level entry recommendation.
type Advice string

const (
	AdviceStrongBuy Advice = "strongly recommended"
	AdviceBuy       Advice = "recommended"
	AdviceWatch     Advice = "watch"
	AdviceAvoid     Advice = "not recommended"
)

// Score maps an advice level to its composite-score contribution.
func (a Advice) Score() float64 {
	switch a {
	case AdviceStrongBuy:
		return 100
	case AdviceBuy:
		return 80
	case AdviceWatch:
		return 50
	default:
		return 20
	}
}

// EntryAssessment is the output of the opportunity scorer.
type EntryAssessment struct {
	Score      float64  `json:"score"`      // raw signed rule total
	Confidence float64  `json:"confidence"` // 0-100, dampened near overbought
	Level      string   `json:"confidence_level"`
	Advice     Advice   `json:"advice"`
	Factors    []string `json:"confidence_factors"`
}
