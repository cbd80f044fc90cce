package models

import "time"

// Direction of a trade signal.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Signal is a directional trade recommendation for one symbol.
// Value > 0 means long, < 0 short, 0 no signal. Confidence is in [0,1].
// A Signal is produced once per cycle and never mutated after risk
// gating; gating hands out a derived copy with the adjusted size.
type Signal struct {
	Symbol       string
	Value        int
	Confidence   float64
	ProposedSize float64
	Timestamp    time.Time
}

// Neutral reports whether the signal carries no direction.
func (s *Signal) Neutral() bool { return s == nil || s.Value == 0 }

// Direction maps the signal value onto a trade side.
func (s *Signal) Direction() string {
	if s.Value < 0 {
		return DirectionShort
	}
	return DirectionLong
}

// RiskFactors are the inputs that contributed to a risk score.
type RiskFactors struct {
	Volatility float64      `json:"volatility"`
	Liquidity  float64      `json:"liquidity"` // meanVolume * lastClose
	Impact     MarketImpact `json:"impact"`
}

// RiskAssessment is the deterministic risk verdict for one candidate
// signal. Score is always clamped to [0,1]; RecommendedSize is >= 0.
type RiskAssessment struct {
	Score           float64
	Factors         RiskFactors
	RecommendedSize float64
}

// TradeSignal is the per-target payload pushed to one subscriber. Size
// and StopLoss are computed from that target's own risk profile.
type TradeSignal struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Value      int     `json:"value"`
	Confidence float64 `json:"confidence"`
	Size       float64 `json:"size"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	Timestamp  int64   `json:"timestamp"`
}

// SignalRecord is the persisted form of a broadcast signal.
type SignalRecord struct {
	Symbol     string
	Timestamp  time.Time
	Value      int
	Confidence float64
	RiskScore  float64
	Size       float64
	Targets    int
}

// Distribution is one follower's share of a realized profit.
type Distribution struct {
	Trader   string
	Follower string
	Symbol   string
	Amount   string // decimal string, exact
}
