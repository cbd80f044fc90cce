package risk

import (
	"math"

	"TradePulse/internal/domain/models"
)

// ImpactEstimator estimates market impact of a trade against the book.
// Implementations may fail; the gate absorbs any failure.
type ImpactEstimator func(book *models.OrderBook, size float64) (models.MarketImpact, error)

// Policy holds the scoring thresholds. Defaults match the production
// tuning: volatility steps at 2% and 5%, notional liquidity floor of
// one million, 1% impact threshold.
type Policy struct {
	BaseScore           float64
	VolThreshold        float64
	VolPenalty          float64
	HighVolThreshold    float64
	HighVolPenalty      float64
	LiquidityFloor      float64
	LiquidityPenalty    float64
	ImpactThreshold     float64
	ImpactPenalty       float64
	MaxPositionFraction float64
	StopLossFraction    float64
}

// DefaultPolicy returns the standard scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		BaseScore:           0.5,
		VolThreshold:        0.02,
		VolPenalty:          0.2,
		HighVolThreshold:    0.05,
		HighVolPenalty:      0.3,
		LiquidityFloor:      1_000_000,
		LiquidityPenalty:    0.2,
		ImpactThreshold:     0.01,
		ImpactPenalty:       0.1,
		MaxPositionFraction: 0.1,
		StopLossFraction:    0.01,
	}
}

// Gate scores candidate signals for risk. Assess is deterministic:
// identical inputs always produce identical output.
type Gate struct {
	policy   Policy
	estimate ImpactEstimator
}

// NewGate creates a gate. estimate may be nil, in which case impact is
// treated as zero.
func NewGate(policy Policy, estimate ImpactEstimator) *Gate {
	return &Gate{policy: policy, estimate: estimate}
}

// conservative is the fallback verdict when inputs are unusable: max
// risk, zero size. A degraded decision always beats a crashed cycle.
func conservative() models.RiskAssessment {
	return models.RiskAssessment{Score: 1, RecommendedSize: 0}
}

// Assess scores one candidate signal against its market snapshot.
func (g *Gate) Assess(sig *models.Signal, snap *models.MarketSnapshot) models.RiskAssessment {
	if sig == nil || snap == nil || snap.Indicators == nil {
		return conservative()
	}

	vol := snap.Indicators.Volatility
	lastClose := snap.Indicators.LastClose
	meanVolume := snap.Indicators.MeanVolume
	if lastClose <= 0 || meanVolume < 0 {
		return conservative()
	}

	score := g.policy.BaseScore
	if vol > g.policy.VolThreshold {
		score += g.policy.VolPenalty
	}
	if vol > g.policy.HighVolThreshold {
		score += g.policy.HighVolPenalty
	}

	liquidity := meanVolume * lastClose
	if liquidity < g.policy.LiquidityFloor {
		score += g.policy.LiquidityPenalty
	}

	var impact models.MarketImpact
	if snap.OrderBook != nil && g.estimate != nil {
		est, err := g.estimate(snap.OrderBook, sig.ProposedSize)
		if err != nil {
			return conservative()
		}
		impact = est
	}
	if impact.Buy > g.policy.ImpactThreshold || impact.Sell > g.policy.ImpactThreshold {
		score += g.policy.ImpactPenalty
	}

	score = clamp01(score)
	size := sig.ProposedSize * (1 - score)
	if size < 0 {
		size = 0
	}

	return models.RiskAssessment{
		Score: score,
		Factors: models.RiskFactors{
			Volatility: vol,
			Liquidity:  liquidity,
			Impact:     impact,
		},
		RecommendedSize: size,
	}
}

// PositionSize allocates a size for one target from the pool value, the
// market volatility and the target's own risk score. The curve shrinks
// with both inputs and returns 0 once the score saturates.
func (g *Gate) PositionSize(poolValue, volatility, riskScore float64) float64 {
	if poolValue <= 0 || riskScore >= 1 {
		return 0
	}
	if riskScore < 0 {
		riskScore = 0
	}
	base := poolValue * g.policy.MaxPositionFraction
	volFactor := 1 / (1 + math.Exp(volatility-0.5))
	riskFactor := math.Exp(-2 * riskScore)
	size := base * volFactor * riskFactor
	if size > base {
		size = base
	}
	return size
}

// StopLoss places a protective stop below (long) or above (short) the
// entry, widened with volatility.
func (g *Gate) StopLoss(entry float64, direction string, volatility float64) float64 {
	if entry <= 0 {
		return 0
	}
	if volatility < 0 {
		volatility = 0
	}
	distance := entry * (g.policy.StopLossFraction + volatility)
	if direction == models.DirectionShort {
		return entry + distance
	}
	return entry - distance
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
