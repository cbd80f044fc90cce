package signal

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
)

// Engine is the deterministic technical-analysis signal engine. It
// votes three indicator families (trend, momentum, MACD) and emits a
// directional signal only from their agreement; confidence is the
// fraction of indicators that agree. A predictive model can replace
// this implementation behind the same interface.
type Engine struct {
	baseSize float64
}

// NewEngine creates an Engine. baseSize is the proposed position size
// attached to every raw signal before risk gating; <= 0 defaults to 1.
func NewEngine(baseSize float64) drepo.SignalEngine {
	if baseSize <= 0 {
		baseSize = 1
	}
	return &Engine{baseSize: baseSize}
}

// ComputeIndicators derives the indicator set from a snapshot.
func (e *Engine) ComputeIndicators(snap *models.MarketSnapshot) (*models.Indicators, error) {
	if snap == nil || len(snap.Candles) == 0 {
		return nil, fmt.Errorf("snapshot has no candles")
	}
	closes := make([]float64, len(snap.Candles))
	for i, c := range snap.Candles {
		closes[i] = c.Close
	}
	macd, macdSignal := MACD(closes)
	ind := &models.Indicators{
		SMA20:      SMA(closes, 20),
		SMA50:      SMA(closes, 50),
		EMA12:      EMA(closes, 12),
		RSI:        RSI(closes, 14),
		MACD:       macd,
		MACDSignal: macdSignal,
		OBV:        OBV(snap.Candles),
		Volatility: Volatility(closes, 20),
		LastClose:  snap.LastClose(),
		MeanVolume: snap.MeanVolume(),
	}
	return ind, nil
}

// Generate votes the indicators into a directional signal. A nil-value
// (neutral) signal is returned when the votes cancel out.
func (e *Engine) Generate(_ context.Context, ind *models.Indicators) (*models.Signal, error) {
	if ind == nil {
		return nil, fmt.Errorf("indicators are nil")
	}

	votes := []int{trendVote(ind), momentumVote(ind), macdVote(ind)}
	sum := 0
	for _, v := range votes {
		sum += v
	}

	value := sign(sum)
	agreement := 0
	for _, v := range votes {
		if v == value && v != 0 {
			agreement++
		}
	}

	sig := &models.Signal{
		Value:        value,
		Confidence:   float64(agreement) / float64(len(votes)),
		ProposedSize: e.baseSize,
		Timestamp:    time.Now(),
	}
	return sig, nil
}

// trendVote compares the short and long moving averages.
func trendVote(ind *models.Indicators) int {
	switch {
	case ind.SMA20 > ind.SMA50:
		return 1
	case ind.SMA20 < ind.SMA50:
		return -1
	default:
		return 0
	}
}

// momentumVote flags RSI overbought/oversold extremes.
func momentumVote(ind *models.Indicators) int {
	switch {
	case ind.RSI > 70:
		return -1
	case ind.RSI < 30:
		return 1
	default:
		return 0
	}
}

// macdVote compares the MACD line against its signal line.
func macdVote(ind *models.Indicators) int {
	switch {
	case ind.MACD > ind.MACDSignal:
		return 1
	case ind.MACD < ind.MACDSignal:
		return -1
	default:
		return 0
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
