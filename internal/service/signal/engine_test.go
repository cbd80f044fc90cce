package signal

import (
	"context"
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func TestGenerateUnanimousLong(t *testing.T) {
	e := NewEngine(1000)
	ind := &models.Indicators{SMA20: 110, SMA50: 100, RSI: 25, MACD: 1, MACDSignal: 0.5}

	sig, err := e.Generate(context.Background(), ind)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sig.Value != 1 {
		t.Fatalf("expected long, got %d", sig.Value)
	}
	if sig.Confidence != 1 {
		t.Fatalf("unanimous votes must yield confidence 1, got %v", sig.Confidence)
	}
	if sig.ProposedSize != 1000 {
		t.Fatalf("expected proposed size 1000, got %v", sig.ProposedSize)
	}
}

func TestGenerateMajorityShort(t *testing.T) {
	e := NewEngine(1000)
	// trend long, momentum and MACD short
	ind := &models.Indicators{SMA20: 110, SMA50: 100, RSI: 75, MACD: -1, MACDSignal: 0}

	sig, err := e.Generate(context.Background(), ind)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sig.Value != -1 {
		t.Fatalf("expected short, got %d", sig.Value)
	}
	if math.Abs(sig.Confidence-2.0/3.0) > 1e-9 {
		t.Fatalf("expected confidence 2/3, got %v", sig.Confidence)
	}
}

func TestGenerateNeutralWhenVotesCancel(t *testing.T) {
	e := NewEngine(1000)
	// trend long, MACD short, momentum abstains
	ind := &models.Indicators{SMA20: 110, SMA50: 100, RSI: 50, MACD: -1, MACDSignal: 0}

	sig, err := e.Generate(context.Background(), ind)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !sig.Neutral() {
		t.Fatalf("cancelled votes must be neutral, got value %d", sig.Value)
	}
	if sig.Confidence != 0 {
		t.Fatalf("neutral signal must carry zero confidence, got %v", sig.Confidence)
	}
}

func TestGenerateNilIndicators(t *testing.T) {
	e := NewEngine(1000)
	if _, err := e.Generate(context.Background(), nil); err == nil {
		t.Fatalf("expected error on nil indicators")
	}
}

func TestComputeIndicatorsEmptySnapshot(t *testing.T) {
	e := NewEngine(1000)
	if _, err := e.ComputeIndicators(&models.MarketSnapshot{}); err == nil {
		t.Fatalf("expected error on empty snapshot")
	}
	if _, err := e.ComputeIndicators(nil); err == nil {
		t.Fatalf("expected error on nil snapshot")
	}
}

func TestComputeIndicatorsPopulates(t *testing.T) {
	candles := make([]models.Candle, 60)
	for i := range candles {
		candles[i] = models.Candle{Close: 100, Volume: 10}
	}
	e := NewEngine(1000)
	ind, err := e.ComputeIndicators(&models.MarketSnapshot{Symbol: "BTC/USDT", Candles: candles})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if ind.SMA20 != 100 || ind.SMA50 != 100 {
		t.Fatalf("constant closes: SMA20=%v SMA50=%v, want 100", ind.SMA20, ind.SMA50)
	}
	if ind.LastClose != 100 || ind.MeanVolume != 10 {
		t.Fatalf("LastClose=%v MeanVolume=%v", ind.LastClose, ind.MeanVolume)
	}
	if ind.Volatility != 0 {
		t.Fatalf("constant closes must have zero volatility, got %v", ind.Volatility)
	}
}

func TestNewEngineDefaultsBaseSize(t *testing.T) {
	e := NewEngine(0)
	sig, err := e.Generate(context.Background(), &models.Indicators{SMA20: 2, SMA50: 1, RSI: 25, MACD: 1})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sig.ProposedSize != 1 {
		t.Fatalf("expected default proposed size 1, got %v", sig.ProposedSize)
	}
}
