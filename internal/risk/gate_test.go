package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func snapshotWith(vol, lastClose, meanVolume float64, book *models.OrderBook) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:    "BTC/USDT",
		Timestamp: time.Now(),
		Candles:   []models.Candle{{Close: lastClose, Volume: meanVolume}},
		OrderBook: book,
		Indicators: &models.Indicators{
			Volatility: vol,
			LastClose:  lastClose,
			MeanVolume: meanVolume,
		},
	}
}

func TestAssessCalmMarket(t *testing.T) {
	g := NewGate(DefaultPolicy(), nil)
	sig := &models.Signal{Symbol: "BTC/USDT", Value: 1, Confidence: 1, ProposedSize: 1000}
	snap := snapshotWith(0.01, 100, 50_000, nil) // liquidity 5M

	a := g.Assess(sig, snap)
	if a.Score != 0.5 {
		t.Fatalf("expected base score 0.5, got %v", a.Score)
	}
	if a.RecommendedSize != 500 {
		t.Fatalf("expected size 500, got %v", a.RecommendedSize)
	}
}

func TestAssessAllPenaltiesClamp(t *testing.T) {
	estimate := func(*models.OrderBook, float64) (models.MarketImpact, error) {
		return models.MarketImpact{Buy: 0.02, Sell: 0.02}, nil
	}
	g := NewGate(DefaultPolicy(), estimate)
	sig := &models.Signal{Symbol: "BTC/USDT", Value: 1, Confidence: 1, ProposedSize: 1000}
	// volatility 6%, liquidity 500k, impact 2%: every penalty applies
	snap := snapshotWith(0.06, 100, 5_000, &models.OrderBook{})

	a := g.Assess(sig, snap)
	if a.Score != 1 {
		t.Fatalf("expected clamped score 1.0, got %v", a.Score)
	}
	if a.RecommendedSize != 0 {
		t.Fatalf("expected size 0 at max risk, got %v", a.RecommendedSize)
	}
	if a.Factors.Liquidity != 500_000 {
		t.Fatalf("expected liquidity 500000, got %v", a.Factors.Liquidity)
	}
}

func TestAssessConservativeFallbacks(t *testing.T) {
	g := NewGate(DefaultPolicy(), nil)

	for name, tc := range map[string]struct {
		sig  *models.Signal
		snap *models.MarketSnapshot
	}{
		"nil signal":     {nil, snapshotWith(0.01, 100, 1000, nil)},
		"nil snapshot":   {&models.Signal{ProposedSize: 100}, nil},
		"no indicators":  {&models.Signal{ProposedSize: 100}, &models.MarketSnapshot{}},
		"bad last close": {&models.Signal{ProposedSize: 100}, snapshotWith(0.01, 0, 1000, nil)},
	} {
		a := g.Assess(tc.sig, tc.snap)
		if a.Score != 1 || a.RecommendedSize != 0 {
			t.Fatalf("%s: expected conservative verdict, got score=%v size=%v", name, a.Score, a.RecommendedSize)
		}
	}
}

func TestAssessEstimatorFailure(t *testing.T) {
	estimate := func(*models.OrderBook, float64) (models.MarketImpact, error) {
		return models.MarketImpact{}, errors.New("book too thin")
	}
	g := NewGate(DefaultPolicy(), estimate)
	sig := &models.Signal{ProposedSize: 1000}
	snap := snapshotWith(0.01, 100, 50_000, &models.OrderBook{})

	a := g.Assess(sig, snap)
	if a.Score != 1 || a.RecommendedSize != 0 {
		t.Fatalf("expected conservative verdict on estimator failure, got score=%v size=%v", a.Score, a.RecommendedSize)
	}
}

func TestAssessDeterministic(t *testing.T) {
	g := NewGate(DefaultPolicy(), nil)
	sig := &models.Signal{ProposedSize: 1000}
	snap := snapshotWith(0.03, 100, 5_000, nil)

	first := g.Assess(sig, snap)
	for i := 0; i < 10; i++ {
		if got := g.Assess(sig, snap); got != first {
			t.Fatalf("assessment not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestPositionSizeSaturatedScore(t *testing.T) {
	g := NewGate(DefaultPolicy(), nil)
	if got := g.PositionSize(1_000_000, 0.02, 1); got != 0 {
		t.Fatalf("expected 0 at score 1, got %v", got)
	}
	if got := g.PositionSize(0, 0.02, 0.5); got != 0 {
		t.Fatalf("expected 0 for empty pool, got %v", got)
	}
}

func TestPositionSizeDecreasesWithRisk(t *testing.T) {
	g := NewGate(DefaultPolicy(), nil)
	prev := math.Inf(1)
	for _, score := range []float64{0, 0.25, 0.5, 0.75, 0.99} {
		size := g.PositionSize(1_000_000, 0.02, score)
		if size <= 0 {
			t.Fatalf("expected positive size at score %v", score)
		}
		if size >= prev {
			t.Fatalf("size did not decrease: %v at score %v (prev %v)", size, score, prev)
		}
		prev = size
	}
}

func TestPositionSizeNeverExceedsBase(t *testing.T) {
	g := NewGate(DefaultPolicy(), nil)
	base := 1_000_000 * DefaultPolicy().MaxPositionFraction
	if got := g.PositionSize(1_000_000, -5, 0); got > base {
		t.Fatalf("size %v exceeds base %v", got, base)
	}
}

func TestStopLoss(t *testing.T) {
	g := NewGate(DefaultPolicy(), nil)

	long := g.StopLoss(100, models.DirectionLong, 0.02)
	if want := 100 - 100*(0.01+0.02); math.Abs(long-want) > 1e-9 {
		t.Fatalf("long stop: got %v want %v", long, want)
	}
	short := g.StopLoss(100, models.DirectionShort, 0.02)
	if want := 100 + 100*(0.01+0.02); math.Abs(short-want) > 1e-9 {
		t.Fatalf("short stop: got %v want %v", short, want)
	}
	if g.StopLoss(0, models.DirectionLong, 0.02) != 0 {
		t.Fatalf("expected 0 stop for empty entry")
	}
}
