package exchange

import (
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func book() *models.OrderBook {
	return &models.OrderBook{
		Bids: []models.OrderBookLevel{
			{Price: 99, Volume: 10},
			{Price: 98, Volume: 10},
		},
		Asks: []models.OrderBookLevel{
			{Price: 101, Volume: 10},
			{Price: 102, Volume: 10},
		},
	}
}

func TestEstimateImpactTopOfBook(t *testing.T) {
	// size 10 fills entirely at the best level; mid is 100
	impact, err := EstimateImpact(book(), 10)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if math.Abs(impact.Buy-0.01) > 1e-9 {
		t.Fatalf("buy impact = %v, want 0.01", impact.Buy)
	}
	if math.Abs(impact.Sell-0.01) > 1e-9 {
		t.Fatalf("sell impact = %v, want 0.01", impact.Sell)
	}
}

func TestEstimateImpactSweepsLevels(t *testing.T) {
	// size 15: 10 at best, 5 at second level
	impact, err := EstimateImpact(book(), 15)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// buy VWAP = (10*101 + 5*102) / 15 = 101.333...
	wantBuy := (101.0 + 1.0/3.0 - 100) / 100
	if math.Abs(impact.Buy-wantBuy) > 1e-9 {
		t.Fatalf("buy impact = %v, want %v", impact.Buy, wantBuy)
	}
	if impact.Sell <= 0.01 {
		t.Fatalf("deeper sweep must cost more than top of book, got %v", impact.Sell)
	}
}

func TestEstimateImpactInsufficientDepth(t *testing.T) {
	if _, err := EstimateImpact(book(), 100); err == nil {
		t.Fatalf("expected error when the book cannot absorb the size")
	}
}

func TestEstimateImpactDegenerateInputs(t *testing.T) {
	impact, err := EstimateImpact(nil, 10)
	if err != nil || impact.Buy != 0 || impact.Sell != 0 {
		t.Fatalf("nil book must be zero impact, got %+v err=%v", impact, err)
	}
	impact, err = EstimateImpact(book(), 0)
	if err != nil || impact.Buy != 0 {
		t.Fatalf("zero size must be zero impact, got %+v err=%v", impact, err)
	}
	if _, err = EstimateImpact(&models.OrderBook{}, 10); err == nil {
		t.Fatalf("expected error on empty book")
	}
}
