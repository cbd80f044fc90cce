package signal

import (
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := SMA(closes, 5); !almostEqual(got, 8) {
		t.Fatalf("SMA(5) = %v, want 8", got)
	}
	if got := SMA(closes, 11); got != 0 {
		t.Fatalf("insufficient data must return 0, got %v", got)
	}
	if got := SMA(closes, 0); got != 0 {
		t.Fatalf("non-positive period must return 0, got %v", got)
	}
}

func TestEMAConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 42
	}
	if got := EMA(closes, 12); !almostEqual(got, 42) {
		t.Fatalf("EMA of a constant series = %v, want 42", got)
	}
}

func TestEMATracksRecentCloses(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	ema := EMA(closes, 12)
	sma := SMA(closes, 12)
	// both averages lag the last close on a rising series, EMA less so
	if ema <= sma {
		t.Fatalf("EMA %v must exceed SMA %v on a rising series", ema, sma)
	}
	if ema >= closes[len(closes)-1] {
		t.Fatalf("EMA %v must lag the last close %v", ema, closes[len(closes)-1])
	}
}

func TestRSIExtremes(t *testing.T) {
	rising := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = float64(i + 1)
		falling[i] = float64(30 - i)
	}
	if got := RSI(rising, 14); got != 100 {
		t.Fatalf("all-gains RSI = %v, want 100", got)
	}
	if got := RSI(falling, 14); got > 1 {
		t.Fatalf("all-losses RSI = %v, want ~0", got)
	}
	if got := RSI(rising[:10], 14); got != 50 {
		t.Fatalf("insufficient data must return neutral 50, got %v", got)
	}
}

func TestMACDRisingSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	macd, sig := MACD(closes)
	if macd <= 0 {
		t.Fatalf("rising series must yield positive MACD, got %v", macd)
	}
	if sig <= 0 {
		t.Fatalf("signal line must be positive too, got %v", sig)
	}
	if m, s := MACD(closes[:20]); m != 0 || s != 0 {
		t.Fatalf("short series must yield (0,0), got (%v,%v)", m, s)
	}
}

func TestOBV(t *testing.T) {
	candles := []models.Candle{
		{Close: 10, Volume: 100},
		{Close: 11, Volume: 200}, // up: +200
		{Close: 11, Volume: 300}, // flat: 0
		{Close: 9, Volume: 150},  // down: -150
	}
	if got := OBV(candles); !almostEqual(got, 50) {
		t.Fatalf("OBV = %v, want 50", got)
	}
}

func TestVolatility(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	if got := Volatility(flat, 20); got != 0 {
		t.Fatalf("flat series volatility = %v, want 0", got)
	}

	choppy := make([]float64, 30)
	for i := range choppy {
		if i%2 == 0 {
			choppy[i] = 100
		} else {
			choppy[i] = 105
		}
	}
	if got := Volatility(choppy, 20); got <= 0 {
		t.Fatalf("choppy series must have positive volatility, got %v", got)
	}

	if got := Volatility(flat[:10], 20); got != 0 {
		t.Fatalf("insufficient data must return 0, got %v", got)
	}
}
