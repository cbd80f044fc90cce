package models

import "time"

// Candle represents one OHLCV bar.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// OrderBookLevel is one price level of the book.
type OrderBookLevel struct {
	Price  float64
	Volume float64
}

// OrderBook holds bid/ask depth at fetch time.
type OrderBook struct {
	Bids      []OrderBookLevel
	Asks      []OrderBookLevel
	Timestamp time.Time
}

// Indicators are the technical indicators computed from a snapshot.
// Volatility, LastClose and MeanVolume are always populated; the rest
// depend on the lookback being long enough.
type Indicators struct {
	SMA20      float64
	SMA50      float64
	EMA12      float64
	RSI        float64
	MACD       float64
	MACDSignal float64
	OBV        float64
	Volatility float64
	LastClose  float64
	MeanVolume float64
}

// MarketImpact estimates the execution cost of sweeping the book.
type MarketImpact struct {
	Buy  float64
	Sell float64
}

// MarketSnapshot is the immutable per-cycle view of one symbol's market.
// It is owned by the cycle that fetched it and never shared across cycles.
type MarketSnapshot struct {
	Symbol     string
	Timestamp  time.Time
	Candles    []Candle
	OrderBook  *OrderBook // optional
	Indicators *Indicators
}

// LastClose returns the close of the most recent candle, 0 when empty.
func (s *MarketSnapshot) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// MeanVolume returns the average candle volume, 0 when empty.
func (s *MarketSnapshot) MeanVolume() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.Candles {
		sum += c.Volume
	}
	return sum / float64(len(s.Candles))
}
