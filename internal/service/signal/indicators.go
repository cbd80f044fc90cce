package signal

import (
	"math"

	"TradePulse/internal/domain/models"
)

// SMA computes the simple moving average of the last period closes.
// Returns 0 if there is insufficient data.
func SMA(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period {
		return 0
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(period)
}

// EMA computes the exponential moving average over the whole series
// with the standard smoothing 2/(period+1), seeded with the SMA of the
// first period values.
func EMA(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period {
		return 0
	}
	k := 2.0 / float64(period+1)
	ema := SMA(closes[:period], period)
	for i := period; i < len(closes); i++ {
		ema = closes[i]*k + ema*(1-k)
	}
	return ema
}

// RSI computes the Wilder relative strength index for the last period.
// Returns 50 (neutral) when there is insufficient data.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) <= period {
		return 50
	}
	var gains, losses float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD computes the MACD line (EMA12-EMA26) and its 9-period signal
// line over the close series.
func MACD(closes []float64) (macd, signalLine float64) {
	if len(closes) < 26 {
		return 0, 0
	}
	// build the MACD series so the signal line can be smoothed over it
	series := make([]float64, 0, len(closes)-25)
	for i := 26; i <= len(closes); i++ {
		window := closes[:i]
		series = append(series, EMA(window, 12)-EMA(window, 26))
	}
	macd = series[len(series)-1]
	if len(series) >= 9 {
		signalLine = EMA(series, 9)
	}
	return macd, signalLine
}

// OBV computes on-balance volume over the candle series.
func OBV(candles []models.Candle) float64 {
	var obv float64
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			obv += candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			obv -= candles[i].Volume
		}
	}
	return obv
}

// Volatility computes the standard deviation of log returns over the
// last window bars. This is the relative volatility the risk gate
// thresholds at 2% and 5%.
func Volatility(closes []float64, window int) float64 {
	if window <= 1 || len(closes) < window+1 {
		return 0
	}
	rets := make([]float64, 0, window)
	for i := len(closes) - window; i < len(closes); i++ {
		prev := closes[i-1]
		cur := closes[i]
		if prev <= 0 || cur <= 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, math.Log(cur/prev))
	}
	var sum, sum2 float64
	for _, r := range rets {
		sum += r
		sum2 += r * r
	}
	n := float64(len(rets))
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
