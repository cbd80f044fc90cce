package exchange

import (
	"fmt"

	"TradePulse/internal/domain/models"
)

// EstimateImpact computes the relative execution cost of sweeping the
// book with a trade of the given size, for both sides. The result is
// the deviation of the average fill price from the mid price. Returns
// an error when the book is too shallow to absorb the size.
func EstimateImpact(book *models.OrderBook, size float64) (models.MarketImpact, error) {
	var impact models.MarketImpact
	if book == nil || size <= 0 {
		return impact, nil
	}
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return impact, fmt.Errorf("orderbook empty")
	}

	mid := (book.Bids[0].Price + book.Asks[0].Price) / 2
	if mid <= 0 {
		return impact, fmt.Errorf("invalid mid price")
	}

	buyAvg, err := sweep(book.Asks, size)
	if err != nil {
		return impact, fmt.Errorf("buy side: %w", err)
	}
	sellAvg, err := sweep(book.Bids, size)
	if err != nil {
		return impact, fmt.Errorf("sell side: %w", err)
	}

	impact.Buy = (buyAvg - mid) / mid
	impact.Sell = (mid - sellAvg) / mid
	if impact.Buy < 0 {
		impact.Buy = 0
	}
	if impact.Sell < 0 {
		impact.Sell = 0
	}
	return impact, nil
}

// sweep walks the levels accumulating fills until size is satisfied and
// returns the volume-weighted average fill price.
func sweep(levels []models.OrderBookLevel, size float64) (float64, error) {
	remaining := size
	var cost float64
	for _, lv := range levels {
		if remaining <= 0 {
			break
		}
		executed := lv.Volume
		if executed > remaining {
			executed = remaining
		}
		cost += executed * lv.Price
		remaining -= executed
	}
	if remaining > 0 {
		return 0, fmt.Errorf("insufficient depth for size %v", size)
	}
	return cost / size, nil
}
