package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	xhttp "TradePulse/pkg/http"
)

// Client implements MarketDataGateway against a Binance-style REST API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
	depth   int
}

// New creates a new exchange market-data client.
func New(baseURL, apiKey string, timeout time.Duration, depth int) drepo.MarketDataGateway {
	if depth <= 0 {
		depth = 20
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		depth:   depth,
	}
}

// Fetch pulls klines and orderbook depth for one symbol. The snapshot
// is cycle-local; indicators are filled in by the signal engine.
func (c *Client) Fetch(ctx context.Context, symbol, interval string, lookback int) (*models.MarketSnapshot, error) {
	candles, err := c.fetchKlines(ctx, symbol, interval, lookback)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("fetch klines %s: empty response", symbol)
	}

	snap := &models.MarketSnapshot{
		Symbol:    symbol,
		Timestamp: time.Now(),
		Candles:   candles,
	}

	// the orderbook is optional: impact scoring degrades gracefully
	// without it
	if book, err := c.fetchOrderBook(ctx, symbol); err == nil {
		snap.OrderBook = book
	}
	return snap, nil
}

func (c *Client) fetchKlines(ctx context.Context, symbol, interval string, lookback int) ([]models.Candle, error) {
	var raw [][]json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		Headers: map[string]string{
			"X-MBX-APIKEY": c.apiKey,
		},
		QueryParams: map[string][]string{
			"symbol":   {apiSymbol(symbol)},
			"interval": {interval},
			"limit":    {strconv.Itoa(lookback)},
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			continue
		}
		c := models.Candle{Timestamp: time.UnixMilli(openMs)}
		var perr error
		c.Open, perr = parseField(row[1], perr)
		c.High, perr = parseField(row[2], perr)
		c.Low, perr = parseField(row[3], perr)
		c.Close, perr = parseField(row[4], perr)
		c.Volume, perr = parseField(row[5], perr)
		if perr != nil {
			continue
		}
		candles = append(candles, c)
	}
	return candles, nil
}

type depthResponse struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

func (c *Client) fetchOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error) {
	var resp depthResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/depth",
		QueryParams: map[string][]string{
			"symbol": {apiSymbol(symbol)},
			"limit":  {strconv.Itoa(c.depth)},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	book := &models.OrderBook{
		Bids:      parseLevels(resp.Bids),
		Asks:      parseLevels(resp.Asks),
		Timestamp: time.Now(),
	}
	return book, nil
}

// apiSymbol strips the pair separator: "BTC/USDT" -> "BTCUSDT".
func apiSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

func parseField(raw json.RawMessage, prev error) (float64, error) {
	if prev != nil {
		return 0, prev
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

func parseLevels(rows [][]string) []models.OrderBookLevel {
	levels := make([]models.OrderBookLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		price, err1 := strconv.ParseFloat(row[0], 64)
		vol, err2 := strconv.ParseFloat(row[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		levels = append(levels, models.OrderBookLevel{Price: price, Volume: vol})
	}
	return levels
}
