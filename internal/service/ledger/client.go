package ledger

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/service/cache"
	xhttp "TradePulse/pkg/http"
)

// Client implements the Ledger interface against the settlement
// service's HTTP API. Authorization lookups are cached with a short TTL
// since they sit on the hot follow path.
type Client struct {
	http    *xhttp.Client
	baseURL string
	cache   cache.BytesCache
	ttl     time.Duration
}

// New creates a ledger client. c may be nil to disable caching.
func New(baseURL string, timeout time.Duration, c cache.BytesCache, ttl time.Duration) drepo.Ledger {
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   c,
		ttl:     ttl,
	}
}

type authResponse struct {
	Authorized bool `json:"authorized"`
}

func (c *Client) IsAuthorizedFollower(ctx context.Context, follower, trader, symbol string) (bool, error) {
	key := "ledger:auth:" + follower + ":" + trader + ":" + symbol
	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(key); err == nil && ok {
			return len(b) == 1 && b[0] == '1', nil
		}
	}

	var resp authResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/follows/authorized",
		QueryParams: map[string][]string{
			"follower": {follower},
			"trader":   {trader},
			"symbol":   {symbol},
		},
	}, &resp)
	if err != nil {
		return false, fmt.Errorf("ledger authorization: %w", err)
	}

	if c.cache != nil {
		v := []byte{'0'}
		if resp.Authorized {
			v = []byte{'1'}
		}
		_ = c.cache.SetBytes(key, v, c.ttl)
	}
	return resp.Authorized, nil
}

type followersResponse struct {
	Followers []string `json:"followers"`
}

func (c *Client) GetFollowers(ctx context.Context, trader, symbol string) ([]string, error) {
	var resp followersResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/follows/" + url.PathEscape(trader),
		QueryParams: map[string][]string{
			"symbol": {symbol},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ledger followers: %w", err)
	}
	return resp.Followers, nil
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

func (c *Client) GetBalance(ctx context.Context, identity string) (float64, error) {
	var resp balanceResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/balances/" + url.PathEscape(identity),
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return resp.Balance, nil
}
