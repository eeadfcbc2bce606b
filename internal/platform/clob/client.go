// Package clob is the REST client for the order-book-style market API. It
// returns raw payloads; shape reconciliation lives in the normalize package.
package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/marketlens/internal/upstream"
)

// Client wraps the shared request executor for the CLOB host.
type Client struct {
	exec *upstream.Executor
}

// NewClient creates a CLOB client over the given executor.
func NewClient(exec *upstream.Executor) *Client {
	return &Client{exec: exec}
}

// GetMarkets returns the raw market listing.
func (c *Client) GetMarkets(ctx context.Context) (json.RawMessage, error) {
	body, err := c.exec.Execute(ctx, http.MethodGet, "/markets", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("clob: get markets: %w", err)
	}
	return body, nil
}

// GetMarket returns the raw payload for a single market.
func (c *Client) GetMarket(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := c.exec.Execute(ctx, http.MethodGet, "/markets/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("clob: get market %s: %w", id, err)
	}
	return body, nil
}

// GetMarketHistory returns raw historical data points for a market over the
// trailing window of the given number of days.
func (c *Client) GetMarketHistory(ctx context.Context, id, resolution string, days int, now time.Time) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("resolution", resolution)
	params.Set("from", strconv.FormatInt(now.AddDate(0, 0, -days).Unix(), 10))
	params.Set("to", strconv.FormatInt(now.Unix(), 10))

	body, err := c.exec.Execute(ctx, http.MethodGet, "/markets/"+url.PathEscape(id)+"/history", params, nil)
	if err != nil {
		return nil, fmt.Errorf("clob: get market history %s: %w", id, err)
	}
	return body, nil
}

// GetMarketTrades returns the raw recent trades of a market, bounded by limit.
func (c *Client) GetMarketTrades(ctx context.Context, id string, limit int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.exec.Execute(ctx, http.MethodGet, "/markets/"+url.PathEscape(id)+"/trades", params, nil)
	if err != nil {
		return nil, fmt.Errorf("clob: get market trades %s: %w", id, err)
	}
	return body, nil
}
