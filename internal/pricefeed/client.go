// Package pricefeed resolves stand-alone streaming prices. The engine treats
// prices as an opaque oracle; this package implements that oracle against an
// optional remote feed with the static catalog as fallback.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/compare"
	"github.com/nordsalg/advisor-api/internal/obs"
)

// Client fetches streaming prices from a remote feed. A tripped breaker or
// any fetch error degrades to the caller's fallback lookup, so quoting never
// blocks on the feed.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	RefreshTTL time.Duration

	breaker *breaker

	mu        sync.RWMutex
	prices    map[string]catalog.Money
	fetchedAt time.Time
}

// New constructs a feed client. An empty baseURL produces a client that
// always answers from the fallback.
func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{Timeout: 3 * time.Second},
		Logger:     logger,
		RefreshTTL: 5 * time.Minute,
		breaker:    newBreaker(3, 30*time.Second),
	}
}

type feedResponse struct {
	Prices map[string]catalog.Money `json:"prices"`
}

// Oracle returns a price lookup bound to the freshest feed snapshot, layered
// over the caller's fallback. The fallback is taken per call so feed misses
// always resolve against the catalog the request is being priced with. The
// returned func is safe to call from the pure engine: all I/O happens here,
// before the engine runs.
func (c *Client) Oracle(ctx context.Context, fallback compare.PriceFor) compare.PriceFor {
	if c == nil || c.BaseURL == "" {
		return orFallback(fallback)
	}

	snapshot := c.cachedSnapshot()
	if snapshot == nil {
		fetched, err := c.refresh(ctx)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("price feed unavailable, using catalog prices")
			if obs.PriceFeedFallbackTotal != nil {
				obs.PriceFeedFallbackTotal.Inc()
			}
			return orFallback(fallback)
		}
		snapshot = fetched
	}

	return func(id string) (catalog.Money, bool) {
		if price, ok := snapshot[id]; ok {
			return price, true
		}
		if fallback != nil {
			return fallback(id)
		}
		return 0, false
	}
}

func orFallback(fallback compare.PriceFor) compare.PriceFor {
	if fallback != nil {
		return fallback
	}
	return func(string) (catalog.Money, bool) { return 0, false }
}

func (c *Client) cachedSnapshot() map[string]catalog.Money {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.prices == nil || time.Since(c.fetchedAt) > c.RefreshTTL {
		return nil
	}
	return c.prices
}

func (c *Client) refresh(ctx context.Context) (map[string]catalog.Money, error) {
	if !c.breaker.allow() {
		return nil, fmt.Errorf("pricefeed: breaker open for %s", c.BaseURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/prices", nil)
	if err != nil {
		return nil, fmt.Errorf("pricefeed: build request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.breaker.report(false)
		return nil, fmt.Errorf("pricefeed: fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.breaker.report(false)
		return nil, fmt.Errorf("pricefeed: unexpected status %d", resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.breaker.report(false)
		return nil, fmt.Errorf("pricefeed: decode response: %w", err)
	}
	for id, price := range payload.Prices {
		if price < 0 {
			c.breaker.report(false)
			return nil, fmt.Errorf("pricefeed: negative price for %s", id)
		}
	}
	c.breaker.report(true)

	c.mu.Lock()
	c.prices = payload.Prices
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return payload.Prices, nil
}
